package business

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/internal/store"
	storefile "github.com/openkcm/catalog-client/internal/store/file"
	storememory "github.com/openkcm/catalog-client/internal/store/memory"
	storevalkey "github.com/openkcm/catalog-client/internal/store/valkey"
	"github.com/openkcm/catalog-client/pkg/apiclient"
	"github.com/openkcm/catalog-client/pkg/auth"
	"github.com/openkcm/catalog-client/pkg/catalog"
	"github.com/openkcm/catalog-client/pkg/cookies"
	"github.com/openkcm/catalog-client/pkg/session"
)

const closeTimeout = 5 * time.Second

// App holds everything a command needs to talk to the catalog API.
type App struct {
	Store   store.Store
	Jar     *cookies.Jar
	Client  *apiclient.Client
	Auth    *auth.API
	Session *session.Manager
	Catalog *catalog.Service
	Local   *catalog.LocalProducts

	cfg *config.Config
	// remembered is set when saved session cookies were loaded at start.
	remembered bool
	closeFn    func()
}

// NewApp wires the store, the cookie jar, the API client and the session.
// The session is not bootstrapped yet, see Start.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	st, closeFn, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising the store: %w", err)
	}

	app, err := newApp(cfg, st, &http.Client{Timeout: cfg.API.Timeout})
	if err != nil {
		closeFn()
		return nil, err
	}
	app.closeFn = closeFn

	slogctx.Debug(ctx, "Application wired", "api", cfg.API.BaseURL, "storage", cfg.Storage.Type)

	return app, nil
}

func newApp(cfg *config.Config, st store.Store, httpClient *http.Client) (*App, error) {
	baseURL, err := url.Parse(cfg.API.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing the api base url: %w", err)
	}

	jar, err := cookies.New(st, baseURL.Host)
	if err != nil {
		return nil, fmt.Errorf("creating the cookie jar: %w", err)
	}

	client, err := apiclient.New(cfg.API.BaseURL,
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithCookieJar(jar),
		apiclient.WithUserAgent(cfg.API.UserAgent),
		apiclient.WithStripPrefix(cfg.API.StripPrefix),
	)
	if err != nil {
		return nil, fmt.Errorf("creating the api client: %w", err)
	}

	authAPI := auth.New(client, auth.WithExpiresInMins(cfg.API.ExpiresInMins))

	return &App{
		Store:   st,
		Jar:     jar,
		Client:  client,
		Auth:    authAPI,
		Session: session.NewManager(authAPI, session.WithCookiePersister(jar)),
		Catalog: catalog.NewService(client, catalog.WithCacheTTL(cfg.Catalog.CacheTTL)),
		Local:   catalog.NewLocalProducts(st),
		cfg:     cfg,
		closeFn: func() {},
	}, nil
}

func newStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Storage.Type {
	case config.StorageTypeValKey:
		opts, err := config.MakeValKeyOptions(cfg.ValKey)
		if err != nil {
			return nil, nil, fmt.Errorf("making valkey options from config: %w", err)
		}

		valkeyClient, err := valkey.NewClient(opts)
		if err != nil {
			return nil, nil, fmt.Errorf("creating a new valkey client: %w", err)
		}

		return storevalkey.NewStore(valkeyClient, cfg.ValKey.Prefix), valkeyClient.Close, nil
	case config.StorageTypeMemory:
		return storememory.NewStore(), func() {}, nil
	case config.StorageTypeFile, "":
		return storefile.NewStore(filepath.Clean(cfg.Storage.Path)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// Start restores saved cookies and resolves the session.
func (a *App) Start(ctx context.Context) error {
	if err := a.Jar.Load(ctx); err != nil {
		return fmt.Errorf("restoring the session cookies: %w", err)
	}
	a.remembered = a.Jar.Len() > 0

	// The who-am-i call is never refreshed, so a remembered session whose
	// access cookie expired is renewed first.
	if a.remembered {
		if err := a.Auth.Refresh(ctx); err != nil {
			slogctx.Debug(ctx, "Could not renew the remembered session", "error", err)
		}
	}

	a.Session.Bootstrap(ctx)

	slogctx.Debug(ctx, "Session resolved", "status", a.Session.Status(), "remembered", a.remembered)

	return nil
}

// Close persists cookies renewed during a remembered session and releases
// the store. Callers pass a context that outlives their cancellation.
func (a *App) Close(ctx context.Context) {
	defer a.closeFn()

	ctx, cancel := context.WithTimeout(ctx, closeTimeout)
	defer cancel()

	if !a.remembered && !a.Session.State().RememberMe {
		return
	}
	if a.Session.Status() != session.StatusAuthenticated {
		return
	}
	if err := a.Jar.Save(ctx); err != nil {
		slogctx.Warn(ctx, "Could not save the renewed session cookies", "error", err)
	}
}

// Listing builds a product listing with the saved sort and the local products.
func (a *App) Listing(ctx context.Context) (*catalog.Listing, error) {
	local, err := a.Local.List(ctx)
	if err != nil {
		return nil, err
	}

	return catalog.NewListing(a.Catalog,
		catalog.WithPageSize(a.cfg.Catalog.PageSize),
		catalog.WithSort(catalog.LoadSort(ctx, a.Store)),
		catalog.WithLocalProducts(local),
	), nil
}
