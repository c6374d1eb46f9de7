package business

import (
	"context"
	"fmt"
	"sync"
	"time"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/business/server"
	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/pkg/session"
)

// ServeMain starts the local HTTP front end and keeps the session alive
// while it runs.
func ServeMain(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialising the application: %w", err)
	}
	// ctx is cancelled before Close runs. Cookies rotated since the last
	// keepalive tick must still be saved.
	defer app.Close(context.WithoutCancel(ctx))

	if err := app.Start(ctx); err != nil {
		return err
	}

	// errChan is used to capture the first error and shutdown the workers.
	errChan := make(chan error, 1)

	// wg is used to wait for all workers to shutdown.
	var wg sync.WaitGroup

	wg.Go(func() {
		errChan <- server.StartHTTPServer(ctx, cfg, server.Deps{
			Session:  app.Session,
			Catalog:  app.Catalog,
			Local:    app.Local,
			Store:    app.Store,
			PageSize: cfg.Catalog.PageSize,
		})
	})

	wg.Go(func() {
		errChan <- startKeepAlive(ctx, app, cfg.KeepAlive.Interval)
	})

	// wait for any error to initiate the shutdown
	if err := <-errChan; err != nil {
		slogctx.Error(ctx, "Shutting down", "error", err)
	}
	cancel()

	wg.Wait()

	return nil
}

// KeepAliveMain renews the session cookies until the context is done.
func KeepAliveMain(ctx context.Context, cfg *config.Config) error {
	return withApp(ctx, cfg, func(ctx context.Context, app *App) error {
		if _, err := app.Session.RequireUser(); err != nil {
			return err
		}

		slogctx.Info(ctx, "Starting session keepalive", "interval", cfg.KeepAlive.Interval)
		return startKeepAlive(ctx, app, cfg.KeepAlive.Interval)
	})
}

func startKeepAlive(ctx context.Context, app *App, interval time.Duration) error {
	if interval <= 0 {
		slogctx.Info(ctx, "Session keepalive disabled")
		<-ctx.Done()
		return nil
	}

	c := time.Tick(interval)
	for {
		select {
		case <-c:
		case <-ctx.Done():
			return nil
		}

		if app.Session.Status() != session.StatusAuthenticated {
			continue
		}

		slogctx.Debug(ctx, "Renewing the session")
		if err := app.Auth.Refresh(ctx); err != nil {
			slogctx.Error(ctx, "Failed to renew the session", "error", err)
			continue
		}

		if app.remembered || app.Session.State().RememberMe {
			if err := app.Jar.Save(ctx); err != nil {
				slogctx.Warn(ctx, "Could not save the renewed session cookies", "error", err)
			}
		}
	}
}
