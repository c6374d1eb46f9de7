package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/oapi-codegen/runtime/strictmiddleware/nethttp"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/config"
	"github.com/openkcm/catalog-client/internal/middleware/sessionctx"
)

const corsMaxAge = 15 * 60

// createHTTPServer creates the local front end http server using the given config
func createHTTPServer(ctx context.Context, cfg *config.Config, deps Deps, provider metric.MeterProvider) (*http.Server, error) {
	m, err := newMeters(ctx, cfg, provider)
	if err != nil {
		return nil, err
	}

	h := &handlers{deps: deps, now: time.Now}
	trace := []nethttp.StrictHTTPMiddlewareFunc{newTraceMiddleware(cfg, m)}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Traceparent"},
		MaxAge:         corsMaxAge,
	}))

	r.Get("/ping", handle(h.ping, "Ping", trace...))
	r.Get("/session", handle(h.getSession, "GetSession", trace...))
	r.Post("/login", handle(h.login, "Login", trace...))
	r.Post("/logout", handle(h.logout, "Logout", trace...))
	r.Route("/products", func(rr chi.Router) {
		rr.Use(sessionctx.SessionMiddleware(deps.Session))
		rr.Use(sessionctx.RequireUser(writeError))
		rr.Get("/", handle(h.listProducts, "ListProducts", trace...))
		rr.Post("/", handle(h.addProduct, "AddProduct", trace...))
	})

	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           r,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}, nil
}

// StartHTTPServer starts the HTTP server using the given config.
func StartHTTPServer(ctx context.Context, cfg *config.Config, deps Deps) error {
	server, err := createHTTPServer(ctx, cfg, deps, otel.GetMeterProvider())
	if err != nil {
		return err
	}

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// Parse network if the address if provided in the format of network://address.
	// Otherwise use tcp network by default.
	network := "tcp"
	if idx := strings.IndexRune(server.Addr, ':'); idx != -1 && len(server.Addr) > idx+3 && server.Addr[idx:idx+3] == "://" {
		network = server.Addr[:idx]
		server.Addr = server.Addr[idx+3:]
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	slogctx.Info(ctx, "A listener started", "address", listener.Addr().String())

	go func() {
		slogctx.Info(ctx, "Serving an HTTP server", "address", listener.Addr().String())
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogctx.Error(ctx, "Failed to serve an HTTP server", "error", err)
		}

		slogctx.Info(ctx, "Stopped an HTTP server")
	}()

	<-ctx.Done()

	shutdownCtx, shutdownRelease := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
