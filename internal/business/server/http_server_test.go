package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/openkcm/catalog-client/internal/config"
)

func TestStartHTTPServer_ContextCancellation(t *testing.T) {
	t.Run("gracefully shuts down when context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())

		cfg := testConfig()

		errChan := make(chan error, 1)
		go func() {
			errChan <- StartHTTPServer(ctx, cfg, Deps{})
		}()

		// Give the server a moment to start
		time.Sleep(100 * time.Millisecond)

		cancel()

		select {
		case err := <-errChan:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Server did not shut down within timeout")
		}
	})

	t.Run("fails on an unusable address", func(t *testing.T) {
		cfg := testConfig()
		cfg.HTTP.Address = "bogus://nowhere"

		err := StartHTTPServer(t.Context(), cfg, Deps{})
		assert.Error(t, err)
	})
}

func TestCreateHTTPServer(t *testing.T) {
	t.Run("creates HTTP server with default config", func(t *testing.T) {
		cfg := testConfig()
		cfg.HTTP.Address = "localhost:8080"

		server, err := createHTTPServer(t.Context(), cfg, Deps{}, noop.NewMeterProvider())
		require.NoError(t, err)

		require.NotNil(t, server)
		assert.Equal(t, "localhost:8080", server.Addr)
		assert.NotNil(t, server.Handler)
	})

	t.Run("creates HTTP server with unix socket", func(t *testing.T) {
		cfg := testConfig()
		cfg.HTTP.Address = "unix:///tmp/test.sock"

		server, err := createHTTPServer(t.Context(), cfg, Deps{}, noop.NewMeterProvider())
		require.NoError(t, err)

		require.NotNil(t, server)
		assert.Equal(t, "unix:///tmp/test.sock", server.Addr)
	})

	t.Run("answers CORS preflight for allowed origins", func(t *testing.T) {
		cfg := testConfig()
		cfg.HTTP = config.HTTPServer{AllowedOrigins: []string{"http://localhost:5173"}}

		server, err := createHTTPServer(t.Context(), cfg, Deps{}, noop.NewMeterProvider())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodOptions, "/products", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		server.Handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
