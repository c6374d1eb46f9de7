package apiclient

import (
	"context"
	"strings"
	"time"

	slogctx "github.com/veqryn/slog-context"
)

// Authentication endpoints of the remote API.
const (
	PathLogin   = "/api/auth/login"
	PathRefresh = "/api/auth/refresh"
	PathLogout  = "/api/auth/logout"
	PathMe      = "/api/auth/me"
)

var authPaths = []string{PathLogin, PathRefresh, PathLogout, PathMe}

// defaultRefreshTimeout bounds a shared refresh when the HTTP client has no timeout.
const defaultRefreshTimeout = 30 * time.Second

// RefreshFunc renews the cookie session. A nil error means the server issued
// fresh credentials.
type RefreshFunc func(ctx context.Context) error

// SetRefresher installs the function the interceptor calls on a 401.
// A nil fn disables the interceptor.
func (c *Client) SetRefresher(fn RefreshFunc) {
	if fn == nil {
		c.refresher.Store(nil)
		return
	}
	c.refresher.Store(&fn)
}

// intercepts reports whether a 401 on path may trigger a refresh. Auth
// endpoints never do, a failing refresh would otherwise refresh again.
func intercepts(path string) bool {
	for _, p := range authPaths {
		if strings.Contains(path, p) {
			return false
		}
	}

	return true
}

// tryRefresh runs the refresher. Concurrent callers share one refresh call.
// The shared call is detached from the caller that started it, so a cancelled
// caller does not fail the others. Each caller stops waiting when its own ctx ends.
func (c *Client) tryRefresh(ctx context.Context) bool {
	fn := c.refresher.Load()
	if fn == nil {
		return false
	}

	results := c.refreshes.DoChan("refresh", func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout())
		defer cancel()

		return nil, (*fn)(refreshCtx)
	})

	select {
	case <-ctx.Done():
		slogctx.Info(ctx, "Stopped waiting for the session refresh", "error", ctx.Err())
		return false
	case res := <-results:
		if res.Err != nil {
			slogctx.Info(ctx, "Could not refresh the session", "error", res.Err)
			return false
		}
		slogctx.Debug(ctx, "Refreshed the session", "shared", res.Shared)

		return true
	}
}

func (c *Client) refreshTimeout() time.Duration {
	if c.http != nil && c.http.Timeout > 0 {
		return c.http.Timeout
	}

	return defaultRefreshTimeout
}
