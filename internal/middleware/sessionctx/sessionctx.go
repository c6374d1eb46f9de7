// Package sessionctx injects the session manager into the context of
// local requests and guards the endpoints that need a signed in user.
package sessionctx

import (
	"net/http"

	"github.com/openkcm/catalog-client/pkg/session"
)

// ErrorWriter writes err as the response to r.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// SessionMiddleware is an http.Handler middleware that injects m into the
// request context for later handlers to access with session.FromContext.
func SessionMiddleware(m *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := session.NewContext(r.Context(), m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser passes the request on only once the session resolved to a
// signed in user. Requests arriving during the bootstrap wait for it.
func RequireUser(onError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, err := session.FromContext(r.Context())
			if err != nil {
				onError(w, r, err)
				return
			}

			if err := m.Wait(r.Context()); err != nil {
				onError(w, r, err)
				return
			}

			if _, err := m.RequireUser(); err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
