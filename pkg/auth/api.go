// Package auth calls the authentication endpoints of the catalog API.
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openkcm/catalog-client/pkg/apiclient"
	"github.com/openkcm/catalog-client/pkg/session"
)

// DefaultExpiresInMins keeps the access window short; the refresh
// interceptor renews it transparently.
const DefaultExpiresInMins = 15

type API struct {
	client        *apiclient.Client
	expiresInMins int
}

var _ = session.AuthAPI(&API{})

type Option func(*API)

func WithExpiresInMins(mins int) Option {
	return func(a *API) {
		if mins > 0 {
			a.expiresInMins = mins
		}
	}
}

// New creates the API and installs its Refresh as the client's refresher.
func New(client *apiclient.Client, opts ...Option) *API {
	a := &API{
		client:        client,
		expiresInMins: DefaultExpiresInMins,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	client.SetRefresher(a.Refresh)

	return a
}

type loginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins int    `json:"expiresInMins"`
}

type refreshRequest struct {
	ExpiresInMins int `json:"expiresInMins,omitempty"`
}

// Login signs in. Cookies are only kept when the user asked to be remembered.
func (a *API) Login(ctx context.Context, creds session.Credentials) (session.UserIdentity, error) {
	mode := apiclient.CookieOmit
	if creds.RememberMe {
		mode = apiclient.CookieInclude
	}

	var user session.UserIdentity
	err := a.client.Post(ctx, apiclient.PathLogin, loginRequest{
		Username:      creds.Username,
		Password:      creds.Password,
		ExpiresInMins: a.expiresInMins,
	}, &user, apiclient.WithCookies(mode))
	if err != nil {
		return session.UserIdentity{}, fmt.Errorf("logging in: %w", err)
	}

	return user, nil
}

// Me returns the user the current cookies belong to.
func (a *API) Me(ctx context.Context) (session.UserIdentity, error) {
	var user session.UserIdentity
	if err := a.client.Get(ctx, apiclient.PathMe, &user, apiclient.WithCookies(apiclient.CookieInclude)); err != nil {
		return session.UserIdentity{}, fmt.Errorf("getting current user: %w", err)
	}

	return user, nil
}

// Refresh asks the server to renew the session cookies.
func (a *API) Refresh(ctx context.Context) error {
	err := a.client.Post(ctx, apiclient.PathRefresh, refreshRequest{
		ExpiresInMins: a.expiresInMins,
	}, nil, apiclient.WithCookies(apiclient.CookieInclude))
	if err != nil {
		return fmt.Errorf("refreshing session: %w", err)
	}

	return nil
}

func (a *API) Logout(ctx context.Context) error {
	if _, err := a.client.Send(ctx, http.MethodPost, apiclient.PathLogout, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}

	return nil
}
