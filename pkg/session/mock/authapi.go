package sessionmock

import (
	"context"
	"sync"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/pkg/session"
)

type AuthAPIOption func(*AuthAPI)

// AuthAPI is an in-memory session.AuthAPI. Login accepts the configured
// user's username with any password unless an error is configured.
type AuthAPI struct {
	mu sync.Mutex

	user     *session.UserIdentity
	loggedIn bool

	loginErr, meErr, logoutErr error
	meHook                     func()

	LoginCalls  []session.Credentials
	MeCalls     int
	LogoutCalls int
}

var _ = session.AuthAPI(&AuthAPI{})

func WithUser(user session.UserIdentity) AuthAPIOption {
	return func(a *AuthAPI) { a.user = &user }
}

// WithActiveSession makes Me succeed before any Login.
func WithActiveSession() AuthAPIOption {
	return func(a *AuthAPI) { a.loggedIn = true }
}
func WithLoginError(err error) AuthAPIOption {
	return func(a *AuthAPI) { a.loginErr = err }
}
func WithMeError(err error) AuthAPIOption {
	return func(a *AuthAPI) { a.meErr = err }
}
func WithLogoutError(err error) AuthAPIOption {
	return func(a *AuthAPI) { a.logoutErr = err }
}

// WithMeHook runs fn inside Me before it answers.
func WithMeHook(fn func()) AuthAPIOption {
	return func(a *AuthAPI) { a.meHook = fn }
}

func NewAuthAPI(opts ...AuthAPIOption) *AuthAPI {
	a := &AuthAPI{}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *AuthAPI) Login(_ context.Context, creds session.Credentials) (session.UserIdentity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.LoginCalls = append(a.LoginCalls, creds)
	if a.loginErr != nil {
		return session.UserIdentity{}, a.loginErr
	}
	if a.user == nil || a.user.Username != creds.Username {
		return session.UserIdentity{}, serviceerr.ErrInvalidCredentials
	}

	a.loggedIn = true
	return *a.user, nil
}

func (a *AuthAPI) Me(_ context.Context) (session.UserIdentity, error) {
	if a.meHook != nil {
		a.meHook()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.MeCalls++
	if a.meErr != nil {
		return session.UserIdentity{}, a.meErr
	}
	if !a.loggedIn || a.user == nil {
		return session.UserIdentity{}, serviceerr.ErrNotAuthenticated
	}
	return *a.user, nil
}

func (a *AuthAPI) Logout(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.LogoutCalls++
	a.loggedIn = false
	return a.logoutErr
}

// CookiePersister records Save and Clear calls.
type CookiePersister struct {
	mu sync.Mutex

	SaveErr, ClearErr error
	Saves, Clears     int
}

var _ = session.CookiePersister(&CookiePersister{})

func (p *CookiePersister) Save(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Saves++
	return p.SaveErr
}

func (p *CookiePersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Clears++
	return p.ClearErr
}
