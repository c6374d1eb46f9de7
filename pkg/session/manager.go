// Package session owns the client side view of who is signed in.
//
// A Manager starts in the loading state, resolves once through a who-am-i
// call, and afterwards changes only on Login and Logout. It is created and
// owned by whatever composes the application and may be handed down
// through a context.Context.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/serviceerr"
)

// AuthAPI is the remote side of the session.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (UserIdentity, error)
	Me(ctx context.Context) (UserIdentity, error)
	Logout(ctx context.Context) error
}

// CookiePersister keeps the session cookies across process restarts.
type CookiePersister interface {
	Save(ctx context.Context) error
	Clear(ctx context.Context) error
}

type Manager struct {
	api     AuthAPI
	cookies CookiePersister

	mu    sync.RWMutex
	state State

	bootstrap sync.Once
	ready     chan struct{}
}

type Option func(*Manager)

func WithCookiePersister(p CookiePersister) Option {
	return func(m *Manager) { m.cookies = p }
}

func NewManager(api AuthAPI, opts ...Option) *Manager {
	m := &Manager{
		api:   api,
		state: State{Loading: true},
		ready: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Bootstrap resolves the loading state with a who-am-i call. Only the first
// call does anything. A login or logout that completed in the meantime wins
// over the bootstrap result.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootstrap.Do(func() {
		defer close(m.ready)

		user, err := m.api.Me(ctx)

		m.mu.Lock()
		defer m.mu.Unlock()

		if !m.state.Loading {
			return
		}
		if err != nil {
			slogctx.Debug(ctx, "No active session", "error", err)
			m.state = State{}
			return
		}

		slogctx.Info(ctx, "Restored session", "user_id", user.ID)
		m.state = State{User: &user}
	})
}

// Wait blocks until Bootstrap has resolved or ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login signs in. On failure the state is left as it was and the error is
// returned to the caller.
func (m *Manager) Login(ctx context.Context, creds Credentials) (UserIdentity, error) {
	user, err := m.api.Login(ctx, creds)
	if err != nil {
		return UserIdentity{}, err
	}

	m.mu.Lock()
	m.state = State{User: &user, RememberMe: creds.RememberMe}
	m.mu.Unlock()

	slogctx.Info(ctx, "Signed in", "user_id", user.ID, "remember_me", creds.RememberMe)

	if creds.RememberMe && m.cookies != nil {
		if err := m.cookies.Save(ctx); err != nil {
			slogctx.Warn(ctx, "Could not remember the session", "error", err)
		}
	}

	return user, nil
}

// Logout always ends the local session. The remote logout is best effort.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Logout(ctx); err != nil {
		slogctx.Warn(ctx, "Remote logout failed", "error", err)
	}

	m.mu.Lock()
	m.state = State{}
	m.mu.Unlock()

	if m.cookies != nil {
		if err := m.cookies.Clear(ctx); err != nil {
			slogctx.Warn(ctx, "Could not forget the session cookies", "error", err)
		}
	}

	slogctx.Info(ctx, "Signed out")
}

// State returns a snapshot; the user is a copy.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.state
	if s.User != nil {
		u := *s.User
		s.User = &u
	}

	return s
}

func (m *Manager) Status() Status {
	return m.State().Status()
}

// User returns the signed in user, if any.
func (m *Manager) User() (UserIdentity, bool) {
	s := m.State()
	if s.User == nil {
		return UserIdentity{}, false
	}

	return *s.User, true
}

// Using an unexported type prevents key collisions from other packages.
type contextKey string

const managerKey contextKey = "session"

func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, managerKey, m)
}

func FromContext(ctx context.Context) (*Manager, error) {
	m, ok := ctx.Value(managerKey).(*Manager)
	if !ok || m == nil {
		return nil, errors.New("session manager not found in context")
	}

	return m, nil
}

// RequireUser returns the signed in user or an error wrapping
// serviceerr.ErrNotAuthenticated.
func (m *Manager) RequireUser() (UserIdentity, error) {
	user, ok := m.User()
	if !ok {
		return UserIdentity{}, fmt.Errorf("session is %s: %w", m.Status(), serviceerr.ErrNotAuthenticated)
	}

	return user, nil
}
