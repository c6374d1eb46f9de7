package session

import (
	"strings"

	"github.com/openkcm/catalog-client/internal/serviceerr"
)

// UserIdentity is the snapshot of the signed in user returned by the API.
type UserIdentity struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Image     string `json:"image,omitempty"`
}

func (u UserIdentity) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credentials are passed to Login and never stored.
type Credentials struct {
	Username   string
	Password   string
	RememberMe bool
}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range []string{"username", "password"} {
		if msg, ok := fe[field]; ok {
			parts = append(parts, field+": "+msg)
		}
	}

	return serviceerr.ErrInvalidCredentials.Error() + ": " + strings.Join(parts, ", ")
}

func (fe FieldErrors) Unwrap() error {
	return serviceerr.ErrInvalidCredentials
}

// Validate reports blank fields before any request is made.
func (c Credentials) Validate() error {
	errs := FieldErrors{}
	if strings.TrimSpace(c.Username) == "" {
		errs["username"] = "enter a username"
	}
	if strings.TrimSpace(c.Password) == "" {
		errs["password"] = "enter a password"
	}
	if len(errs) > 0 {
		return errs
	}

	return nil
}

type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is what consumers see of the session.
type State struct {
	User       *UserIdentity
	RememberMe bool
	Loading    bool
}

func (s State) Status() Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.User != nil:
		return StatusAuthenticated
	default:
		return StatusAnonymous
	}
}
