// Package cookies provides the cookie jar behind the API client. It keeps
// the server managed session cookies in memory and can persist them
// through a store, which is how a remembered session survives a restart.
// Cookie values are opaque to the client and are never logged.
package cookies

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

type record struct {
	URL      string `json:"url" yaml:"url"`
	Name     string `json:"name" yaml:"name"`
	Value    string `json:"value" yaml:"value"`
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Expires  int64  `json:"expires,omitempty" yaml:"expires,omitempty"` // unix seconds, 0 for a session cookie
	Secure   bool   `json:"secure,omitempty" yaml:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
}

func (r record) key() string {
	return r.Domain + ";" + r.Path + ";" + r.Name
}

func (r record) expired(now time.Time) bool {
	return r.Expires != 0 && now.Unix() >= r.Expires
}

func (r record) cookie() *http.Cookie {
	c := &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Path:     r.Path,
		Domain:   r.Domain,
		Secure:   r.Secure,
		HttpOnly: r.HTTPOnly,
	}
	if r.Expires != 0 {
		c.Expires = time.Unix(r.Expires, 0)
	}

	return c
}

// Jar is an http.CookieJar whose contents can be saved, loaded and cleared.
type Jar struct {
	store store.Store
	id    string
	now   func() time.Time

	mu      sync.Mutex
	inner   *cookiejar.Jar
	records map[string]record
}

var _ http.CookieJar = (*Jar)(nil)

// New creates an empty jar persisted under id, usually the API host.
func New(st store.Store, id string) (*Jar, error) {
	inner, err := newInner()
	if err != nil {
		return nil, err
	}

	return &Jar{
		store:   st,
		id:      id,
		now:     time.Now,
		inner:   inner,
		records: make(map[string]record),
	}, nil
}

func newInner() (*cookiejar.Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return inner, nil
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	now := j.now()
	for _, c := range cookies {
		rec := record{
			URL:      u.String(),
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		switch {
		case c.MaxAge < 0:
			delete(j.records, rec.key())
			continue
		case c.MaxAge > 0:
			rec.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
		case !c.Expires.IsZero():
			rec.Expires = c.Expires.Unix()
		}

		if rec.expired(now) || !j.accepted(u, c) {
			delete(j.records, rec.key())
			continue
		}
		j.records[rec.key()] = rec
	}
}

// accepted reports whether the inner jar kept c. It drops cookies set for a
// foreign domain or a public suffix. The caller holds mu.
func (j *Jar) accepted(u *url.URL, c *http.Cookie) bool {
	target := *u
	if c.Path != "" {
		target.Path = c.Path
	}
	if c.Secure {
		target.Scheme = "https"
	}

	for _, kept := range j.inner.Cookies(&target) {
		if kept.Name == c.Name && kept.Value == c.Value {
			return true
		}
	}

	return false
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.inner.Cookies(u)
}

// Len returns the number of live cookies held by the jar.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	n := 0
	for _, rec := range j.records {
		if !rec.expired(now) {
			n++
		}
	}

	return n
}

// Save persists the live cookies.
func (j *Jar) Save(ctx context.Context) error {
	j.mu.Lock()
	now := j.now()
	records := make([]record, 0, len(j.records))
	for _, rec := range j.records {
		if !rec.expired(now) {
			records = append(records, rec)
		}
	}
	j.mu.Unlock()

	if err := j.store.Set(ctx, store.ObjectTypeCookies, j.id, records, 0); err != nil {
		return fmt.Errorf("saving cookies: %w", err)
	}

	slogctx.Debug(ctx, "Saved session cookies", "count", len(records))

	return nil
}

// Load restores previously saved cookies. Having none saved is not an error.
func (j *Jar) Load(ctx context.Context) error {
	var records []record
	err := j.store.Get(ctx, store.ObjectTypeCookies, j.id, &records)
	if errors.Is(err, serviceerr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	loaded := 0
	for _, rec := range records {
		if rec.expired(now) {
			continue
		}
		u, err := url.Parse(rec.URL)
		if err != nil {
			slogctx.Warn(ctx, "Skipping a saved cookie with an invalid url", "name", rec.Name, "error", err)
			continue
		}
		c := rec.cookie()
		j.inner.SetCookies(u, []*http.Cookie{c})
		if !j.accepted(u, c) {
			continue
		}
		j.records[rec.key()] = rec
		loaded++
	}

	slogctx.Debug(ctx, "Loaded session cookies", "count", loaded)

	return nil
}

// Clear empties the jar and forgets the saved cookies.
func (j *Jar) Clear(ctx context.Context) error {
	inner, err := newInner()
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.inner = inner
	j.records = make(map[string]record)
	j.mu.Unlock()

	if err := j.store.Destroy(ctx, store.ObjectTypeCookies, j.id); err != nil {
		return fmt.Errorf("clearing saved cookies: %w", err)
	}

	return nil
}
