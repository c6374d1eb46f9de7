package apiclient

import (
	"net/http"
	"net/url"
	"strings"
)

// CookieMode decides whether a request takes part in the cookie session.
type CookieMode int

const (
	// CookieInclude sends the jar's cookies and stores the ones the server sets.
	CookieInclude CookieMode = iota
	// CookieOmit neither sends nor stores cookies.
	CookieOmit
)

func (m CookieMode) String() string {
	switch m {
	case CookieInclude:
		return "include"
	case CookieOmit:
		return "omit"
	default:
		return "unknown"
	}
}

type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its Jar is ignored,
// cookies are handled per request through WithCookieJar.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient == nil {
			return
		}
		hc := *httpClient
		hc.Jar = nil
		c.http = &hc
	}
}

func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) { c.jar = jar }
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithStripPrefix removes prefix from request paths before they are resolved
// against the base URL. It lets "/api/products" reach a server that serves
// "/products", as a proxy in front of the API would.
func WithStripPrefix(prefix string) Option {
	return func(c *Client) { c.strip = strings.TrimSuffix(prefix, "/") }
}

// WithRefresher installs the function used by the refresh interceptor.
func WithRefresher(fn RefreshFunc) Option {
	return func(c *Client) { c.SetRefresher(fn) }
}

type RequestOption func(*request)

type request struct {
	cookies CookieMode
	header  http.Header
	query   url.Values
	retried bool
}

func newRequest(opts []RequestOption) request {
	r := request{cookies: CookieInclude, header: http.Header{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&r)
		}
	}

	return r
}

func WithCookies(mode CookieMode) RequestOption {
	return func(r *request) { r.cookies = mode }
}

func WithHeader(key, value string) RequestOption {
	return func(r *request) { r.header.Set(key, value) }
}

// WithQuery adds query parameters on top of any already present in the path.
func WithQuery(query url.Values) RequestOption {
	return func(r *request) { r.query = query }
}
