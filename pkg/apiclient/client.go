package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/serviceerr"
)

const (
	headerContentType = "Content-Type"
	headerRequestID   = "X-Request-ID"
	mimeJSON          = "application/json"

	maxBodySize = 10 << 20
)

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	jar       http.CookieJar
	userAgent string
	strip     string

	refresher atomic.Pointer[RefreshFunc]
	refreshes singleflight.Group
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// BaseURL returns the API root every path is resolved against.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Send performs a request and returns the parsed response body.
func (c *Client) Send(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	return c.send(ctx, method, path, payload, newRequest(opts))
}

// Get sends a GET request and decodes the response into out, if out is not nil.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	data, err := c.Send(ctx, http.MethodGet, path, nil, opts...)
	if err != nil {
		return err
	}

	return decode(data, out)
}

// Post sends a POST request with in as the JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...RequestOption) error {
	data, err := c.Send(ctx, http.MethodPost, path, in, opts...)
	if err != nil {
		return err
	}

	return decode(data, out)
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, r request) (json.RawMessage, error) {
	status, data, err := c.do(ctx, method, path, payload, r)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && !r.retried && intercepts(path) {
		if c.tryRefresh(ctx) {
			r.retried = true
			return c.send(ctx, method, path, payload, r)
		}
	}

	if status < 200 || status > 299 {
		return nil, newRequestError(method, path, status, data)
	}

	return data, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, r request) (int, json.RawMessage, error) {
	u, err := c.resolve(path, r.query)
	if err != nil {
		return 0, nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if req.Header.Get(headerContentType) == "" && method != http.MethodGet && method != http.MethodHead {
		req.Header.Set(headerContentType, mimeJSON)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", mimeJSON)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)

	if r.cookies == CookieInclude && c.jar != nil {
		for _, cookie := range c.jar.Cookies(u) {
			req.AddCookie(cookie)
		}
	}

	ctx = slogctx.With(ctx, "request_id", requestID, "method", method, "path", path)
	slogctx.Debug(ctx, "Sending API request", "cookies", r.cookies.String(), "retried", r.retried)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		slogctx.Debug(ctx, "API request failed", "error", err)
		return 0, nil, &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if r.cookies == CookieInclude && c.jar != nil {
		if cookies := resp.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(u, cookies)
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, &NetworkError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	slogctx.Debug(ctx, "API request finished", "status", resp.StatusCode, "duration", time.Since(start))

	return resp.StatusCode, parseBody(raw), nil
}

func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parsing request path: %w", err)
	}

	reqPath := ref.Path
	if c.strip != "" {
		if rest, ok := strings.CutPrefix(reqPath, c.strip); ok && (rest == "" || rest[0] == '/') {
			reqPath = "/" + strings.TrimPrefix(rest, "/")
		}
	}

	u := c.baseURL.JoinPath(reqPath)
	q := ref.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	return u, nil
}

// parseBody returns nil for an empty or non-JSON body.
func parseBody(raw []byte) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !json.Valid(raw) {
		return nil
	}

	return json.RawMessage(raw)
}

func decode(data json.RawMessage, out any) error {
	if out == nil || data == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(serviceerr.ErrUnexpectedBody, err)
	}

	return nil
}
