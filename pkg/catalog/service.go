package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/pkg/apiclient"
)

const (
	PathProducts       = "/api/products"
	PathProductsSearch = "/api/products/search"

	DefaultPageSize = 5
	DefaultCacheTTL = 30 * time.Second
)

// Query selects one page of products. Search is matched by the server.
type Query struct {
	Search string
	Skip   int
	Limit  int
}

func (q Query) normalize() Query {
	q.Search = strings.TrimSpace(q.Search)
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Skip < 0 {
		q.Skip = 0
	}

	return q
}

func (q Query) cacheKey() string {
	return fmt.Sprintf("%s|%d|%d", q.Search, q.Skip, q.Limit)
}

// Fetcher is implemented by Service.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (ProductsPage, error)
}

type Service struct {
	client *apiclient.Client
	pages  *cache.Cache
}

var _ = Fetcher(&Service{})

type ServiceOption func(*Service)

// WithCacheTTL keeps fetched pages for ttl. A ttl <= 0 disables caching.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl <= 0 {
			s.pages = nil
			return
		}
		s.pages = cache.New(ttl, 2*ttl)
	}
}

func NewService(client *apiclient.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client: client,
		pages:  cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

func (s *Service) Fetch(ctx context.Context, q Query) (ProductsPage, error) {
	q = q.normalize()
	key := q.cacheKey()

	if s.pages != nil {
		if v, ok := s.pages.Get(key); ok {
			slogctx.Debug(ctx, "Products page served from cache", "search", q.Search, "skip", q.Skip)
			return v.(ProductsPage), nil //nolint:forcetypeassert
		}
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(q.Limit))
	query.Set("skip", strconv.Itoa(q.Skip))

	path := PathProducts
	if q.Search != "" {
		query.Set("q", q.Search)
		path = PathProductsSearch
	}

	var page ProductsPage
	if err := s.client.Get(ctx, path, &page, apiclient.WithQuery(query)); err != nil {
		return ProductsPage{}, fmt.Errorf("fetching products: %w", err)
	}

	if s.pages != nil {
		s.pages.SetDefault(key, page)
	}

	return page, nil
}

// Invalidate drops every cached page so the next fetch hits the server.
func (s *Service) Invalidate() {
	if s.pages != nil {
		s.pages.Flush()
	}
}
