package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
)

// ErrSuperseded is returned by Listing.Load when a newer load started
// before this one finished. Its result was discarded.
var ErrSuperseded = errors.New("superseded by a newer load")

// Listing is the state of the product list: the search text, the current
// page, the sort and the locally added products.
type Listing struct {
	fetcher Fetcher
	size    int

	mu      sync.Mutex
	search  string
	page    int
	sort    SortState
	local   []Product
	remote  []Product
	total   int
	loaded  bool
	loading bool
	err     error
	gen     uint64
}

type ListingOption func(*Listing)

func WithPageSize(size int) ListingOption {
	return func(l *Listing) {
		if size > 0 {
			l.size = size
		}
	}
}

func WithSort(s SortState) ListingOption {
	return func(l *Listing) {
		if s.Valid() {
			l.sort = s
		}
	}
}

// WithLocalProducts seeds the local products, newest first.
func WithLocalProducts(products []Product) ListingOption {
	return func(l *Listing) {
		l.local = slices.Clone(products)
	}
}

func NewListing(fetcher Fetcher, opts ...ListingOption) *Listing {
	l := &Listing{
		fetcher: fetcher,
		size:    DefaultPageSize,
		page:    1,
		sort:    DefaultSort,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// SetSearch changes the search text and goes back to the first page.
func (l *Listing) SetSearch(search string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.search = search
	l.page = 1
}

// SetPage moves to page. Once a page was loaded, only pages that exist
// are accepted.
func (l *Listing) SetPage(page int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if page < 1 || (l.loaded && !ValidPage(page, TotalPages(l.total, l.size))) {
		return false
	}
	l.page = page

	return true
}

func (l *Listing) SetSort(s SortState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s.Valid() {
		l.sort = s
	}
}

// ToggleSort applies SortState.Toggle and returns the new state.
func (l *Listing) ToggleSort(key SortKey) SortState {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sort = l.sort.Toggle(key)

	return l.sort
}

// AddLocal shows p on top of the list.
func (l *Listing) AddLocal(p Product) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.local = append([]Product{p}, l.local...)
}

// Load fetches the current page. The result of a load is discarded when
// another load started in the meantime, and ErrSuperseded is returned.
func (l *Listing) Load(ctx context.Context) error {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	q := Query{
		Search: strings.TrimSpace(l.search),
		Skip:   Skip(l.page, l.size),
		Limit:  l.size,
	}
	l.loading = true
	l.err = nil
	l.mu.Unlock()

	page, err := l.fetcher.Fetch(ctx, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		return ErrSuperseded
	}

	l.loading = false
	if err != nil {
		l.err = err
		return err
	}

	l.remote = page.Products
	l.total = page.Total
	l.loaded = true

	return nil
}

// Rows returns the local products followed by the remote page, sorted.
func (l *Listing) Rows() []Product {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.rows()
}

func (l *Listing) rows() []Product {
	all := make([]Product, 0, len(l.local)+len(l.remote))
	all = append(all, l.local...)
	all = append(all, l.remote...)

	return Sort(all, l.sort)
}

// View is a consistent snapshot of a Listing.
type View struct {
	Search     string    `json:"search"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
	Total      int       `json:"total"`
	First      int       `json:"first"`
	Last       int       `json:"last"`
	Pages      []int     `json:"pages"`
	Sort       SortState `json:"sort"`
	Rows       []Product `json:"rows"`
	Loading    bool      `json:"loading"`
	Error      string    `json:"error,omitempty"`
}

func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	totalPages := TotalPages(l.total, l.size)
	first, last := PageRange(l.page, l.size, l.total)
	v := View{
		Search:     l.search,
		Page:       l.page,
		PageSize:   l.size,
		TotalPages: totalPages,
		Total:      l.total,
		First:      first,
		Last:       last,
		Pages:      PageWindow(l.page, totalPages),
		Sort:       l.sort,
		Rows:       l.rows(),
		Loading:    l.loading,
	}
	if l.err != nil {
		v.Error = l.err.Error()
	}

	return v
}
