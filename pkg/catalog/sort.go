package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

type SortKey string

const (
	SortByTitle  SortKey = "title"
	SortByPrice  SortKey = "price"
	SortByBrand  SortKey = "brand"
	SortBySKU    SortKey = "sku"
	SortByRating SortKey = "rating"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByTitle, SortByPrice, SortByBrand, SortBySKU, SortByRating:
		return true
	default:
		return false
	}
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func (d Direction) Valid() bool {
	return d == Asc || d == Desc
}

type SortState struct {
	Key       SortKey   `json:"key" yaml:"key"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultSort is used when nothing valid was saved.
var DefaultSort = SortState{Key: SortByTitle, Direction: Asc}

func (s SortState) Valid() bool {
	return s.Key.Valid() && s.Direction.Valid()
}

// Toggle returns the state after selecting key: the same key flips the
// direction, another key starts ascending.
func (s SortState) Toggle(key SortKey) SortState {
	if s.Key == key {
		if s.Direction == Asc {
			return SortState{Key: key, Direction: Desc}
		}
		return SortState{Key: key, Direction: Asc}
	}

	return SortState{Key: key, Direction: Asc}
}

// ParseSort reads a key and direction, falling back per field to the default.
func ParseSort(key, dir string) SortState {
	s := DefaultSort
	if k := SortKey(key); k.Valid() {
		s.Key = k
	}
	if d := Direction(dir); d.Valid() {
		s.Direction = d
	}

	return s
}

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und, collate.IgnoreCase)
)

func compareText(a, b string) int {
	collatorMu.Lock()
	defer collatorMu.Unlock()

	return collator.CompareString(a, b)
}

// CompareValues orders numbers numerically and text case-insensitively.
func CompareValues[T string | float64 | int](a, b T, dir Direction) int {
	var c int
	if as, ok := any(a).(string); ok {
		c = compareText(as, any(b).(string)) //nolint:forcetypeassert
	} else {
		c = cmp.Compare(a, b)
	}

	if dir == Desc {
		return -c
	}

	return c
}

// Compare orders two products by the sorted column.
func Compare(a, b Product, s SortState) int {
	switch s.Key {
	case SortByPrice:
		return CompareValues(a.Price, b.Price, s.Direction)
	case SortByBrand:
		return CompareValues(a.Brand, b.Brand, s.Direction)
	case SortBySKU:
		return CompareValues(a.SKU, b.SKU, s.Direction)
	case SortByRating:
		return CompareValues(a.Rating, b.Rating, s.Direction)
	default:
		return CompareValues(a.Title, b.Title, s.Direction)
	}
}

// Sort returns a sorted copy; equal products keep their order.
func Sort(products []Product, s SortState) []Product {
	out := slices.Clone(products)
	slices.SortStableFunc(out, func(a, b Product) int {
		return Compare(a, b, s)
	})

	return out
}

const sortPreferenceID = "sort"

// LoadSort returns the saved sort. A missing or unusable value yields the
// default and an unusable one is removed.
func LoadSort(ctx context.Context, st store.Store) SortState {
	var s SortState
	err := st.Get(ctx, store.ObjectTypePreferences, sortPreferenceID, &s)
	switch {
	case errors.Is(err, serviceerr.ErrNotFound):
		return DefaultSort
	case err == nil && s.Valid():
		return s
	}

	slogctx.Warn(ctx, "Discarding saved sort preference", "error", err, "key", s.Key, "direction", s.Direction)
	if err := st.Destroy(ctx, store.ObjectTypePreferences, sortPreferenceID); err != nil {
		slogctx.Warn(ctx, "Failed to remove sort preference", "error", err)
	}

	return DefaultSort
}

func SaveSort(ctx context.Context, st store.Store, s SortState) error {
	if !s.Valid() {
		return fmt.Errorf("invalid sort %q %q", s.Key, s.Direction)
	}
	if err := st.Set(ctx, store.ObjectTypePreferences, sortPreferenceID, s, 0); err != nil {
		return fmt.Errorf("saving sort preference: %w", err)
	}

	return nil
}
