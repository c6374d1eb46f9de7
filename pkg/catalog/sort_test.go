package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
	storememory "github.com/openkcm/catalog-client/internal/store/memory"
)

func titles(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Title)
	}
	return out
}

func TestCompareValues(t *testing.T) {
	assert.Negative(t, CompareValues(2.5, 10.0, Asc))
	assert.Positive(t, CompareValues(2.5, 10.0, Desc))
	assert.Zero(t, CompareValues(3, 3, Asc))

	assert.Negative(t, CompareValues("apple", "Banana", Asc))
	assert.Positive(t, CompareValues("apple", "Banana", Desc))
	assert.Zero(t, CompareValues("Essence", "essence", Asc))
}

func TestSort(t *testing.T) {
	products := []Product{
		{ID: 1, Title: "mascara", Price: 9.99, Brand: "Essence", SKU: "B", Rating: 4.9},
		{ID: 2, Title: "Eyeshadow", Price: 19.99, Brand: "Glamour", SKU: "a", Rating: 3.1},
		{ID: 3, Title: "powder", Price: 14.99, Brand: "essence", SKU: "C", Rating: 4.9},
	}

	tests := []struct {
		name string
		sort SortState
		want []string
	}{
		{name: "title asc", sort: SortState{Key: SortByTitle, Direction: Asc}, want: []string{"Eyeshadow", "mascara", "powder"}},
		{name: "title desc", sort: SortState{Key: SortByTitle, Direction: Desc}, want: []string{"powder", "mascara", "Eyeshadow"}},
		{name: "price asc", sort: SortState{Key: SortByPrice, Direction: Asc}, want: []string{"mascara", "powder", "Eyeshadow"}},
		{name: "sku asc", sort: SortState{Key: SortBySKU, Direction: Asc}, want: []string{"Eyeshadow", "mascara", "powder"}},
		{name: "brand is stable", sort: SortState{Key: SortByBrand, Direction: Asc}, want: []string{"mascara", "powder", "Eyeshadow"}},
		{name: "rating desc is stable", sort: SortState{Key: SortByRating, Direction: Desc}, want: []string{"mascara", "powder", "Eyeshadow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sort(products, tt.sort)
			assert.Equal(t, tt.want, titles(got))
		})
	}

	assert.Equal(t, []string{"mascara", "Eyeshadow", "powder"}, titles(products), "input must not be reordered")
}

func TestSortState_Toggle(t *testing.T) {
	s := DefaultSort

	s = s.Toggle(SortByTitle)
	assert.Equal(t, SortState{Key: SortByTitle, Direction: Desc}, s)

	s = s.Toggle(SortByTitle)
	assert.Equal(t, SortState{Key: SortByTitle, Direction: Asc}, s)

	s = s.Toggle(SortByTitle).Toggle(SortByPrice)
	assert.Equal(t, SortState{Key: SortByPrice, Direction: Asc}, s)
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortState{Key: SortByPrice, Direction: Desc}, ParseSort("price", "desc"))
	assert.Equal(t, SortState{Key: SortByRating, Direction: Asc}, ParseSort("rating", "sideways"))
	assert.Equal(t, DefaultSort, ParseSort("", ""))
}

func TestLoadSaveSort(t *testing.T) {
	ctx := t.Context()

	t.Run("nothing saved", func(t *testing.T) {
		assert.Equal(t, DefaultSort, LoadSort(ctx, storememory.NewStore()))
	})

	t.Run("round trip", func(t *testing.T) {
		st := storememory.NewStore()
		want := SortState{Key: SortByRating, Direction: Desc}
		require.NoError(t, SaveSort(ctx, st, want))
		assert.Equal(t, want, LoadSort(ctx, st))
	})

	t.Run("invalid sort is not saved", func(t *testing.T) {
		st := storememory.NewStore()
		require.Error(t, SaveSort(ctx, st, SortState{Key: "color", Direction: Asc}))
		assert.Equal(t, DefaultSort, LoadSort(ctx, st))
	})

	t.Run("corrupt value is removed", func(t *testing.T) {
		st := storememory.NewStore()
		require.NoError(t, st.Set(ctx, store.ObjectTypePreferences, sortPreferenceID, "not a sort", 0))

		assert.Equal(t, DefaultSort, LoadSort(ctx, st))

		var raw any
		assert.ErrorIs(t, st.Get(ctx, store.ObjectTypePreferences, sortPreferenceID, &raw), serviceerr.ErrNotFound)
	})

	t.Run("unknown key is removed", func(t *testing.T) {
		st := storememory.NewStore()
		require.NoError(t, st.Set(ctx, store.ObjectTypePreferences, sortPreferenceID, map[string]string{"key": "color", "direction": "asc"}, 0))

		assert.Equal(t, DefaultSort, LoadSort(ctx, st))

		var raw any
		assert.ErrorIs(t, st.Get(ctx, store.ObjectTypePreferences, sortPreferenceID, &raw), serviceerr.ErrNotFound)
	})
}
