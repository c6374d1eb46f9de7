package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storefile "github.com/openkcm/catalog-client/internal/store/file"
)

func TestLocalProducts(t *testing.T) {
	ctx := t.Context()
	local := NewLocalProducts(storefile.NewStore(t.TempDir()))

	products, err := local.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	require.NoError(t, local.Add(ctx, Product{ID: -1, Title: "first", Price: 1.5, Category: CustomCategory}))
	require.NoError(t, local.Add(ctx, Product{ID: -2, Title: "second", Price: 2, Category: CustomCategory}))

	products, err = local.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, titles(products))
	assert.InDelta(t, 1.5, products[1].Price, 1e-9)

	require.NoError(t, local.Clear(ctx))
	products, err = local.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}
