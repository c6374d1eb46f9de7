package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

const localProductsID = "local"

// LocalProducts keeps the products added on this client, newest first.
// They are never sent to the server.
type LocalProducts struct {
	store store.Store

	mu sync.Mutex
}

func NewLocalProducts(st store.Store) *LocalProducts {
	return &LocalProducts{store: st}
}

func (l *LocalProducts) List(ctx context.Context) ([]Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.list(ctx)
}

func (l *LocalProducts) list(ctx context.Context) ([]Product, error) {
	var products []Product
	err := l.store.Get(ctx, store.ObjectTypeProducts, localProductsID, &products)
	if errors.Is(err, serviceerr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading local products: %w", err)
	}

	return products, nil
}

// Add puts p in front of the stored products.
func (l *LocalProducts) Add(ctx context.Context, p Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	products, err := l.list(ctx)
	if err != nil {
		return err
	}

	products = append([]Product{p}, products...)
	if err := l.store.Set(ctx, store.ObjectTypeProducts, localProductsID, products, 0); err != nil {
		return fmt.Errorf("saving local products: %w", err)
	}

	return nil
}

func (l *LocalProducts) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Destroy(ctx, store.ObjectTypeProducts, localProductsID); err != nil {
		return fmt.Errorf("clearing local products: %w", err)
	}

	return nil
}
