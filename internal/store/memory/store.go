// Package storememory keeps objects in process memory. Nothing survives a
// restart, which makes it the backend for tests and for `serve` sessions
// that must not touch the disk.
package storememory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

const cleanupInterval = 10 * time.Minute

type Store struct {
	cache *cache.Cache
}

var _ = store.Store(&Store{})

func NewStore() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (s *Store) Get(_ context.Context, objectType, id string, into any) error {
	v, ok := s.cache.Get(key(objectType, id))
	if !ok {
		return serviceerr.ErrNotFound
	}

	//nolint:forcetypeassert
	if err := json.Unmarshal(v.([]byte), into); err != nil {
		return fmt.Errorf("unmarshaling json: %w", err)
	}

	return nil
}

func (s *Store) Set(_ context.Context, objectType, id string, val any, ttl time.Duration) error {
	bytes, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	s.cache.Set(key(objectType, id), bytes, ttl)

	return nil
}

func (s *Store) Destroy(_ context.Context, objectType, id string) error {
	s.cache.Delete(key(objectType, id))
	return nil
}

func key(objectType, id string) string {
	return objectType + ":" + id
}
