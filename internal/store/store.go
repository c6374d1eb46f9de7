// Package store defines the object storage used for everything the client
// keeps between runs: the remembered cookie jar, locally added products and
// the listing preferences.
package store

import (
	"context"
	"time"
)

// Object types known to the client.
const (
	ObjectTypeCookies     = "cookies"
	ObjectTypeProducts    = "products"
	ObjectTypePreferences = "preferences"
)

// Store persists JSON/YAML encodable objects addressed by type and id.
// Get returns serviceerr.ErrNotFound for a missing or expired object.
// Destroy of a missing object is not an error.
// A ttl <= 0 keeps the object until it is destroyed.
type Store interface {
	Get(ctx context.Context, objectType, id string, into any) error
	Set(ctx context.Context, objectType, id string, val any, ttl time.Duration) error
	Destroy(ctx context.Context, objectType, id string) error
}
