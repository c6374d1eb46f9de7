package storevalkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

type Store struct {
	valkey valkey.Client
	prefix string
}

var _ = store.Store(&Store{})

func NewStore(valkeyClient valkey.Client, prefix string) *Store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &Store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *Store) Get(ctx context.Context, objectType, objectID string, decodeInto any) error {
	key := s.key(objectType, objectID)

	bytes, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return errors.Join(valkeyErr, serviceerr.ErrNotFound)
		}

		return fmt.Errorf("executing get command: %w", err)
	}

	if err := json.Unmarshal(bytes, decodeInto); err != nil {
		return fmt.Errorf("unmarshaling json: %w", err)
	}

	return nil
}

func (s *Store) Set(ctx context.Context, objectType, objectID string, val any, ttl time.Duration) error {
	key := s.key(objectType, objectID)
	bytes, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	cmd := s.valkey.B().Set().Key(key).Value(valkey.BinaryString(bytes)).Build()
	if ttl > 0 {
		seconds := max(int64(ttl/time.Second), 1)
		cmd = s.valkey.B().Set().Key(key).Value(valkey.BinaryString(bytes)).ExSeconds(seconds).Build()
	}

	if err := s.valkey.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *Store) Destroy(ctx context.Context, objectType, objectID string) error {
	key := s.key(objectType, objectID)
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *Store) key(objectType, objectID string) string {
	if s.prefix == "" {
		return fmt.Sprintf("%s:%s", objectType, objectID)
	}

	return fmt.Sprintf("%s:%s:%s", s.prefix, objectType, objectID)
}
