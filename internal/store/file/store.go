// Package storefile keeps objects as YAML documents on the local disk,
// one file per object under <dir>/<objectType>/<id>.yaml.
package storefile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/openkcm/catalog-client/internal/serviceerr"
	"github.com/openkcm/catalog-client/internal/store"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

type Store struct {
	dir string
	now func() time.Time
}

var _ = store.Store(&Store{})

type document struct {
	ExpiresAt int64 `yaml:"expiresAt,omitempty"` // unix nanoseconds
	Value     any   `yaml:"value"`
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Get(_ context.Context, objectType, id string, into any) error {
	path := s.path(objectType, id)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return serviceerr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading object file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshaling yaml document: %w", err)
	}

	if doc.ExpiresAt != 0 && s.now().UnixNano() >= doc.ExpiresAt {
		_ = os.Remove(path)
		return serviceerr.ErrNotFound
	}

	// The value is decoded generically first, so it is encoded once more
	// to land in the caller's type.
	value, err := yaml.Marshal(doc.Value)
	if err != nil {
		return fmt.Errorf("marshaling yaml value: %w", err)
	}
	if err := yaml.Unmarshal(value, into); err != nil {
		return fmt.Errorf("unmarshaling yaml value: %w", err)
	}

	return nil
}

// Set writes the object atomically. Nothing is written once ctx is done.
func (s *Store) Set(ctx context.Context, objectType, id string, val any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := document{Value: val}
	if ttl > 0 {
		doc.ExpiresAt = s.now().Add(ttl).UnixNano()
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling yaml document: %w", err)
	}

	path := s.path(objectType, id)
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing object file: %w", err)
	}

	return nil
}

func (s *Store) Destroy(ctx context.Context, objectType, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.path(objectType, id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing object file: %w", err)
	}

	return nil
}

func (s *Store) path(objectType, id string) string {
	return filepath.Join(s.dir, sanitize(objectType), sanitize(id)+".yaml")
}

// sanitize keeps ids such as hosts ("dummyjson.com:443") usable as file names.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
