// Package store persists the coordinate cache and the per-date record files.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/worldnewsmap/newsgeo/internal/config"
)

// CacheBackend stores the serialized coordinate cache as an ordered list of
// raw JSON entries. WriteAll replaces the whole content atomically; readers
// never observe a partial write.
type CacheBackend interface {
	ReadAll(ctx context.Context) ([]json.RawMessage, error)
	WriteAll(ctx context.Context, entries []json.RawMessage) error
	Close() error
}

// OpenCacheBackend creates the backend selected by cfg.Driver and applies
// its schema where one is needed.
func OpenCacheBackend(ctx context.Context, cfg config.CacheConfig) (CacheBackend, error) {
	switch cfg.Driver {
	case "", config.DriverFile:
		return NewFileCacheBackend(cfg.Path), nil
	case config.DriverSQLite:
		b, err := NewSQLiteCacheBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			b.Close() //nolint:errcheck
			return nil, err
		}
		return b, nil
	case config.DriverPostgres:
		b, err := NewPostgresCacheBackend(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := b.Migrate(ctx); err != nil {
			b.Close() //nolint:errcheck
			return nil, err
		}
		return b, nil
	default:
		return nil, eris.Errorf("store: unknown cache driver %q", cfg.Driver)
	}
}
