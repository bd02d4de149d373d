package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/worldnewsmap/newsgeo/internal/db"
	"github.com/worldnewsmap/newsgeo/internal/resilience"
)

// PostgresCacheBackend keeps one cache entry per JSONB row.
type PostgresCacheBackend struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.RetryConfig
}

// NewPostgresCacheBackend creates a backend with a small connection pool.
// The cache is written by a single process, so the pool stays small.
func NewPostgresCacheBackend(ctx context.Context, connString string) (*PostgresCacheBackend, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresCacheBackend{
		pool:    pool,
		closeFn: pool.Close,
		retry:   defaultPostgresRetry(),
	}, nil
}

func defaultPostgresRetry() resilience.RetryConfig {
	cfg := resilience.Exponential(3, 200*time.Millisecond, 2*time.Second)
	cfg.OnRetry = resilience.RetryLogger("postgres", "write cache")
	return cfg
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS coordinate_cache (
	seq   INTEGER PRIMARY KEY,
	entry JSONB NOT NULL
);
`

var cacheColumns = []string{"seq", "entry"}

// Migrate creates the cache table.
func (s *PostgresCacheBackend) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// ReadAll returns the entries in insertion order.
func (s *PostgresCacheBackend) ReadAll(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx, `SELECT entry::text FROM coordinate_cache ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: read cache")
	}
	defer rows.Close()

	var entries []json.RawMessage
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, eris.Wrap(err, "postgres: scan cache entry")
		}
		entries = append(entries, json.RawMessage(entry))
	}
	return entries, eris.Wrap(rows.Err(), "postgres: iterate cache")
}

// WriteAll replaces the table content in one transaction, retrying the
// whole transaction on transient connection errors.
func (s *PostgresCacheBackend) WriteAll(ctx context.Context, entries []json.RawMessage) error {
	rows := make([][]any, len(entries))
	for i, entry := range entries {
		rows[i] = []any{int32(i), entry}
	}

	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM coordinate_cache`); err != nil {
				return eris.Wrap(err, "postgres: clear cache")
			}
			if _, err := db.CopyFrom(ctx, tx, "coordinate_cache", cacheColumns, rows); err != nil {
				return eris.Wrap(err, "postgres: insert cache entries")
			}
			return nil
		})
	})
}

// Close releases the pool.
func (s *PostgresCacheBackend) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
