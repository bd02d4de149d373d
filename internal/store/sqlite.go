package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteCacheBackend keeps one cache entry per row using modernc.org/sqlite.
type SQLiteCacheBackend struct {
	db *sql.DB
}

// NewSQLiteCacheBackend opens a SQLite database at the given path and
// configures WAL mode.
func NewSQLiteCacheBackend(dsn string) (*SQLiteCacheBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteCacheBackend{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS coordinate_cache (
	seq   INTEGER PRIMARY KEY,
	entry TEXT NOT NULL
);
`

// Migrate creates the cache table.
func (s *SQLiteCacheBackend) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// ReadAll returns the entries in insertion order.
func (s *SQLiteCacheBackend) ReadAll(ctx context.Context) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT entry FROM coordinate_cache ORDER BY seq`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: read cache")
	}
	defer rows.Close() //nolint:errcheck

	var entries []json.RawMessage
	for rows.Next() {
		var entry string
		if err := rows.Scan(&entry); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan cache entry")
		}
		entries = append(entries, json.RawMessage(entry))
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: iterate cache")
}

// WriteAll replaces the table content inside a single transaction.
func (s *SQLiteCacheBackend) WriteAll(ctx context.Context, entries []json.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM coordinate_cache`); err != nil {
		return eris.Wrap(err, "sqlite: clear cache")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO coordinate_cache (seq, entry) VALUES (?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, entry := range entries {
		if _, err := stmt.ExecContext(ctx, i, string(entry)); err != nil {
			return eris.Wrapf(err, "sqlite: insert cache entry %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close closes the database.
func (s *SQLiteCacheBackend) Close() error {
	return s.db.Close()
}
