package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/config"
)

func newTestSQLiteBackend(t *testing.T) CacheBackend {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	b, err := NewSQLiteCacheBackend(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() }) //nolint:errcheck
	require.NoError(t, b.Migrate(context.Background()))
	return b
}

func newTestFileBackend(t *testing.T) CacheBackend {
	t.Helper()
	return NewFileCacheBackend(filepath.Join(t.TempDir(), "cache", "coordinate.json"))
}

func backendTestSuite(t *testing.T, newBackend func(t *testing.T) CacheBackend) {
	t.Run("EmptyOnFirstRead", func(t *testing.T) {
		b := newBackend(t)
		entries, err := b.ReadAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("WriteThenReadPreservesOrder", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		in := []json.RawMessage{
			json.RawMessage(`{"poi":{"country":"France"},"coordinate":{"latitude":46.6,"longitude":1.9},"timestamp":"2025-01-01T00:00:00Z"}`),
			json.RawMessage(`{"poi":{"city":"Paris"},"coordinate":{"latitude":48.8,"longitude":2.3},"timestamp":"2025-01-02T00:00:00Z"}`),
			json.RawMessage(`{"poi":{"city":"Zürich"},"coordinate":{"latitude":47.3,"longitude":8.5},"timestamp":"2025-01-03T00:00:00Z"}`),
		}
		require.NoError(t, b.WriteAll(ctx, in))

		out, err := b.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, out, 3)
		for i := range in {
			assert.JSONEq(t, string(in[i]), string(out[i]))
		}
	})

	t.Run("WriteReplacesPreviousContent", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.WriteAll(ctx, []json.RawMessage{
			json.RawMessage(`{"n":1}`),
			json.RawMessage(`{"n":2}`),
		}))
		require.NoError(t, b.WriteAll(ctx, []json.RawMessage{json.RawMessage(`{"n":3}`)}))

		out, err := b.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.JSONEq(t, `{"n":3}`, string(out[0]))
	})

	t.Run("WriteEmpty", func(t *testing.T) {
		b := newBackend(t)
		ctx := context.Background()

		require.NoError(t, b.WriteAll(ctx, []json.RawMessage{json.RawMessage(`{"n":1}`)}))
		require.NoError(t, b.WriteAll(ctx, nil))

		out, err := b.ReadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestFileCacheBackend_Contract(t *testing.T) {
	backendTestSuite(t, newTestFileBackend)
}

func TestSQLiteCacheBackend_Contract(t *testing.T) {
	backendTestSuite(t, newTestSQLiteBackend)
}

func TestOpenCacheBackend_File(t *testing.T) {
	b, err := OpenCacheBackend(context.Background(), config.CacheConfig{
		Driver: config.DriverFile,
		Path:   filepath.Join(t.TempDir(), "coordinate.json"),
	})
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck
	assert.IsType(t, &FileCacheBackend{}, b)
}

func TestOpenCacheBackend_SQLite(t *testing.T) {
	b, err := OpenCacheBackend(context.Background(), config.CacheConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "cache.db"),
	})
	require.NoError(t, err)
	defer b.Close() //nolint:errcheck
	assert.IsType(t, &SQLiteCacheBackend{}, b)

	entries, err := b.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenCacheBackend_UnknownDriver(t *testing.T) {
	_, err := OpenCacheBackend(context.Background(), config.CacheConfig{Driver: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache driver")
}
