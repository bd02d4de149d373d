package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// FileCacheBackend keeps the cache as a single JSON array on disk.
type FileCacheBackend struct {
	path string
}

// NewFileCacheBackend returns a backend reading and writing path. The file
// and its directory are created on the first write.
func NewFileCacheBackend(path string) *FileCacheBackend {
	return &FileCacheBackend{path: path}
}

// ReadAll returns the raw entries of the array. A missing or empty file is an
// empty cache; a document that is not a JSON array is an error.
func (b *FileCacheBackend) ReadAll(_ context.Context) ([]json.RawMessage, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read cache file %s", b.path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "store: decode cache file %s", b.path)
	}
	return entries, nil
}

// WriteAll serializes entries as an indented JSON array and swaps it into
// place with a rename.
func (b *FileCacheBackend) WriteAll(_ context.Context, entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	data, err := marshalIndent(entries)
	if err != nil {
		return eris.Wrap(err, "store: encode cache")
	}
	return writeFileAtomic(b.path, data)
}

// Close is a no-op.
func (b *FileCacheBackend) Close() error { return nil }

func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to a temp file next to path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "store: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: chmod %s", tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "store: sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "store: rename to %s", path)
	}
	return nil
}
