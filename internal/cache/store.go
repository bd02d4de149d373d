// Package cache implements the persistent POI to coordinate cache used by
// the resolution engine.
package cache

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

// MinExpirationDays is the shortest retention the cache accepts.
const MinExpirationDays = 7

// ExpirationDays applies the retention floor to a configured value.
func ExpirationDays(days int) int {
	return max(days, MinExpirationDays)
}

// Observer receives cache activity. monitoring.Metrics implements it.
type Observer interface {
	CacheLookup(hit bool)
	CacheSize(n int)
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver reports lookups and size changes to o.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store is the in-memory entry set backed by a store.CacheBackend. Every
// mutation is written through to the backend. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	backend  store.CacheBackend
	entries  []model.CacheEntry
	maxAge   time.Duration
	now      func() time.Time
	observer Observer
}

// New returns an empty store. Most callers want Open.
func New(backend store.CacheBackend, expirationDays int, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		maxAge:  time.Duration(ExpirationDays(expirationDays)) * 24 * time.Hour,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open constructs a store, loads it from the backend and sweeps expired
// entries.
func Open(ctx context.Context, backend store.CacheBackend, expirationDays int, opts ...Option) (*Store, error) {
	s := New(backend, expirationDays, opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	if _, err := s.Clean(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replaces the in-memory set with the backend content. Entries that do
// not decode are skipped. A backend document that cannot be read at all is
// logged and treated as an empty cache.
func (s *Store) Load(ctx context.Context) error {
	raws, err := s.backend.ReadAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return eris.Wrap(err, "cache: load")
		}
		zap.L().Warn("cache: backend unreadable, starting empty", zap.Error(err))
		raws = nil
	}

	entries := make([]model.CacheEntry, 0, len(raws))
	for i, raw := range raws {
		entry, err := decodeEntry(raw)
		if err != nil {
			zap.L().Warn("cache: skipping malformed entry",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	zap.L().Debug("cache: loaded", zap.Int("entries", len(entries)))
	s.reportSize(len(entries))
	return nil
}

// Clean removes entries older than the retention window and entries whose
// coordinate is not valid, persisting if anything was removed. It returns the
// number of removed entries.
func (s *Store) Clean(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.maxAge)
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e model.CacheEntry) bool {
		return e.Timestamp.Before(cutoff) || !model.IsValid(e.Coordinate)
	})
	removed := before - len(s.entries)
	if removed == 0 {
		return 0, nil
	}

	zap.L().Info("cache: removed expired entries", zap.Int("removed", removed))
	return removed, s.persistLocked(ctx)
}

// Select returns a copy of the coordinate cached for poi. A POI that is not
// meaningful never hits.
func (s *Store) Select(poi model.POI) (model.Coordinate, bool) {
	if !model.IsMeaningful(poi) {
		return model.Coordinate{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(poi)
	s.reportLookup(i >= 0)
	if i < 0 {
		return model.Coordinate{}, false
	}
	return s.entries[i].Coordinate.Clone(), true
}

// Insert adds entry unless an equal POI is already cached. With
// forceRefresh the existing entry is replaced. Entries whose POI is not
// meaningful or whose coordinate is not valid are ignored. It reports whether
// the set changed; a changed set is persisted before Insert returns.
func (s *Store) Insert(ctx context.Context, entry model.CacheEntry, forceRefresh bool) (bool, error) {
	if !model.IsMeaningful(entry.POI) {
		return false, nil
	}
	if !model.IsValid(entry.Coordinate) {
		zap.L().Warn("cache: refusing entry with invalid coordinate",
			zap.String("poi", entry.POI.String()),
			zap.String("coordinate", entry.Coordinate.String()),
		)
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(entry.POI)
	if i >= 0 && !forceRefresh {
		return false, nil
	}
	if i >= 0 {
		s.entries = slices.Delete(s.entries, i, i+1)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	s.entries = append(s.entries, model.CacheEntry{
		POI:        entry.POI.Clone(),
		Coordinate: entry.Coordinate.Clone(),
		Timestamp:  entry.Timestamp,
	})

	zap.L().Debug("cache: inserted",
		zap.String("poi", entry.POI.String()),
		zap.Bool("replaced", i >= 0),
	)
	return true, s.persistLocked(ctx)
}

// Delete removes the entry for poi. It reports whether one existed.
func (s *Store) Delete(ctx context.Context, poi model.POI) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(poi)
	if i < 0 {
		return false, nil
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true, s.persistLocked(ctx)
}

// Persist writes the whole set to the backend.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a snapshot copy of the cached entries in insertion order.
func (s *Store) Entries() []model.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CacheEntry, len(s.entries))
	for i, e := range s.entries {
		out[i] = model.CacheEntry{POI: e.POI.Clone(), Coordinate: e.Coordinate.Clone(), Timestamp: e.Timestamp}
	}
	return out
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) indexLocked(poi model.POI) int {
	return slices.IndexFunc(s.entries, func(e model.CacheEntry) bool {
		return e.POI.Equal(poi)
	})
}

func (s *Store) persistLocked(ctx context.Context) error {
	raws := make([]json.RawMessage, 0, len(s.entries))
	for _, e := range s.entries {
		raw, err := encodeEntry(e)
		if err != nil {
			return err
		}
		raws = append(raws, raw)
	}
	if err := s.backend.WriteAll(ctx, raws); err != nil {
		return eris.Wrap(err, "cache: persist")
	}
	s.reportSize(len(s.entries))
	return nil
}

func (s *Store) reportLookup(hit bool) {
	if s.observer != nil {
		s.observer.CacheLookup(hit)
	}
}

func (s *Store) reportSize(n int) {
	if s.observer != nil {
		s.observer.CacheSize(n)
	}
}
