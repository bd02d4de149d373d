package resolve

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/cache"
	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/store"
	"github.com/worldnewsmap/newsgeo/pkg/geocode"
)

// fakeSearcher records queries and answers them with respond.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []geocode.Query
	respond func(q geocode.Query) geocode.Outcome
}

func (f *fakeSearcher) Search(_ context.Context, q geocode.Query) geocode.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.respond == nil {
		return geocode.Outcome{Kind: geocode.OutcomeEmpty}
	}
	return f.respond(q)
}

func (f *fakeSearcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func hit(lat, lon float64) geocode.Outcome {
	return geocode.Outcome{Kind: geocode.OutcomeHit, Coordinate: model.NewCoordinate(lat, lon), Results: 1}
}

func timeout() geocode.Outcome {
	return geocode.Outcome{Kind: geocode.OutcomeNetworkError, ErrorKind: geocode.ErrorKindTimeout, Err: context.DeadlineExceeded}
}

func newTestCache(t *testing.T) *cache.Store {
	t.Helper()
	b := store.NewFileCacheBackend(filepath.Join(t.TempDir(), "coordinate.json"))
	c, err := cache.Open(context.Background(), b, 7)
	require.NoError(t, err)
	return c
}

func newTestEngine(t *testing.T, s geocode.Searcher) *Engine {
	t.Helper()
	return NewEngine(newTestCache(t), s, WithInterval(0), WithClock(func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}))
}

func fullPOI() model.POI {
	return model.POI{
		Country:     model.Str("A"),
		State:       model.Str("B"),
		City:        model.Str("C"),
		Institution: model.Str("D"),
	}
}
