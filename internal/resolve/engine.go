package resolve

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/cache"
	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/resilience"
	"github.com/worldnewsmap/newsgeo/pkg/geocode"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithInterval sets the pause after every provider query that did not
// produce an accepted coordinate.
func WithInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.interval = d }
}

// WithClock overrides the time source for cache timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine resolves POIs through the cascade. One resolution runs at a time;
// concurrent callers queue on the engine's mutex so provider calls stay
// sequential and the cache's select-then-insert sequence stays atomic.
type Engine struct {
	mu       sync.Mutex
	cache    *cache.Store
	searcher geocode.Searcher
	interval time.Duration
	now      func() time.Time
}

// NewEngine returns an engine reading and priming c and querying s.
func NewEngine(c *cache.Store, s geocode.Searcher, opts ...EngineOption) *Engine {
	e := &Engine{
		cache:    c,
		searcher: s,
		interval: time.Second,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the store the engine reads and primes.
func (e *Engine) Cache() *cache.Store { return e.cache }

// Resolve walks the cascade for poi and returns the first cached or accepted
// coordinate, or the sentinel when every level is exhausted. With
// forceRefresh the cache is not consulted and accepted coordinates replace
// cached ones. Provider failures only advance the cascade. If ctx is
// cancelled the sentinel is returned and the caller should check ctx.Err().
func (e *Engine) Resolve(ctx context.Context, poi model.POI, forceRefresh bool) model.Coordinate {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := zap.L().With(zap.String("poi", poi.String()), zap.Bool("force_refresh", forceRefresh))
	levels := Cascade(poi)

	for k, level := range levels {
		if ctx.Err() != nil {
			return model.NoCoordinate()
		}

		if !forceRefresh {
			if c, ok := e.cache.Select(level); ok {
				log.Debug("resolve: cache hit", zap.Int("level", k), zap.String("variant", level.String()))
				return c
			}
		}
		if !model.IsMeaningful(level) {
			continue
		}

		for _, q := range []geocode.Query{geocode.StructuredQuery(level), geocode.FreeFormQuery(level)} {
			out := e.searcher.Search(ctx, q)
			if out.Accepted() {
				log.Info("resolve: coordinate accepted",
					zap.Int("level", k),
					zap.String("strategy", string(q.Strategy)),
					zap.Stringer("coordinate", out.Coordinate),
				)
				e.backfill(ctx, levels[:k+1], out.Coordinate, forceRefresh)
				return out.Coordinate
			}
			if out.Kind == geocode.OutcomeNetworkError {
				log.Warn("resolve: level failed",
					zap.Int("level", k),
					zap.String("strategy", string(q.Strategy)),
					zap.Stringer("error_kind", out.ErrorKind),
					zap.Error(out.Err),
				)
			}
			if !resilience.Sleep(ctx, e.interval) {
				return model.NoCoordinate()
			}
			if out.Kind == geocode.OutcomeNetworkError {
				break
			}
		}
	}

	log.Info("resolve: cascade exhausted")
	return model.NoCoordinate()
}

// ResolveText runs a single free-form query for text and caches the result
// under poi. It is used for places with a known canonical query.
func (e *Engine) ResolveText(ctx context.Context, poi model.POI, text string, forceRefresh bool) (model.Coordinate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !forceRefresh {
		if c, ok := e.cache.Select(poi); ok {
			return c, true
		}
	}

	out := e.searcher.Search(ctx, geocode.TextQuery(text))
	if !out.Accepted() {
		resilience.Sleep(ctx, e.interval)
		return model.Coordinate{}, false
	}
	e.backfill(ctx, []model.POI{poi}, out.Coordinate, forceRefresh)
	return out.Coordinate, true
}

// backfill caches c for every visited variant up to and including the level
// that produced it.
func (e *Engine) backfill(ctx context.Context, visited []model.POI, c model.Coordinate, forceRefresh bool) {
	now := e.now()
	for i, poi := range visited {
		_, err := e.cache.Insert(ctx, model.CacheEntry{POI: poi, Coordinate: c, Timestamp: now}, forceRefresh)
		if err != nil {
			zap.L().Error("resolve: cache backfill failed",
				zap.Int("level", i),
				zap.String("variant", poi.String()),
				zap.Error(err),
			)
		}
	}
}
