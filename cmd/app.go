package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/cache"
	"github.com/worldnewsmap/newsgeo/internal/monitoring"
	"github.com/worldnewsmap/newsgeo/internal/resilience"
	"github.com/worldnewsmap/newsgeo/internal/resolve"
	"github.com/worldnewsmap/newsgeo/internal/store"
	"github.com/worldnewsmap/newsgeo/pkg/geocode"
)

// appEnv holds the cache, records and (for modes that hit the provider) the
// resolution stack shared by the commands.
type appEnv struct {
	Cache    *cache.Store
	Records  *store.RecordStore
	Engine   *resolve.Engine  // nil unless the mode resolves
	Handler  *resolve.Handler // nil unless the mode resolves
	Metrics  *monitoring.Metrics
	Registry *prometheus.Registry
}

// Close releases the cache backend.
func (e *appEnv) Close() {
	if e.Cache != nil {
		if err := e.Cache.Close(); err != nil {
			zap.L().Warn("close cache backend", zap.Error(err))
		}
	}
}

// needsProvider reports whether a command mode talks to Nominatim.
func needsProvider(mode string) bool {
	switch mode {
	case "geocode", "resolve", "serve":
		return true
	default:
		return false
	}
}

// initApp validates the config for mode and builds the environment. Callers
// should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	backend, err := store.OpenCacheBackend(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	c, err := cache.Open(ctx, backend, cfg.Cache.ExpirationDays, cache.WithObserver(metrics))
	if err != nil {
		_ = backend.Close()
		return nil, eris.Wrap(err, "open coordinate cache")
	}

	env := &appEnv{
		Cache:    c,
		Records:  store.NewRecordStore(cfg.Records.Dir),
		Metrics:  metrics,
		Registry: reg,
	}
	if !needsProvider(mode) {
		return env, nil
	}

	g := cfg.Geocode
	client := geocode.NewClient(
		geocode.WithBaseURL(g.BaseURL),
		geocode.WithUserAgent(g.UserAgent, g.ContactInfo),
		geocode.WithTimeout(seconds(g.RequestTimeoutSecs)),
		geocode.WithRetry(resilience.FromRetryConfig(
			g.Retry.MaxAttempts, g.Retry.InitialBackoffMs, g.Retry.MaxBackoffMs, g.Retry.Multiplier,
		)),
		geocode.WithObserver(metrics),
	)
	env.Engine = resolve.NewEngine(c, client, resolve.WithInterval(seconds(g.RequestIntervalSecs)))

	env.Handler, err = resolve.NewHandlerFromConfig(env.Engine, cfg.SpecialCases.Denylist, cfg.SpecialCases.RulesFile)
	if err != nil {
		env.Close()
		return nil, err
	}

	zap.L().Debug("resolution stack ready",
		zap.String("provider", g.BaseURL),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Int("cache_entries", c.Len()),
	)
	return env, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
