package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for geocoding activity. It
// satisfies the observer hooks of the cache, the provider client and the
// pipeline driver.
type Metrics struct {
	cacheLookups     *prometheus.CounterVec
	cacheEntries     prometheus.Gauge
	providerRequests *prometheus.CounterVec
	recordsProcessed *prometheus.CounterVec
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsgeo_cache_lookups_total",
				Help: "Coordinate cache lookups by result",
			},
			[]string{"result"},
		),
		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "newsgeo_cache_entries",
				Help: "Entries currently held by the coordinate cache",
			},
		),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsgeo_provider_requests_total",
				Help: "Geocoding provider requests by query strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		recordsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsgeo_records_processed_total",
				Help: "News records processed by resulting status",
			},
			[]string{"status"},
		),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newsgeo_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newsgeo_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(
		m.cacheLookups,
		m.cacheEntries,
		m.providerRequests,
		m.recordsProcessed,
		m.requestsTotal,
		m.requestDuration,
	)
	return m
}

// CacheLookup counts a cache Select.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// CacheSize records the current number of cache entries.
func (m *Metrics) CacheSize(n int) {
	m.cacheEntries.Set(float64(n))
}

// ProviderRequest counts one provider call.
func (m *Metrics) ProviderRequest(strategy, outcome string) {
	m.providerRequests.WithLabelValues(strategy, outcome).Inc()
}

// RecordProcessed counts a record finished by the pipeline.
func (m *Metrics) RecordProcessed(status string) {
	m.recordsProcessed.WithLabelValues(status).Inc()
}

// HTTPRequest records a served API request.
func (m *Metrics) HTTPRequest(method, route string, status int, d time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
