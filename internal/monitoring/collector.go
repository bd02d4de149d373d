package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

// Snapshot holds a point-in-time view of geocoding health.
type Snapshot struct {
	// Record counts over the lookback window.
	Dates      []string       `json:"dates"`
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	Fetched    int            `json:"coordinate_fetched"`
	Failed     int            `json:"coordinate_fetch_failed"`
	NoValid    int            `json:"no_valid_coordinate"`
	Pending    int            `json:"pending"`
	Finished   int            `json:"finished"`
	FailRate   float64        `json:"fail_rate"`
	Unreadable []string       `json:"unreadable,omitempty"`

	CacheEntries int `json:"cache_entries"`

	LookbackDays int       `json:"lookback_days"`
	CollectedAt  time.Time `json:"collected_at"`
}

// RecordReader loads the records of a date.
type RecordReader interface {
	Read(date string) ([]model.Record, error)
}

// CacheSizer reports how many coordinates are cached.
type CacheSizer interface {
	Len() int
}

// Collector gathers a Snapshot from the record files and the cache.
type Collector struct {
	records RecordReader
	cache   CacheSizer
	now     func() time.Time
}

// NewCollector creates a collector. cache may be nil.
func NewCollector(records RecordReader, cache CacheSizer) *Collector {
	return &Collector{records: records, cache: cache, now: time.Now}
}

// Collect counts record statuses over today and the previous days-1 dates.
// Dates whose file cannot be read are listed in Unreadable and skipped.
func (c *Collector) Collect(ctx context.Context, days int) (*Snapshot, error) {
	now := c.now()
	snap := &Snapshot{
		Dates:        store.RecentDates(now, days),
		ByStatus:     make(map[string]int),
		LookbackDays: days,
		CollectedAt:  now.UTC(),
	}

	for _, date := range snap.Dates {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "monitoring: collect")
		}
		records, err := c.records.Read(date)
		if err != nil {
			snap.Unreadable = append(snap.Unreadable, date)
			continue
		}
		for _, r := range records {
			snap.Total++
			snap.ByStatus[string(r.Status)]++
			switch r.Status {
			case model.StatusCoordinateFetched:
				snap.Fetched++
			case model.StatusCoordinateFetchFailed:
				snap.Failed++
			case model.StatusNoValidCoordinate:
				snap.NoValid++
			case model.StatusPoiFetched:
				snap.Pending++
			}
		}
	}

	snap.Finished = snap.Fetched + snap.Failed + snap.NoValid
	if snap.Finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(snap.Finished)
	}
	if c.cache != nil {
		snap.CacheEntries = c.cache.Len()
	}
	return snap, nil
}
