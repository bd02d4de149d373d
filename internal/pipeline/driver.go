// Package pipeline drives the geocoding stage over the news records of one
// or more dates.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/resolve"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

// RecordRepository loads and saves the records of a date.
type RecordRepository interface {
	Read(date string) ([]model.Record, error)
	Write(date string, records []model.Record) error
}

// Resolver maps a POI to a coordinate.
type Resolver interface {
	Resolve(ctx context.Context, poi model.POI, forceRefresh bool) model.Coordinate
}

// SpecialCaser decides POIs that bypass the cascade.
type SpecialCaser interface {
	Handle(ctx context.Context, poi model.POI, forceRefresh bool) (resolve.Decision, bool)
}

// Observer is notified of every record the driver finishes.
type Observer interface {
	RecordProcessed(status string)
}

// Option configures a Driver.
type Option func(*Driver)

// WithForceRefresh re-resolves records that already have an outcome and
// bypasses the cache.
func WithForceRefresh(force bool) Option {
	return func(d *Driver) { d.force = force }
}

// WithDescriptionMaxLength caps how much of a record's description is logged.
func WithDescriptionMaxLength(n int) Option {
	return func(d *Driver) { d.descMax = n }
}

// WithObserver reports finished records to o.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observer = o }
}

// WithClock overrides the clock used to pick dates in ProcessDays.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// Driver runs the special-case handler and the resolution engine over every
// eligible record of a batch and persists the batch when done.
type Driver struct {
	records  RecordRepository
	handler  SpecialCaser
	resolver Resolver
	force    bool
	descMax  int
	observer Observer
	now      func() time.Time
}

// NewDriver returns a driver with the given collaborators.
func NewDriver(records RecordRepository, handler SpecialCaser, resolver Resolver, opts ...Option) *Driver {
	d := &Driver{
		records:  records,
		handler:  handler,
		resolver: resolver,
		descMax:  15,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Summary counts what a run did.
type Summary struct {
	RunID       string `json:"run_id"`
	Date        string `json:"date"`
	Total       int    `json:"total"`
	Skipped     int    `json:"skipped"`
	Fetched     int    `json:"coordinate_fetched"`
	NoValid     int    `json:"no_valid_coordinate"`
	Failed      int    `json:"coordinate_fetch_failed"`
	Interrupted int    `json:"interrupted"`
}

// Eligible reports whether a record with status s is processed. Without
// force refresh only records waiting for a coordinate qualify; with it any
// record that reached the POI stage does.
func (d *Driver) Eligible(s model.Status) bool {
	if s.Terminal() {
		return d.force
	}
	return s == model.StatusPoiFetched || s == model.StatusCoordinateFetchFailed
}

// Process resolves the records of date and writes them back. The batch is
// written even when ctx is cancelled part way; completed records are never
// rolled back.
func (d *Driver) Process(ctx context.Context, date string) (sum *Summary, err error) {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID), zap.String("date", date))
	log.Info("pipeline: starting coordinate fetch", zap.Bool("force_refresh", d.force))

	records, err := d.records.Read(date)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read records for %s", date)
	}
	sum = &Summary{RunID: runID, Date: date, Total: len(records)}
	if len(records) == 0 {
		log.Info("pipeline: no records")
		return sum, nil
	}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.Error("pipeline: panic while processing, saving batch", zap.Any("panic", r))
		if werr := d.records.Write(date, records); werr != nil {
			log.Error("pipeline: save after panic failed", zap.Error(werr))
		}
		err = eris.Errorf("pipeline: panic while processing %s: %v", date, r)
	}()

	d.processRecords(ctx, log, records, sum)

	if werr := d.records.Write(date, records); werr != nil {
		return sum, eris.Wrapf(werr, "pipeline: write records for %s", date)
	}

	log.Info("pipeline: finished coordinate fetch",
		zap.Int("total", sum.Total),
		zap.Int("skipped", sum.Skipped),
		zap.Int("fetched", sum.Fetched),
		zap.Int("no_valid", sum.NoValid),
		zap.Int("failed", sum.Failed),
		zap.Int("interrupted", sum.Interrupted),
	)
	if ctx.Err() != nil {
		return sum, eris.Wrapf(ctx.Err(), "pipeline: interrupted while processing %s", date)
	}
	return sum, nil
}

// ProcessRecords resolves records in place without touching storage.
func (d *Driver) ProcessRecords(ctx context.Context, records []model.Record) *Summary {
	sum := &Summary{RunID: uuid.NewString(), Total: len(records)}
	d.processRecords(ctx, zap.L().With(zap.String("run_id", sum.RunID)), records, sum)
	return sum
}

// ProcessDays processes today and the previous days-1 dates, newest first.
// A failing date is logged and skipped; cancellation stops the walk.
func (d *Driver) ProcessDays(ctx context.Context, days int) ([]*Summary, error) {
	var sums []*Summary
	for _, date := range store.RecentDates(d.now(), days) {
		if ctx.Err() != nil {
			return sums, eris.Wrap(ctx.Err(), "pipeline: interrupted")
		}
		sum, err := d.Process(ctx, date)
		if sum != nil {
			sums = append(sums, sum)
		}
		if err != nil {
			if ctx.Err() != nil {
				return sums, err
			}
			zap.L().Error("pipeline: date failed", zap.String("date", date), zap.Error(err))
		}
	}
	return sums, nil
}

func (d *Driver) processRecords(ctx context.Context, log *zap.Logger, records []model.Record, sum *Summary) {
	for i := range records {
		if ctx.Err() != nil {
			sum.Interrupted += len(records) - i
			log.Warn("pipeline: interrupted, stopping", zap.Int("remaining", len(records)-i))
			return
		}

		rec := &records[i]
		log.Info("pipeline: processing record",
			zap.String("progress", fmt.Sprintf("%d/%d", i+1, len(records))),
			zap.String("description", truncate(rec.Description, d.descMax)),
		)
		if !d.Eligible(rec.Status) {
			sum.Skipped++
			continue
		}

		done, perr := d.safeProcessRecord(ctx, rec)
		if perr != nil {
			log.Error("pipeline: record panicked, leaving it retryable", zap.Int("index", i), zap.Error(perr))
			rec.Coordinate = model.NoCoordinate()
			rec.Status = model.StatusCoordinateFetchFailed
		} else if !done {
			sum.Interrupted++
			continue
		}
		switch rec.Status {
		case model.StatusCoordinateFetched:
			sum.Fetched++
		case model.StatusNoValidCoordinate:
			sum.NoValid++
		default:
			sum.Failed++
		}
		if d.observer != nil {
			d.observer.RecordProcessed(string(rec.Status))
		}
	}
}

func (d *Driver) safeProcessRecord(ctx context.Context, rec *model.Record) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pipeline: panic while resolving record: %v", r)
		}
	}()
	return d.processRecord(ctx, rec), nil
}

// processRecord updates rec's status and coordinate. It returns false when
// ctx was cancelled before an outcome was reached; rec is then unchanged.
func (d *Driver) processRecord(ctx context.Context, rec *model.Record) bool {
	if dec, ok := d.handler.Handle(ctx, rec.POI, d.force); ok {
		rec.Coordinate = dec.Coordinate.Clone()
		rec.Status = dec.Status
		return true
	}

	c := d.resolver.Resolve(ctx, rec.POI, d.force)
	if model.IsValid(c) {
		rec.Coordinate = c
		rec.Status = model.StatusCoordinateFetched
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	rec.Coordinate = model.NoCoordinate()
	rec.Status = model.StatusCoordinateFetchFailed
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
