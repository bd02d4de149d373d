package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// DateLayout is the layout of record file names and dates.
const DateLayout = "2006-01-02"

// RecordStore reads and writes one JSON file of records per date under Dir.
type RecordStore struct {
	Dir string
}

// NewRecordStore returns a store rooted at dir.
func NewRecordStore(dir string) *RecordStore {
	return &RecordStore{Dir: dir}
}

// Path returns the file holding the records of date.
func (s *RecordStore) Path(date string) string {
	return filepath.Join(s.Dir, date+".json")
}

// Read returns the records for date. A missing file yields no records and no
// error.
func (s *RecordStore) Read(date string) ([]model.Record, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	path := s.Path(date)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Warn("store: no record file for date",
			zap.String("date", date),
			zap.String("path", path),
		)
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read records %s", path)
	}

	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "store: decode records %s", path)
	}
	return records, nil
}

// Write replaces the file for date. An empty batch is not written.
func (s *RecordStore) Write(date string, records []model.Record) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if len(records) == 0 {
		zap.L().Error("store: no records to write", zap.String("date", date))
		return nil
	}

	data, err := marshalIndent(records)
	if err != nil {
		return eris.Wrap(err, "store: encode records")
	}
	if err := writeFileAtomic(s.Path(date), data); err != nil {
		return err
	}

	zap.L().Info("store: records written",
		zap.String("date", date),
		zap.Int("count", len(records)),
	)
	return nil
}

// Dates lists the dates that have a record file, newest first.
func (s *RecordStore) Dates() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: list %s", s.Dir)
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		date := strings.TrimSuffix(e.Name(), ".json")
		if validateDate(date) == nil {
			dates = append(dates, date)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates, nil
}

// RecentDates returns today and the previous days-1 dates in the local
// time zone, newest first.
func RecentDates(now time.Time, days int) []string {
	if days < 1 {
		return nil
	}
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, now.AddDate(0, 0, -i).Format(DateLayout))
	}
	return dates
}

func validateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return eris.Wrapf(err, "store: invalid date %q", date)
	}
	return nil
}
