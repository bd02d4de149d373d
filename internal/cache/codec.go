package cache

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// Timestamps written by older tooling carry no zone and are read as local
// time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

type wireEntry struct {
	POI        *model.POI        `json:"poi"`
	Coordinate *model.Coordinate `json:"coordinate"`
	Timestamp  *string           `json:"timestamp"`
}

func decodeEntry(raw json.RawMessage) (model.CacheEntry, error) {
	var w wireEntry
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.CacheEntry{}, eris.Wrap(err, "cache: decode entry")
	}
	if w.POI == nil || w.Coordinate == nil || w.Timestamp == nil {
		return model.CacheEntry{}, eris.New("cache: entry missing poi, coordinate or timestamp")
	}
	ts, err := parseTimestamp(*w.Timestamp)
	if err != nil {
		return model.CacheEntry{}, err
	}
	return model.CacheEntry{POI: *w.POI, Coordinate: *w.Coordinate, Timestamp: ts}, nil
}

func encodeEntry(e model.CacheEntry) (json.RawMessage, error) {
	ts := e.Timestamp.Format(time.RFC3339Nano)
	data, err := json.Marshal(wireEntry{POI: &e.POI, Coordinate: &e.Coordinate, Timestamp: &ts})
	if err != nil {
		return nil, eris.Wrap(err, "cache: encode entry")
	}
	return data, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("cache: unrecognized timestamp %q", s)
}
