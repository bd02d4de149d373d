package model

import (
	"encoding/json"
)

// Status is the processing state of a news record.
type Status string

const (
	StatusFetched               Status = "fetched"
	StatusPoiFetched            Status = "poi_fetched"
	StatusPoiFetchFailed        Status = "poi_fetch_failed"
	StatusCoordinateFetched     Status = "coordinate_fetched"
	StatusCoordinateFetchFailed Status = "coordinate_fetch_failed"
	StatusNoValidCoordinate     Status = "no_valid_coordinate"
	StatusUnknown               Status = "unknown"
)

var knownStatuses = map[Status]struct{}{
	StatusFetched:               {},
	StatusPoiFetched:            {},
	StatusPoiFetchFailed:        {},
	StatusCoordinateFetched:     {},
	StatusCoordinateFetchFailed: {},
	StatusNoValidCoordinate:     {},
	StatusUnknown:               {},
}

// ParseStatus maps a persisted value to a Status. Unrecognized values map to
// StatusUnknown.
func ParseStatus(s string) Status {
	st := Status(s)
	if _, ok := knownStatuses[st]; ok {
		return st
	}
	return StatusUnknown
}

// Terminal reports whether s is a final coordinate outcome that only a force
// refresh revisits.
func (s Status) Terminal() bool {
	switch s {
	case StatusCoordinateFetched, StatusNoValidCoordinate:
		return true
	default:
		return false
	}
}

// UnmarshalJSON decodes a status, defaulting unrecognized values to StatusUnknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		*s = StatusUnknown
		return nil //nolint:nilerr // a non-string status is treated as unknown
	}
	*s = ParseStatus(*raw)
	return nil
}
