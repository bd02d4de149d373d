package model

import "fmt"

// sentinel marks a deliberately missing coordinate component.
const sentinel = -1

// Coordinate is an optional latitude/longitude pair.
type Coordinate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// NewCoordinate builds a coordinate with both components present.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Latitude: &lat, Longitude: &lon}
}

// NoCoordinate returns the (-1, -1) sentinel meaning "no coordinate exists",
// which is distinct from the zero value meaning "not resolved yet".
func NoCoordinate() Coordinate {
	return NewCoordinate(sentinel, sentinel)
}

// IsValid reports whether both components are present and neither is the sentinel.
func IsValid(c Coordinate) bool {
	return c.Latitude != nil && c.Longitude != nil &&
		*c.Latitude != sentinel && *c.Longitude != sentinel
}

// IsSentinel reports whether c is exactly the (-1, -1) pair.
func IsSentinel(c Coordinate) bool {
	return c.Latitude != nil && c.Longitude != nil &&
		*c.Latitude == sentinel && *c.Longitude == sentinel
}

// Clone returns a deep copy of c.
func (c Coordinate) Clone() Coordinate {
	return Coordinate{Latitude: clonePtr(c.Latitude), Longitude: clonePtr(c.Longitude)}
}

func (c Coordinate) String() string {
	if c.Latitude == nil || c.Longitude == nil {
		return "(none)"
	}
	if IsSentinel(c) {
		return "(no valid coordinate)"
	}
	return fmt.Sprintf("(%g, %g)", *c.Latitude, *c.Longitude)
}
