// Package resolve turns a POI into a coordinate by walking a fallback
// cascade of progressively coarser POIs against the cache and the geocoding
// provider.
package resolve

import (
	"github.com/worldnewsmap/newsgeo/internal/model"
)

// Level names the POI fields kept at one step of the cascade.
type Level struct {
	Name        string
	Country     bool
	State       bool
	City        bool
	Institution bool
}

// FallbackLevels is the cascade, most specific first. City alone is tried
// before country+state because a city name usually pins a place better than
// a region does.
var FallbackLevels = []Level{
	{Name: "country,state,city,institution", Country: true, State: true, City: true, Institution: true},
	{Name: "country,state,city", Country: true, State: true, City: true},
	{Name: "city", City: true},
	{Name: "country,state", Country: true, State: true},
	{Name: "state", State: true},
	{Name: "country", Country: true},
}

// Apply returns the variant of poi holding only this level's fields. Fields
// that are missing or placeholders are left absent.
func (l Level) Apply(poi model.POI) model.POI {
	return model.POI{
		Country:     keep(l.Country, poi.Country),
		State:       keep(l.State, poi.State),
		City:        keep(l.City, poi.City),
		Institution: keep(l.Institution, poi.Institution),
	}
}

// Cascade returns one variant of poi per entry of FallbackLevels, in order.
func Cascade(poi model.POI) []model.POI {
	out := make([]model.POI, len(FallbackLevels))
	for i, l := range FallbackLevels {
		out[i] = l.Apply(poi)
	}
	return out
}

func keep(want bool, v *string) *string {
	if !want || !model.ValidValue(v) {
		return nil
	}
	s := *v
	return &s
}
