package geocode

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// Place is one element of a Nominatim search response.
type Place struct {
	Lat         *flexFloat `json:"lat"`
	Lon         *flexFloat `json:"lon"`
	Importance  *float64   `json:"importance"`
	OSMType     string     `json:"osm_type"`
	DisplayName string     `json:"display_name"`
}

// Coordinate returns the place's position, or the absent coordinate when
// the place has none.
func (p Place) Coordinate() model.Coordinate {
	if p.Lat == nil || p.Lon == nil {
		return model.Coordinate{}
	}
	return model.NewCoordinate(float64(*p.Lat), float64(*p.Lon))
}

// Accept applies the acceptance policy. A result set is accepted when it has
// exactly one place, when every place has the same importance (including
// every place lacking one), or when it is exactly one relation and one node.
// The first place is the answer.
func Accept(places []Place) (Place, bool) {
	switch {
	case len(places) == 0:
		return Place{}, false
	case len(places) == 1:
		return places[0], true
	case sameImportance(places):
		return places[0], true
	case len(places) == 2 && relationAndNode(places[0].OSMType, places[1].OSMType):
		return places[0], true
	default:
		return Place{}, false
	}
}

func sameImportance(places []Place) bool {
	first := places[0].Importance
	for _, p := range places[1:] {
		switch {
		case first == nil && p.Importance == nil:
		case first == nil || p.Importance == nil:
			return false
		case *first != *p.Importance:
			return false
		}
	}
	return true
}

func relationAndNode(a, b string) bool {
	return (a == "relation" && b == "node") || (a == "node" && b == "relation")
}

// flexFloat decodes a JSON number or a numeric string. Nominatim sends
// coordinates as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
