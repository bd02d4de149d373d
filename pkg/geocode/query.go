package geocode

import (
	"net/url"
	"strings"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// Strategy is the form of a search request.
type Strategy string

const (
	// StrategyStructured sends one parameter per POI field.
	StrategyStructured Strategy = "structured"
	// StrategyFreeForm sends the POI as a single q parameter.
	StrategyFreeForm Strategy = "freeform"
)

// Query is one search request.
type Query struct {
	Strategy Strategy
	Country  string
	State    string
	City     string
	Amenity  string
	Text     string
}

// StructuredQuery maps the valid fields of poi to structured parameters.
// The institution is sent as amenity.
func StructuredQuery(poi model.POI) Query {
	return Query{
		Strategy: StrategyStructured,
		Country:  value(poi.Country),
		State:    value(poi.State),
		City:     value(poi.City),
		Amenity:  value(poi.Institution),
	}
}

// FreeFormQuery joins the valid fields of poi with spaces in the order
// country, state, city, institution.
func FreeFormQuery(poi model.POI) Query {
	var parts []string
	for _, f := range []*string{poi.Country, poi.State, poi.City, poi.Institution} {
		if v := value(f); v != "" {
			parts = append(parts, v)
		}
	}
	return TextQuery(strings.Join(parts, " "))
}

// TextQuery is a free-form query for literal text.
func TextQuery(text string) Query {
	return Query{Strategy: StrategyFreeForm, Text: text}
}

// Empty reports whether the query carries no search terms.
func (q Query) Empty() bool {
	if q.Strategy == StrategyFreeForm {
		return strings.TrimSpace(q.Text) == ""
	}
	return q.Country == "" && q.State == "" && q.City == "" && q.Amenity == ""
}

// Values encodes the query with the fixed dedupe and format parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("dedupe", "1")
	v.Set("format", "jsonv2")
	if q.Strategy == StrategyFreeForm {
		v.Set("q", q.Text)
		return v
	}
	for key, val := range map[string]string{
		"country": q.Country,
		"state":   q.State,
		"city":    q.City,
		"amenity": q.Amenity,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}

// String renders the query for logs.
func (q Query) String() string {
	return string(q.Strategy) + " " + q.Values().Encode()
}

func value(p *string) string {
	if !model.ValidValue(p) {
		return ""
	}
	return strings.TrimSpace(*p)
}
