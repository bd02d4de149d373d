package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// invalidValues are placeholder strings the extraction stage emits when it
// cannot name a place. Compared after trimming and case folding.
var invalidValues = map[string]struct{}{
	"none":    {},
	"n/a":     {},
	"null":    {},
	"unknown": {},
	"":        {},
}

// POI is a structured point-of-interest descriptor. A nil field is absent.
type POI struct {
	Country     *string `json:"country"`
	State       *string `json:"state"`
	City        *string `json:"city"`
	Institution *string `json:"institution"`
}

// Str returns a pointer to s. Convenience for building POIs.
func Str(s string) *string {
	return &s
}

// Fold trims s and applies Unicode case folding. A new Caser is built per
// call because Casers are not safe for concurrent use.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ValidValue reports whether v holds something other than a placeholder.
func ValidValue(v *string) bool {
	if v == nil {
		return false
	}
	_, invalid := invalidValues[Fold(*v)]
	return !invalid
}

// IsMeaningful reports whether at least one field of p holds a valid value.
func IsMeaningful(p POI) bool {
	return ValidValue(p.Country) || ValidValue(p.State) || ValidValue(p.City) || ValidValue(p.Institution)
}

// Equal reports whether all four fields of a and b are equal. Two absent
// fields are equal; an absent field never equals an empty string.
func (p POI) Equal(o POI) bool {
	return equalField(p.Country, o.Country) &&
		equalField(p.State, o.State) &&
		equalField(p.City, o.City) &&
		equalField(p.Institution, o.Institution)
}

func equalField(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Clone returns a deep copy of p.
func (p POI) Clone() POI {
	return POI{
		Country:     clonePtr(p.Country),
		State:       clonePtr(p.State),
		City:        clonePtr(p.City),
		Institution: clonePtr(p.Institution),
	}
}

// String joins the present, non-empty fields with ", ".
func (p POI) String() string {
	var parts []string
	for _, f := range []*string{p.Country, p.State, p.City, p.Institution} {
		if f != nil && *f != "" {
			parts = append(parts, *f)
		}
	}
	return strings.Join(parts, ", ")
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
