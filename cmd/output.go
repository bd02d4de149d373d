package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// poiFlags binds --country, --state, --city and --institution.
type poiFlags struct {
	country, state, city, institution string
}

func (f *poiFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.country, "country", "", "country name")
	cmd.Flags().StringVar(&f.state, "state", "", "state or region name")
	cmd.Flags().StringVar(&f.city, "city", "", "city name")
	cmd.Flags().StringVar(&f.institution, "institution", "", "institution or landmark name")
}

// poi returns the POI described by the flags. Empty flags are absent fields.
func (f *poiFlags) poi() model.POI {
	return model.POI{
		Country:     optional(f.country),
		State:       optional(f.state),
		City:        optional(f.city),
		Institution: optional(f.institution),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
