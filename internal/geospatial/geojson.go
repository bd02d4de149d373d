// Package geospatial renders resolved news records as GeoJSON.
package geospatial

import (
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

// SRID of every exported geometry (WGS 84).
const SRID = 4326

// Point converts a coordinate to a lon/lat point. The second return is false
// when c is not valid.
func Point(c model.Coordinate) (*geom.Point, bool) {
	if !model.IsValid(c) {
		return nil, false
	}
	p := geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{*c.Longitude, *c.Latitude})
	return p.SetSRID(SRID), true
}

// FeatureCollection builds one point feature per record with a valid
// coordinate. Records without one are skipped. The collection carries the
// bounding box of its features when it has any.
func FeatureCollection(records []model.Record) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	var bounds *geom.Bounds

	for i, r := range records {
		p, ok := Point(r.Coordinate)
		if !ok {
			continue
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(p)

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         featureID(r, i),
			Geometry:   p,
			Properties: properties(r),
		})
	}
	fc.BBox = bounds
	return fc
}

// Write encodes the feature collection of records to w.
func Write(w io.Writer, records []model.Record) (int, error) {
	fc := FeatureCollection(records)
	data, err := fc.MarshalJSON()
	if err != nil {
		return 0, eris.Wrap(err, "geospatial: encode feature collection")
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return 0, eris.Wrap(err, "geospatial: write feature collection")
	}
	return len(fc.Features), nil
}

func featureID(r model.Record, i int) string {
	if r.Date == "" {
		return strconv.Itoa(i)
	}
	return r.Date + "-" + strconv.Itoa(i)
}

func properties(r model.Record) map[string]any {
	props := map[string]any{
		"date":        r.Date,
		"description": r.Description,
		"status":      string(r.Status),
	}
	if len(r.Links) > 0 {
		props["links"] = r.Links
	}
	poi := map[string]string{}
	for k, v := range map[string]*string{
		"country":     r.POI.Country,
		"state":       r.POI.State,
		"city":        r.POI.City,
		"institution": r.POI.Institution,
	} {
		if model.ValidValue(v) {
			poi[k] = *v
		}
	}
	if len(poi) > 0 {
		props["poi"] = poi
	}
	return props
}
