package geospatial

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

func TestPoint(t *testing.T) {
	p, ok := Point(model.NewCoordinate(48.85, 2.35))
	require.True(t, ok)
	assert.Equal(t, 2.35, p.X())
	assert.Equal(t, 48.85, p.Y())
	assert.Equal(t, SRID, p.SRID())

	_, ok = Point(model.NoCoordinate())
	assert.False(t, ok)
	_, ok = Point(model.Coordinate{})
	assert.False(t, ok)
}

func TestFeatureCollection_SkipsUnresolved(t *testing.T) {
	records := []model.Record{
		{Status: model.StatusCoordinateFetched, Date: "2025-06-15", Description: "a",
			POI: model.POI{Country: model.Str("France"), City: model.Str("Paris"), State: model.Str("n/a")},
			Coordinate: model.NewCoordinate(48.85, 2.35)},
		{Status: model.StatusNoValidCoordinate, Date: "2025-06-15", Coordinate: model.NoCoordinate()},
		{Status: model.StatusPoiFetched, Date: "2025-06-15"},
		{Status: model.StatusCoordinateFetched, Date: "2025-06-15", Description: "b",
			Coordinate: model.NewCoordinate(-33.87, 151.21)},
	}

	fc := FeatureCollection(records)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "2025-06-15-0", fc.Features[0].ID)
	assert.Equal(t, "2025-06-15-3", fc.Features[1].ID)
	assert.Equal(t, map[string]string{"country": "France", "city": "Paris"}, fc.Features[0].Properties["poi"])
	assert.NotContains(t, fc.Features[1].Properties, "poi")

	require.NotNil(t, fc.BBox)
	assert.Equal(t, 2.35, fc.BBox.Min(0))
	assert.Equal(t, 151.21, fc.BBox.Max(0))
	assert.Equal(t, -33.87, fc.BBox.Min(1))
	assert.Equal(t, 48.85, fc.BBox.Max(1))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, []model.Record{{
		Status:      model.StatusCoordinateFetched,
		Date:        "2025-06-15",
		Description: "flood",
		Coordinate:  model.NewCoordinate(10, 20),
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 1)
	assert.Equal(t, "Point", doc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{20, 10}, doc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "flood", doc.Features[0].Properties["description"])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), `"features":[]`)
}
