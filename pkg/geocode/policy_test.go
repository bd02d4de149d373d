package geocode

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func places(t *testing.T, raw string) []Place {
	t.Helper()
	var ps []Place
	require.NoError(t, json.Unmarshal([]byte(raw), &ps))
	return ps
}

func TestAccept(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    bool
		wantLat float64
	}{
		{"empty", `[]`, false, 0},
		{"single", `[{"lat":"1.5","lon":"2"}]`, true, 1.5},
		{"equal importance", `[{"lat":"1","lon":"1","importance":0.3},{"lat":"2","lon":"2","importance":0.3},{"lat":"3","lon":"3","importance":0.3}]`, true, 1},
		{"all importance missing", `[{"lat":"4","lon":"1"},{"lat":"5","lon":"2"}]`, true, 4},
		{"mixed missing importance", `[{"lat":"4","lon":"1","importance":0.3},{"lat":"5","lon":"2"}]`, false, 0},
		{"relation and node", `[{"lat":"6","lon":"1","importance":0.9,"osm_type":"relation"},{"lat":"7","lon":"2","importance":0.1,"osm_type":"node"}]`, true, 6},
		{"node and relation", `[{"lat":"8","lon":"1","importance":0.9,"osm_type":"node"},{"lat":"9","lon":"2","importance":0.1,"osm_type":"relation"}]`, true, 8},
		{"two relations", `[{"lat":"1","lon":"1","importance":0.9,"osm_type":"relation"},{"lat":"2","lon":"2","importance":0.1,"osm_type":"relation"}]`, false, 0},
		{"relation node way", `[{"lat":"1","lon":"1","importance":0.9,"osm_type":"relation"},{"lat":"2","lon":"2","importance":0.1,"osm_type":"node"},{"lat":"3","lon":"3","importance":0.2,"osm_type":"way"}]`, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := Accept(places(t, tt.raw))
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.InDelta(t, tt.wantLat, *p.Coordinate().Latitude, 1e-9)
			}
		})
	}
}

func TestFlexFloat(t *testing.T) {
	ps := places(t, `[{"lat":"-12.5","lon":77.25}]`)
	c := ps[0].Coordinate()
	assert.InDelta(t, -12.5, *c.Latitude, 1e-9)
	assert.InDelta(t, 77.25, *c.Longitude, 1e-9)

	var bad []Place
	assert.Error(t, json.Unmarshal([]byte(`[{"lat":"north","lon":"1"}]`), &bad))
}

func TestPlace_CoordinateMissing(t *testing.T) {
	assert.Nil(t, Place{}.Coordinate().Latitude)
}
