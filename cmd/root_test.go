package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"geocode", "cache", "resolve", "export", "serve", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "newsgeo", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCacheCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range cacheCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"stats", "clean", "lookup", "delete"} {
		assert.True(t, names[name], "expected cache subcommand %q not found", name)
	}
}

func TestGeocodeCommand_Flags(t *testing.T) {
	for _, name := range []string{"date", "days", "force"} {
		require.NotNil(t, geocodeCmd.Flags().Lookup(name), "geocode command should have --%s flag", name)
	}
	assert.Equal(t, "false", geocodeCmd.Flags().Lookup("force").DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestResolvePort(t *testing.T) {
	assert.Equal(t, 9090, resolvePort(9090, 8080))
	assert.Equal(t, 8080, resolvePort(0, 8080))
	assert.Equal(t, 0, resolvePort(0, 0))
}

func TestPOIFlags(t *testing.T) {
	f := poiFlags{country: "France", city: "Paris"}
	poi := f.poi()
	assert.True(t, poi.Equal(model.POI{Country: model.Str("France"), City: model.Str("Paris")}))
	assert.Nil(t, poi.State)
	assert.Nil(t, poi.Institution)
}

// --- End-to-end ---

const nominatimFrance = `[{"lat":"46.6","lon":"1.8","importance":0.9,"osm_type":"relation","display_name":"France"}]`

type cliEnv struct {
	dir       string
	cachePath string
	calls     atomic.Int32
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	env := &cliEnv{dir: t.TempDir()}
	env.cachePath = filepath.Join(env.dir, "cache", "coordinate.json")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		env.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, nominatimFrance)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("NEWSGEO_GEOCODE_BASE_URL", srv.URL)
	t.Setenv("NEWSGEO_GEOCODE_REQUEST_INTERVAL_SECS", "0")
	t.Setenv("NEWSGEO_CACHE_DRIVER", "file")
	t.Setenv("NEWSGEO_CACHE_PATH", env.cachePath)
	t.Setenv("NEWSGEO_RECORDS_DIR", filepath.Join(env.dir, "news"))
	t.Setenv("NEWSGEO_LOG_LEVEL", "error")
	return env
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}
