package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/model"
	"github.com/worldnewsmap/newsgeo/internal/pipeline"
	"github.com/worldnewsmap/newsgeo/internal/store"
)

const testDate = "2025-06-15"

func writeRecords(t *testing.T, env *cliEnv, records ...model.Record) *store.RecordStore {
	t.Helper()
	rs := store.NewRecordStore(filepath.Join(env.dir, "news"))
	require.NoError(t, rs.Write(testDate, records))
	return rs
}

func TestGeocodeCommand_ResolvesAndCaches(t *testing.T) {
	env := newCLIEnv(t)
	rs := writeRecords(t, env,
		model.Record{Status: model.StatusPoiFetched, Date: testDate, Description: "storm", POI: model.POI{Country: model.Str("France")}},
		model.Record{Status: model.StatusPoiFetched, Date: testDate, Description: "launch", POI: model.POI{Country: model.Str("Outer Space")}},
		model.Record{Status: model.StatusPoiFetchFailed, Date: testDate, Description: "unknown"},
	)

	out, err := runCLI(t, "geocode", "--date", testDate)
	require.NoError(t, err)

	var sum pipeline.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Fetched)
	assert.Equal(t, 1, sum.NoValid)
	assert.Equal(t, 1, sum.Skipped)

	got, err := rs.Read(testDate)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, model.StatusCoordinateFetched, got[0].Status)
	assert.Equal(t, model.NewCoordinate(46.6, 1.8), got[0].Coordinate)
	assert.Equal(t, model.StatusNoValidCoordinate, got[1].Status)
	assert.Equal(t, model.StatusPoiFetchFailed, got[2].Status)
	assert.Equal(t, int32(1), env.calls.Load())
	assert.FileExists(t, env.cachePath)

	// Second run finds nothing eligible and makes no calls.
	_, err = runCLI(t, "geocode", "--date", testDate)
	require.NoError(t, err)
	assert.Equal(t, int32(1), env.calls.Load())
}

func TestCacheCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := runCLI(t, "resolve", "--country", "France")
	require.NoError(t, err)
	var resolved struct {
		Coordinate model.Coordinate `json:"coordinate"`
		Status     model.Status     `json:"status"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resolved))
	assert.Equal(t, model.StatusCoordinateFetched, resolved.Status)
	assert.Equal(t, model.NewCoordinate(46.6, 1.8), resolved.Coordinate)

	out, err = runCLI(t, "cache", "stats")
	require.NoError(t, err)
	var st cacheStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 1, st.Entries)
	assert.Equal(t, "file", st.Driver)
	assert.NotNil(t, st.Newest)

	out, err = runCLI(t, "cache", "lookup", "--country", "France")
	require.NoError(t, err)
	assert.Contains(t, out, "46.6")

	out, err = runCLI(t, "cache", "delete", "--country", "France")
	require.NoError(t, err)
	assert.Contains(t, out, `"deleted": true`)

	_, err = runCLI(t, "cache", "lookup", "--country", "France")
	require.Error(t, err)

	out, err = runCLI(t, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, `"remaining": 0`)
	assert.Equal(t, int32(1), env.calls.Load())
}

func TestResolveCommand_RequiresPOI(t *testing.T) {
	newCLIEnv(t)
	resolveFlags = poiFlags{}
	_, err := runCLI(t, "resolve", "--country", "")
	require.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	env := newCLIEnv(t)
	writeRecords(t, env,
		model.Record{Status: model.StatusCoordinateFetched, Date: testDate, Description: "storm", Coordinate: model.NewCoordinate(46.6, 1.8)},
		model.Record{Status: model.StatusNoValidCoordinate, Date: testDate, Coordinate: model.NoCoordinate()},
	)

	outFile := filepath.Join(env.dir, "out.geojson")
	_, err := runCLI(t, "export", "--date", testDate, "--out", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 1)
}

type failingCloser struct {
	bytes.Buffer
	closed bool
}

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("disk full")
}

func TestWriteAndClose_ReturnsCloseError(t *testing.T) {
	out := &failingCloser{}
	records := []model.Record{{Status: model.StatusCoordinateFetched, Date: testDate, Coordinate: model.NewCoordinate(1, 2)}}

	n, err := writeAndClose(out, records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export: close output")
	assert.Equal(t, 1, n)
	assert.True(t, out.closed)
}

func TestStatusCommand(t *testing.T) {
	env := newCLIEnv(t)
	writeRecords(t, env,
		model.Record{Status: model.StatusCoordinateFetched, Date: testDate},
		model.Record{Status: model.StatusPoiFetched, Date: testDate},
	)

	out, err := runCLI(t, "status", "--days", "1")
	require.NoError(t, err)

	var doc struct {
		Snapshot struct {
			LookbackDays int `json:"lookback_days"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Snapshot.LookbackDays)
}
