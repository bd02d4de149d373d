package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldnewsmap/newsgeo/internal/model"
)

func sampleRecords() []model.Record {
	return []model.Record{
		{
			Status:      model.StatusPoiFetched,
			Date:        "2025-03-01",
			Description: "Flooding closes the harbour in Valparaíso",
			Links:       []model.Link{{Source: "wire", URL: "https://example.org/a?x=1&y=2"}},
			POI:         model.POI{Country: model.Str("Chile"), City: model.Str("Valparaíso")},
		},
		{
			Status:      model.StatusCoordinateFetched,
			Date:        "2025-03-01",
			Description: "Summit opens",
			POI:         model.POI{Country: model.Str("Kenya")},
			Coordinate:  model.NewCoordinate(-1.28, 36.82),
		},
	}
}

func TestRecordStore_WriteRead(t *testing.T) {
	s := NewRecordStore(t.TempDir())

	require.NoError(t, s.Write("2025-03-01", sampleRecords()))

	got, err := s.Read("2025-03-01")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.StatusPoiFetched, got[0].Status)
	assert.True(t, got[0].POI.Equal(sampleRecords()[0].POI))
	assert.Nil(t, got[0].Coordinate.Latitude)
	assert.True(t, model.IsValid(got[1].Coordinate))
	assert.InDelta(t, 36.82, *got[1].Coordinate.Longitude, 1e-9)
}

func TestRecordStore_PreservesNonASCIIAndNulls(t *testing.T) {
	dir := t.TempDir()
	s := NewRecordStore(dir)
	require.NoError(t, s.Write("2025-03-01", sampleRecords()))

	data, err := os.ReadFile(filepath.Join(dir, "2025-03-01.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Valparaíso")
	assert.Contains(t, string(data), "a?x=1&y=2")
	assert.Contains(t, string(data), `"state": null`)
	assert.Contains(t, string(data), `"latitude": null`)
}

func TestRecordStore_ReadMissingFile(t *testing.T) {
	s := NewRecordStore(t.TempDir())

	got, err := s.Read("2024-12-31")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordStore_ReadUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	raw := `[{"status":"geocoded_by_hand","date":"2025-03-02","description":"x","links":[],"poi":{"country":"Peru"},"coordinate":{"latitude":null,"longitude":null}}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-02.json"), []byte(raw), 0o644))

	got, err := NewRecordStore(dir).Read("2025-03-02")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.StatusUnknown, got[0].Status)
}

func TestRecordStore_ReadMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-03-02.json"), []byte("{"), 0o644))

	_, err := NewRecordStore(dir).Read("2025-03-02")
	require.Error(t, err)
}

func TestRecordStore_WriteEmptySkipped(t *testing.T) {
	dir := t.TempDir()
	s := NewRecordStore(dir)

	require.NoError(t, s.Write("2025-03-01", nil))
	_, err := os.Stat(s.Path("2025-03-01"))
	assert.True(t, os.IsNotExist(err))
}

func TestRecordStore_InvalidDate(t *testing.T) {
	s := NewRecordStore(t.TempDir())

	_, err := s.Read("../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")

	err = s.Write("2025-13-01", sampleRecords())
	require.Error(t, err)
}

func TestRecordStore_Dates(t *testing.T) {
	dir := t.TempDir()
	s := NewRecordStore(dir)

	dates, err := s.Dates()
	require.NoError(t, err)
	assert.Empty(t, dates)

	require.NoError(t, s.Write("2025-03-01", sampleRecords()))
	require.NoError(t, s.Write("2025-03-03", sampleRecords()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sitemap.json"), []byte("[]"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "2025-03-02.json"), 0o755))

	dates, err = s.Dates()
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03", "2025-03-01"}, dates)
}

func TestRecordStore_DatesMissingDir(t *testing.T) {
	s := NewRecordStore(filepath.Join(t.TempDir(), "nope"))
	dates, err := s.Dates()
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestRecentDates(t *testing.T) {
	now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2025-03-02", "2025-03-01", "2025-02-28"}, RecentDates(now, 3))
	assert.Empty(t, RecentDates(now, 0))
}
