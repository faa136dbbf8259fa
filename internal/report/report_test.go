package report_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartbrief/internal/cache"
	"smartbrief/internal/domain"
	"smartbrief/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var entry = domain.DigestEntry{
	Label: "Bengaluru, IN",
	HTML:  "<!DOCTYPE html><html><body><p>Good Morning</p></body></html>",
	Weather: domain.Weather{
		Temperature: 21.3, Min: 19, Max: 28.4, FeelsLike: 24.1,
		Sunrise: "06:08", Sunset: "18:01", Condition: "Partly cloudy", UVIndex: 7.5,
	},
	News: []domain.Article{
		{Title: "Metro line opens", URL: "https://a.example.com/metro", Snippet: "Purple line.", Source: "The Hindu"},
		{Title: "Rain expected", URL: "https://b.example.com/rain"},
	},
	CreatedAt: time.Date(2026, time.October, 14, 1, 35, 0, 0, time.UTC),
}

func writeCache(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "digest_cache.json")

	store, err := cache.OpenFile(path)
	require.NoError(t, err)

	_, err = store.Put("2026-10-14", "bengaluru@asia/kolkata", entry)
	require.NoError(t, err)
	_, err = store.PutDailyQuote("2026-10-14", "“Begin.” — Anon")
	require.NoError(t, err)
	_, err = store.Put("2026-10-13", "oslo@europe/oslo", entry)
	require.NoError(t, err)

	return path
}

func TestLoadRoundTrip(t *testing.T) {
	path := writeCache(t)

	day, err := report.Load(path, "2026-10-14")
	require.NoError(t, err)

	require.True(t, day.Found)
	assert.Equal(t, "“Begin.” — Anon", day.Quote)
	assert.Equal(t, []string{"2026-10-13", "2026-10-14"}, day.Available)
	require.Len(t, day.Locations, 1)

	loc := day.Locations[0]
	assert.Equal(t, "bengaluru@asia/kolkata", loc.Key)
	assert.Equal(t, entry.Label, loc.Label)
	assert.Equal(t, entry.Weather, loc.Weather)
	assert.Equal(t, entry.News, loc.News)
	assert.Equal(t, entry.HTML, loc.HTML)
	assert.True(t, entry.CreatedAt.Equal(loc.CreatedAt))
}

func TestWriteJSONRoundTrip(t *testing.T) {
	day, err := report.Load(writeCache(t), "2026-10-14")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, day.WriteJSON(&buf))
	assert.Contains(t, buf.String(), "<!DOCTYPE html>", "html is not escaped")

	var decoded report.Day
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, day.Quote, decoded.Quote)
	require.Len(t, decoded.Locations, 1)
	assert.Equal(t, entry.Weather, decoded.Locations[0].Weather)
	assert.Equal(t, entry.News, decoded.Locations[0].News)
}

func TestWriteText(t *testing.T) {
	day, err := report.Load(writeCache(t), "2026-10-14")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, day.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "SmartBrief cache for 2026-10-14: 1 localities")
	assert.Contains(t, out, "Quote: “Begin.” — Anon")
	assert.Contains(t, out, "[bengaluru@asia/kolkata] Bengaluru, IN")
	assert.Contains(t, out, "Partly cloudy, 19.0 to 28.4°C")
	assert.Contains(t, out, "1. Metro line opens\n       https://a.example.com/metro")
	assert.Contains(t, out, "created 2026-10-14T01:35:00Z")
}

func TestLoadMissingDate(t *testing.T) {
	day, err := report.Load(writeCache(t), "2026-10-15")
	require.NoError(t, err)

	assert.False(t, day.Found)
	assert.Empty(t, day.Locations)

	var buf bytes.Buffer
	require.NoError(t, day.WriteText(&buf))
	assert.Equal(t, "No cached digests for 2026-10-15.\nCached dates: 2026-10-13, 2026-10-14\n", buf.String())
}

func TestLoadErrors(t *testing.T) {
	_, err := report.Load(filepath.Join(t.TempDir(), "missing.json"), "14-10-2026")
	require.Error(t, err)

	corrupt := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o600))

	_, err = report.Load(corrupt, "2026-10-14")
	require.Error(t, err)

	day, err := report.Load(filepath.Join(t.TempDir(), "missing.json"), "2026-10-14")
	require.NoError(t, err)
	assert.False(t, day.Found)
	assert.Empty(t, day.Available)
}
