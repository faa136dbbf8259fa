package cache_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartbrief/internal/cache"
	"smartbrief/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(html string) domain.DigestEntry {
	return domain.DigestEntry{
		Label: "Bengaluru, India",
		HTML:  html,
		Weather: domain.Weather{
			Temperature: 24.5,
			Max:         29.1,
			Min:         19.8,
			FeelsLike:   25.2,
			Sunrise:     "06:09",
			Sunset:      "18:02",
			Condition:   "Partly cloudy",
		},
		News: []domain.Article{
			{Title: "Metro line opens", URL: "https://news.example.com/metro", Snippet: "The new line opens today."},
		},
		CreatedAt: time.Date(2026, 10, 14, 1, 35, 0, 0, time.UTC),
	}
}

func stores(t *testing.T) map[string]cache.Store {
	t.Helper()

	fileStore, err := cache.OpenFile(filepath.Join(t.TempDir(), "cache.json"))
	require.NoError(t, err)

	return map[string]cache.Store{
		"memory": cache.NewMemoryStore(),
		"file":   fileStore,
	}
}

func TestPutKeepsFirstWriter(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first := sampleEntry("<p>first</p>")
			second := sampleEntry("<p>second</p>")

			stored, err := store.Put("2026-10-14", "bengaluru@asia/kolkata", first)
			require.NoError(t, err)
			assert.True(t, stored)

			stored, err = store.Put("2026-10-14", "bengaluru@asia/kolkata", second)
			require.NoError(t, err)
			assert.False(t, stored)

			got, ok := store.Get("2026-10-14", "bengaluru@asia/kolkata")
			require.True(t, ok)
			assert.Equal(t, "<p>first</p>", got.HTML)
		})
	}
}

func TestGetIsScopedToDate(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Put("2026-10-13", "paris@europe/paris", sampleEntry("<p>yesterday</p>"))
			require.NoError(t, err)

			_, ok := store.Get("2026-10-14", "paris@europe/paris")
			assert.False(t, ok)

			_, ok = store.Get("2026-10-13", "paris@europe/paris")
			assert.True(t, ok)
		})
	}
}

func TestDailyQuote(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := store.DailyQuote("2026-10-14")
			assert.False(t, ok)

			stored, err := store.PutDailyQuote("2026-10-14", "Well begun is half done. — Aristotle")
			require.NoError(t, err)
			assert.True(t, stored)

			stored, err = store.PutDailyQuote("2026-10-14", "other")
			require.NoError(t, err)
			assert.False(t, stored)

			stored, err = store.PutDailyQuote("2026-10-15", "")
			require.NoError(t, err)
			assert.False(t, stored, "empty quotes are not stored")

			quote, ok := store.DailyQuote("2026-10-14")
			require.True(t, ok)
			assert.Equal(t, "Well begun is half done. — Aristotle", quote)
		})
	}
}

func TestGetReturnsCopyOfNews(t *testing.T) {
	store := cache.NewMemoryStore()
	_, err := store.Put("2026-10-14", "k", sampleEntry("<p/>"))
	require.NoError(t, err)

	got, _ := store.Get("2026-10-14", "k")
	got.News[0].URL = "https://mutated.example.com"

	again, _ := store.Get("2026-10-14", "k")
	assert.Equal(t, "https://news.example.com/metro", again.News[0].URL)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store, err := cache.OpenFile(path)
	require.NoError(t, err)

	entry := sampleEntry("<p>persisted</p>")
	_, err = store.Put("2026-10-14", "bengaluru@asia/kolkata", entry)
	require.NoError(t, err)
	_, err = store.PutDailyQuote("2026-10-14", "Stay curious.")
	require.NoError(t, err)

	reopened, err := cache.OpenFile(path)
	require.NoError(t, err)

	got, ok := reopened.Get("2026-10-14", "bengaluru@asia/kolkata")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	quote, ok := reopened.DailyQuote("2026-10-14")
	require.True(t, ok)
	assert.Equal(t, "Stay curious.", quote)
}

func TestFileFormatIsDateThenLocality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store, err := cache.OpenFile(path)
	require.NoError(t, err)
	_, err = store.Put("2026-10-14", "bengaluru@asia/kolkata", sampleEntry("<p>x</p>"))
	require.NoError(t, err)
	_, err = store.PutDailyQuote("2026-10-14", "Stay curious.")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]struct {
		Quote     string                     `json:"quote"`
		Locations map[string]json.RawMessage `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))

	require.Contains(t, raw, "2026-10-14")
	assert.Equal(t, "Stay curious.", raw["2026-10-14"].Quote)
	assert.Contains(t, raw["2026-10-14"].Locations, "bengaluru@asia/kolkata")
}

func TestOpenFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := cache.OpenFile(path)
	require.Error(t, err)
}

func TestDocumentDatesSorted(t *testing.T) {
	doc := cache.Document{"2026-10-14": {}, "2026-10-12": {}, "2026-10-13": {}}

	assert.Equal(t, []string{"2026-10-12", "2026-10-13", "2026-10-14"}, doc.Dates())
}

func TestLockRunIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	lock, err := cache.LockRun(path)
	require.NoError(t, err)

	_, err = cache.LockRun(path)
	require.ErrorIs(t, err, cache.ErrLocked)

	require.NoError(t, lock.Unlock())

	again, err := cache.LockRun(path)
	require.NoError(t, err)
	require.NoError(t, again.Unlock())
}
