package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"smartbrief/internal/cache"
	"smartbrief/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	flagJSON, flagCachePath = false, ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digest_cache.json")

	store, err := cache.OpenFile(path)
	require.NoError(t, err)
	_, err = store.Put("2026-10-14", "oslo@europe/oslo", domain.DigestEntry{
		Label:     "Oslo, NO",
		HTML:      "<p>God morgen</p>",
		Weather:   domain.Weather{Min: 2, Max: 9, Condition: "Overcast"},
		News:      []domain.Article{{Title: "Fjord bridge opens", URL: "https://n.example.com/bridge"}},
		CreatedAt: time.Date(2026, time.October, 14, 5, 5, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	t.Setenv("CACHE_PATH", path)

	out, err := execute(t, "inspect", "2026-10-14")
	require.NoError(t, err)
	assert.Contains(t, out, "[oslo@europe/oslo] Oslo, NO")
	assert.Contains(t, out, "https://n.example.com/bridge")

	out, err = execute(t, "inspect", "2026-10-14", "--json")
	require.NoError(t, err)

	var decoded struct {
		Found     bool `json:"found"`
		Locations []struct {
			Key string `json:"key"`
		} `json:"locations"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.True(t, decoded.Found)
	require.Len(t, decoded.Locations, 1)
	assert.Equal(t, "oslo@europe/oslo", decoded.Locations[0].Key)

	out, err = execute(t, "inspect", "2026-10-15", "--cache", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No cached digests for 2026-10-15.")
}

func TestInspectRejectsBadDate(t *testing.T) {
	t.Setenv("CACHE_PATH", filepath.Join(t.TempDir(), "digest_cache.json"))

	_, err := execute(t, "inspect", "yesterday")
	assert.Error(t, err)
}

func TestRunOnceFailsWithoutSecrets(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("NEWS_API_KEY", "")
	t.Setenv("SENDER_EMAIL", "")

	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestScheduleRejectsWideCadence(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEWS_API_KEY", "news-test")
	t.Setenv("SENDER_EMAIL", "brief@example.com")
	t.Setenv("SENDER_PASSWORD", "secret")
	t.Setenv("SUBSCRIBER_BRIDGE_URL", "https://bridge.example.com/exec")
	t.Setenv("SCHEDULE", "0 */2 * * *")

	_, err := execute(t, "schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dispatch window")
}
