package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartbrief/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("NEWS_API_KEY", "news-test")
	t.Setenv("SENDER_EMAIL", "brief@example.com")
	t.Setenv("SENDER_PASSWORD", "secret")
	t.Setenv("SUBSCRIBER_BRIDGE_URL", "https://bridge.example.com/exec")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.DispatchHour)
	assert.Equal(t, time.Hour, cfg.DispatchWindow)
	assert.Equal(t, 5, cfg.NewsTargetCount)
	assert.Equal(t, config.StoreBridge, cfg.SubscriberStore)
	assert.Equal(t, config.TransportSMTP, cfg.MailTransport)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, "digest_cache.json", cfg.CachePath)
	assert.Equal(t, 10*time.Minute, cfg.RunTimeout)
}

func TestLoadInspectNeedsNoSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("CACHE_PATH", "/var/lib/smartbrief/cache.json")

	cfg, err := config.LoadInspect(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/smartbrief/cache.json", cfg.CachePath)
}

func TestLoadMissingSecretIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("NEWS_API_KEY", "")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWS_API_KEY")
}

func TestLoadReadsDotenvFile(t *testing.T) {
	setRequired(t)
	os.Unsetenv("OPENAI_MODEL")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_MODEL=gpt-test\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("OPENAI_MODEL") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.OpenAIModel)
}

func TestValidate(t *testing.T) {
	base := config.Config{
		SubscriberStore:     config.StoreBridge,
		SubscriberBridgeURL: "https://bridge.example.com",
		MailTransport:       config.TransportSMTP,
		SenderPassword:      "secret",
		DispatchHour:        7,
		DispatchWindow:      time.Hour,
		NewsTargetCount:     5,
		RunTimeout:          10 * time.Minute,
	}
	require.NoError(t, base.Validate())

	noBridge := base
	noBridge.SubscriberBridgeURL = ""
	assert.ErrorContains(t, noBridge.Validate(), "SUBSCRIBER_BRIDGE_URL")

	ses := base
	ses.MailTransport = config.TransportSES
	ses.SenderPassword = ""
	assert.NoError(t, ses.Validate())

	smtpNoPassword := base
	smtpNoPassword.SenderPassword = ""
	assert.ErrorContains(t, smtpNoPassword.Validate(), "SENDER_PASSWORD")

	wideWindow := base
	wideWindow.DispatchWindow = 2 * time.Hour
	assert.ErrorContains(t, wideWindow.Validate(), "DISPATCH_WINDOW")

	badHour := base
	badHour.DispatchHour = 24
	assert.ErrorContains(t, badHour.Validate(), "DISPATCH_HOUR")
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, config.Config{LogLevel: "debug"}.SlogLevel())
	assert.Equal(t, slog.LevelInfo, config.Config{LogLevel: "nonsense"}.SlogLevel())
}
