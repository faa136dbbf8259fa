package mailer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMsg(t *testing.T) {
	m, err := buildMsg(From{Name: "SmartBrief", Address: "brief@example.com"}, Message{
		To:      "ola@example.com",
		Subject: "Morning",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "SmartBrief")
	assert.Contains(t, raw, "<brief@example.com>")
	assert.Contains(t, raw, "<ola@example.com>")
	assert.Contains(t, raw, "Subject: Morning")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
}

func TestBuildMsgRejectsBadRecipient(t *testing.T) {
	_, err := buildMsg(From{Address: "brief@example.com"}, Message{To: "not an address"})

	assert.Error(t, err)
}

func TestNewSMTPRequiresHost(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{Port: 465}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}
