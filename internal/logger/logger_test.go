package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, "json", slog.LevelInfo))
	log.Info("event received", "event_id", "evt-1")
	log.Debug("hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "event received", rec["msg"])
	assert.Equal(t, "evt-1", rec["event_id"])
}

func TestNewHandler_Text(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, "text", slog.LevelDebug))
	log.Debug("sending", "recipient", "a@example.com")
	assert.Contains(t, buf.String(), "recipient=a@example.com")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifier.log")
	log, closer, err := New(Options{Level: slog.LevelInfo, Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestNew_Stdout(t *testing.T) {
	log, closer, err := New(Options{Level: slog.LevelInfo})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NoError(t, closer.Close())
}
