package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletlink/walletlink-go/pkg/config"
	"github.com/walletlink/walletlink-go/pkg/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, "decode", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "type_id", 17)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "decode", rec["component"])
	assert.Equal(t, float64(17), rec["type_id"])
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "", &buf)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.NotContains(t, buf.String(), "component=")
}

func TestProtocolLoggerDisabled(t *testing.T) {
	l, closeFn, err := ProtocolLogger(config.ProtocolLogConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, log.NoopLogger{}, l)
	assert.NoError(t, closeFn())
}

func TestProtocolLoggerFileAndSlog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.cbor")
	var buf bytes.Buffer
	slogger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "", &buf)

	l, closeFn, err := ProtocolLogger(config.ProtocolLogConfig{Path: path, Slog: true}, slogger)
	require.NoError(t, err)
	_, isMulti := l.(*log.MultiLogger)
	assert.True(t, isMulti)

	l.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: "s1",
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message:   &log.MessageEvent{TypeID: 17, Name: "Features", Size: 4},
	})
	require.NoError(t, closeFn())

	assert.Contains(t, buf.String(), "Features")

	r, err := log.NewReader(path)
	require.NoError(t, err)
	defer r.Close()
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "s1", ev.SessionID)
	require.NotNil(t, ev.Message)
	assert.Equal(t, "Features", ev.Message.Name)
}

func TestProtocolLoggerBadPath(t *testing.T) {
	_, _, err := ProtocolLogger(config.ProtocolLogConfig{Path: filepath.Join(t.TempDir(), "no", "such", "dir", "x.cbor")}, nil)
	assert.Error(t, err)
}
