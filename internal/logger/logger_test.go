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

// capture swaps the global logger for a JSON one over buf.
func capture(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Logger
	Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	t.Cleanup(func() { Logger = prev })
	return &buf
}

func TestLevels(t *testing.T) {
	buf := capture(t, slog.LevelDebug)

	tests := []struct {
		level string
		fn    func(string, ...any)
	}{
		{"DEBUG", Debug},
		{"INFO", Info},
		{"WARN", Warn},
		{"ERROR", Error},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.fn("poll finished", "period", "7d")

			var rec struct {
				Level  string `json:"level"`
				Msg    string `json:"msg"`
				Period string `json:"period"`
			}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
			assert.Equal(t, tt.level, rec.Level)
			assert.Equal(t, "poll finished", rec.Msg)
			assert.Equal(t, "7d", rec.Period)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want slog.Level
	}{
		{"Debug", "debug", slog.LevelDebug},
		{"PaddedUpper", " DEBUG ", slog.LevelDebug},
		{"Warn", "warn", slog.LevelWarn},
		{"Warning", "warning", slog.LevelWarn},
		{"Error", "error", slog.LevelError},
		{"Info", "info", slog.LevelInfo},
		{"Empty", "", slog.LevelInfo},
		{"Unknown", "verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestConfigure_FiltersLevel(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	var buf bytes.Buffer
	Configure(&buf, "warn")
	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetup(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "udt.log")
	closer, err := Setup(path, "debug")
	require.NoError(t, err)
	Debug("written to file", "key", "value")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), "key=value")
}

func TestSetup_BadPath(t *testing.T) {
	_, err := Setup(filepath.Join(t.TempDir(), "missing", "udt.log"), "info")
	assert.Error(t, err)
}
