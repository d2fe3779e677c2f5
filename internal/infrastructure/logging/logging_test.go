package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("text handler filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, config.LoggingConfig{Level: "warn", Format: "text"}, false)
		require.NoError(t, err)

		logger.Info("hidden")
		logger.Warn("shown", "entity", "users")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "msg=shown entity=users")
	})

	t.Run("verbose forces debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, config.LoggingConfig{Level: "error"}, true)
		require.NoError(t, err)

		logger.Debug("details")
		assert.Contains(t, buf.String(), "details")
	})

	t.Run("json handler", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(&buf, config.LoggingConfig{Level: "info", Format: "json"}, false)
		require.NoError(t, err)

		logger.Info("linked", "links", 3)
		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "linked", record["msg"])
		assert.Equal(t, float64(3), record["links"])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, config.LoggingConfig{Format: "xml"}, false)
		assert.Error(t, err)
	})
}
