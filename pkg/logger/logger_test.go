package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(ComponentGateway, &buf, false)

	log.Info("Gateway starting", "addr", "0.0.0.0:5000")

	out := buf.String()
	assert.Contains(t, out, "[GATEWAY] Gateway starting")
	assert.Contains(t, out, "addr=0.0.0.0:5000")
	assert.NotContains(t, out, "\033[")
}

func TestLoggerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(ComponentStore, &buf, false)

	log.With("backend", "memory").WithGroup("op").Info("done", "name", "list")

	out := buf.String()
	assert.Contains(t, out, "backend=memory")
	assert.Contains(t, out, "op.name=list")
}

func TestLoggerRespectsLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(slog.LevelInfo) })

	var buf bytes.Buffer
	log := NewWithWriter(ComponentHTTP, &buf, false)

	SetLevel(slog.LevelWarn)
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestDocumentHelper(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(ComponentSeed, &buf, false)

	log.Document("properties", "abc", "Seeded")

	assert.True(t, strings.Contains(buf.String(), "[properties/abc] Seeded"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
