package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNew_JSONLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)

	ctx := context.Background()
	log.Debug(ctx, "hidden", "a", 1)
	log.Info(ctx, "page loaded", "offset", 10, "count", 5)
	log.Error(ctx, "fetch failed", "error", errors.New("boom"))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "page loaded", lines[0]["message"])
	assert.EqualValues(t, 10, lines[0]["offset"])
	assert.EqualValues(t, 5, lines[0]["count"])

	assert.Equal(t, "error", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	child := log.With("surface", "roadmap")
	child.Warn(context.Background(), "rolled back", "ticket", "t1")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "roadmap", lines[0]["surface"])
	assert.Equal(t, "t1", lines[0]["ticket"])
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "verbose"}},
		{"bad format", Config{Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "logger config validation error")
		})
	}
}

func TestFields_OddArgs(t *testing.T) {
	m := fields([]any{"a", 1, 42, "b", "c", "dangling"})
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, "c", m["b"])
	assert.Equal(t, "dangling", m["!BADKEY"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Info(context.Background(), "x")
	assert.NotNil(t, l.With("k", "v"))
}

func TestNew_TextFormatUsesSlog(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "text", Output: &buf})
	require.NoError(t, err)

	_, ok := log.(*SlogLogger)
	require.True(t, ok)

	log.Info(context.Background(), "hidden")
	log.With("surface", "changelog").Warn(context.Background(), "shown", "offset", 30)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "surface=changelog")
	assert.Contains(t, out, "offset=30")
}
