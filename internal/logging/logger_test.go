package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"bogus":   zerolog.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLevel(input), "parseLevel(%q)", input)
	}
}

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	l := WithComponent("catalog")
	l.Info().Str("title", "Heat").Msg("resolved")

	out := buf.String()
	assert.Contains(t, out, `"component":"catalog"`)
	assert.Contains(t, out, `"title":"Heat"`)
	assert.Contains(t, out, `"message":"resolved"`)
}

func TestInitWithRotatingFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "curator.log")
	Init(Config{Level: "info", Output: &buf, File: path, MaxSizeMB: 1})
	t.Cleanup(func() {
		require.NoError(t, Close())
		Init(DefaultConfig())
	})

	Info().Msg("hello")
	assert.True(t, strings.Contains(buf.String(), "hello"))
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf)
	ctx := ContextWithRequestID(context.Background(), "req-1")

	Ctx(ctx, l).Info().Msg("x")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	Ctx(context.Background(), l).Info().Msg("y")
	assert.NotContains(t, buf.String(), "request_id")
}
