package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Format: "json", Output: &buf})

	l.WithComponent("search").Info().Str("index", "movies").Msg("Firing search")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "search", line["component"])
	assert.Equal(t, "movies", line["index"])
	assert.Equal(t, "Firing search", line["message"])
}

func TestNew_FileOutput(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l := New(Config{Format: "json", Path: dir, Output: &buf})

	l.Info().Msg("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestNew_RecentEntries(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "console", Output: &buf, RecentEntries: 2})

	l.Info().Msg("one")
	session := l.WithComponent("session")
	assert.Same(t, l.Recent(), session.Recent())
	session.Warn().Str("id", "abc").Msg("two")
	l.Info().Msg("three")

	entries := l.Recent().Entries(0)
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, "warn", entries[0].Level)
	assert.Equal(t, "session", entries[0].Component)
	assert.Equal(t, "abc", entries[0].Fields["id"])
	assert.NotEmpty(t, entries[0].Timestamp)
	assert.Equal(t, "three", entries[1].Message)
	assert.Contains(t, buf.String(), "three")
}

func TestNew_RecentDisabled(t *testing.T) {
	l := New(Config{Output: &bytes.Buffer{}})
	assert.Nil(t, l.Recent())
	assert.NoError(t, l.Close())
}

func TestRecent(t *testing.T) {
	r := NewRecent(3)

	_, err := r.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())

	for _, msg := range []string{"a", "b", "c", "d"} {
		_, err := r.Write([]byte(`{"level":"info","message":"` + msg + `"}`))
		require.NoError(t, err)
	}

	assert.Equal(t, 3, r.Len())
	entries := r.Entries(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "d", entries[2].Message)
	assert.Nil(t, entries[0].Fields)

	last := r.Entries(1)
	require.Len(t, last, 1)
	assert.Equal(t, "d", last[0].Message)
}
