package logging

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

func TestNew_InvalidLevel(t *testing.T) {
	_, closer, err := New("loud", "", false)
	require.Error(t, err)
	closer()
}

func TestNew_WritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "masthead.log")

	l, closer, err := New("info", file, false)
	require.NoError(t, err)

	l.Debug().Msg("hidden")
	cl := Component(l, "overview")
	cl.Error().Str("section", "Art").Msg("section fetch failed")
	closer()

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "overview", entry["component"])
	assert.Equal(t, "Art", entry["section"])
	assert.Contains(t, entry, zerolog.TimestampFieldName)
}
