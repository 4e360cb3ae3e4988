package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json", true)

	log.Info().Msg("hidden")
	log.Warn().Str("path", "/tmp/tasks.json").Msg("sync failed")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "sync failed", rec["message"])
	assert.Equal(t, "/tmp/tasks.json", rec["path"])
}

func TestNew_UnknownLevelFallsBackToWarn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "chatty", "console", true)
	log.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	log.Error().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_Debug(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "DEBUG", "console", true)
	log.Debug().Msg("saved")
	assert.Contains(t, buf.String(), "saved")
}
