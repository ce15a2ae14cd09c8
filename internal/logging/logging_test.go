package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: FormatJSON, Out: &buf})

	l.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	l.Warn().Str("k", "v").Msg("shown")
	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "shown", event["message"])
	assert.Equal(t, "v", event["k"])
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "chatty", Format: FormatJSON, Out: &buf})
	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Config{Level: "debug", Format: FormatJSON, Out: &buf}), "blob")
	l.Info().Msg("mode=local")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "blob", event["component"])
	assert.Equal(t, "mode=local", event["message"])
}

func TestFormatForEnv(t *testing.T) {
	assert.Equal(t, FormatConsole, FormatForEnv("local"))
	assert.Equal(t, FormatJSON, FormatForEnv("production"))
}
