package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riconcilia/riconcilia/internal/config"
)

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "file", "a.xml")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "file=a.xml")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("row rejected", "row", 4)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "row rejected", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.InDelta(t, 4, rec["row"], 0)
}
