package diagnostics

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbrannigan/medley/internal/logger"
)

func TestEmitNoopWhenDisabled(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	sink := NewSink(log, false)
	sink.Emit(Event{Component: "engine", Message: "group_start"})

	assert.Equal(t, "", strings.TrimSpace(buf.String()))
}

func TestEmitWritesStructuredFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	sink := NewSink(log, true)
	sink.Emit(Event{
		Component:  "engine",
		Message:    "plugin_finish",
		MatchIndex: 3,
		Plugin:     "probe",
		Fields:     map[string]any{"status": "success"},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "plugin_finish", entry["message"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "probe", entry["plugin"])
	assert.Equal(t, "success", entry["status"])
	assert.NotEmpty(t, entry["event_id"])
}

func TestEmitInfoLevelReachesLoggerInfo(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Options{Level: "debug", Writer: buf})
	require.NoError(t, err)

	sink := NewSink(log, true)
	sink.Emit(Event{
		Component: "engine",
		Message:   "plugin_finish",
		Level:     LevelInfo,
		Plugin:    "probe",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "engine", entry["component"])
}

func TestEmitNilSinkIsSafe(t *testing.T) {
	t.Parallel()

	var sink *Sink
	assert.NotPanics(t, func() {
		sink.Emit(Event{Component: "engine", Message: "noop"})
	})
}
