// Package diagnostics implements the structured diagnostic event stream of
// spec §6.6: when options.debug is true, events are written as structured
// records to the diagnostic stream (stderr). The engine emits one event
// each for match start, group start (with its ready and deferred plugin
// lists), plugin finish, category propagation, a plugin left not_supported
// by unsatisfied expects, and match finish. No separate plugin-start or
// availability-update event is emitted, and task outcomes are not written
// to this stream.
package diagnostics

import (
	"github.com/google/uuid"

	"github.com/kbrannigan/medley/internal/logger"
)

// Level mirrors the four levels of spec §6.6.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Event is one structured diagnostic record (spec §6.6 field shape).
type Event struct {
	Component  string
	Message    string
	Level      Level
	MatchIndex int
	Plugin     string
	Fields     map[string]any
}

// Sink is the single injected diagnostic stream sink (spec §9 "Global
// state: none required... the diagnostic event stream is a single sink
// injected at process start"). A nil *Sink is a valid no-op sink, matching
// the teacher's nil-receiver-safe Logger pattern.
type Sink struct {
	log     *logger.Logger
	enabled bool
}

// NewSink wraps a logger as the diagnostic stream. Debug emission is
// entirely gated on enabled (spec §6.4 options.debug) rather than on the
// logger's own level, so the gate is explicit and testable independent of
// logger configuration.
func NewSink(log *logger.Logger, enabled bool) *Sink {
	return &Sink{log: log, enabled: enabled}
}

// Emit records one event. No-op when the sink is nil or debug emission is
// disabled.
func (s *Sink) Emit(evt Event) {
	if s == nil || !s.enabled || s.log == nil {
		return
	}

	if evt.Level == "" {
		evt.Level = LevelDebug
	}

	fields := map[string]any{
		"event_id":    uuid.NewString(),
		"match_index": evt.MatchIndex,
	}
	if evt.Plugin != "" {
		fields["plugin"] = evt.Plugin
	}
	for k, v := range evt.Fields {
		fields[k] = v
	}

	derived := s.log.WithComponent(evt.Component).WithFields(fields)
	switch evt.Level {
	case LevelInfo:
		derived.Info(evt.Message)
	case LevelWarn:
		derived.Warn(evt.Message)
	case LevelError:
		derived.Error(nil, evt.Message)
	default:
		derived.Debug(evt.Message)
	}
}
