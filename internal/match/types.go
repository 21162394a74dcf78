// Package match defines the per-unit-of-work data model: Match,
// MatchStatus, PluginResult, and TaskOutcome (spec §3.1).
package match

import (
	"time"

	"github.com/google/uuid"
)

// Status is a plugin's outcome classification for one match (spec
// invariant 5): exactly one of success, not_supported, or failed.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusNotSupported Status = "not_supported"
	StatusFailed       Status = "failed"
)

// PluginStatus is the core-observed status subtree of a plugin result
// (spec §3.1, §6.2). Every other field a plugin returns is opaque.
type PluginStatus struct {
	Success      bool           `json:"success"`
	NotSupported bool           `json:"not_supported,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   time.Time      `json:"finished_at"`
	DurationMs   int64          `json:"duration_ms"`
	Error        string         `json:"error,omitempty"`
	Validation   map[string]any `json:"validation,omitempty"`
}

// Classify returns the three-way outcome of spec invariant 5.
func (s PluginStatus) Classify() Status {
	if s.Success {
		return StatusSuccess
	}
	if s.NotSupported {
		return StatusNotSupported
	}
	return StatusFailed
}

func (s PluginStatus) asMap() map[string]any {
	m := map[string]any{
		"success":       s.Success,
		"not_supported": s.NotSupported,
		"started_at":    s.StartedAt,
		"finished_at":   s.FinishedAt,
		"duration_ms":   s.DurationMs,
	}
	if s.Error != "" {
		m["error"] = s.Error
	}
	if s.Validation != nil {
		m["validation"] = s.Validation
	}
	return m
}

// PluginResult is the payload a plugin returns from Execute, decomposed
// into the core-observed Status subtree and an opaque Data tree holding
// everything else — including, when present, the top-level "category"
// signal (spec §3.1, §9 "Opaque payload" design note).
type PluginResult struct {
	Status PluginStatus
	Data   map[string]any
}

// Category returns the top-level category signal of a plugin result, if
// present, for propagation (spec §4.4.4). The core never inspects any
// other field of Data.
func (r PluginResult) Category() (string, bool) {
	if r.Data == nil {
		return "", false
	}
	v, ok := r.Data["category"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// AsMap flattens a PluginResult into a plain map[string]any so it can be
// spliced into a Match's Results tree and exposed verbatim to downstream
// plugin contexts and the response document (spec §4.5.1 opaqueness rule).
func (r PluginResult) AsMap() map[string]any {
	out := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["status"] = r.Status.asMap()
	return out
}

// ResultFromMap reconstructs the core-observed Status subtree (and opaque
// Data) from a raw map, the inverse of AsMap. Used when a plugin's Execute
// method returns a plain map[string]any rather than a typed PluginResult.
func ResultFromMap(raw map[string]any) PluginResult {
	result := PluginResult{Data: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == "status" {
			continue
		}
		result.Data[k] = v
	}

	statusRaw, _ := raw["status"].(map[string]any)
	result.Status = statusFromMap(statusRaw)
	return result
}

func statusFromMap(raw map[string]any) PluginStatus {
	var s PluginStatus
	if raw == nil {
		return s
	}
	if v, ok := raw["success"].(bool); ok {
		s.Success = v
	}
	if v, ok := raw["not_supported"].(bool); ok {
		s.NotSupported = v
	}
	if v, ok := raw["started_at"].(time.Time); ok {
		s.StartedAt = v
	}
	if v, ok := raw["finished_at"].(time.Time); ok {
		s.FinishedAt = v
	}
	if v, ok := raw["duration_ms"].(int64); ok {
		s.DurationMs = v
	}
	if v, ok := raw["error"].(string); ok {
		s.Error = v
	}
	if v, ok := raw["validation"].(map[string]any); ok {
		s.Validation = v
	}
	return s
}

// MatchStatus aggregates per-match plugin outcomes (spec §3.1).
type MatchStatus struct {
	SuccessPlugins      []string
	FailedPlugins       []string
	NotSupportedPlugins []string
	Success             bool
	StartedAt           time.Time
	FinishedAt          time.Time
	DurationMs          int64
}

// Record appends a plugin name to the appropriate disjoint outcome list
// (spec invariant 6, §4.4.3).
func (s *MatchStatus) Record(name string, status Status) {
	switch status {
	case StatusSuccess:
		s.SuccessPlugins = append(s.SuccessPlugins, name)
	case StatusNotSupported:
		s.NotSupportedPlugins = append(s.NotSupportedPlugins, name)
	default:
		s.FailedPlugins = append(s.FailedPlugins, name)
	}
}

// Finalize computes the aggregate Success flag and timing (spec §4.4.5).
func (s *MatchStatus) Finalize(started, finished time.Time) {
	s.Success = len(s.FailedPlugins) == 0
	s.StartedAt = started
	s.FinishedAt = finished
	s.DurationMs = finished.Sub(started).Milliseconds()
}

// TaskOutcome records the result of a single task execution (spec §3.1).
type TaskOutcome struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Success     bool   `json:"success"`
	Rendered    string `json:"rendered,omitempty"`
	Destination string `json:"destination,omitempty"`
	DryRun      bool   `json:"dry_run,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Match is one unit of work in the batch (spec §3.1). Results holds the
// accumulated, plugin-keyed opaque tree plus whatever flat fields the
// seeding input plugin contributed (e.g. "input"); it is never a typed
// struct because the core must remain agnostic to every plugin's payload
// shape (spec §9 design notes).
type Match struct {
	Index         int
	InputPath     string
	CorrelationID string
	Results       map[string]any
	Category      string
	Status        MatchStatus
	TaskOutcomes  []TaskOutcome
}

// New creates a Match seeded from one input plugin's work item (spec
// §4.4.1). seed is the nested result map the input plugin returned; it
// becomes the Match's entire initial Results tree. inputPath is extracted
// by the caller via the "input" convention documented in spec §9/SPEC_FULL
// Open Question #2.
func New(index int, inputPath string, seed map[string]any) Match {
	results := make(map[string]any, len(seed))
	for k, v := range seed {
		results[k] = v
	}
	return Match{
		Index:         index,
		InputPath:     inputPath,
		CorrelationID: uuid.NewString(),
		Results:       results,
	}
}

// InputPathFrom extracts the flat input_path string from a seed map per
// the convention result["input"] (spec §4.4.1, §9). Any other shape yields
// an empty string rather than an error.
func InputPathFrom(seed map[string]any) string {
	if seed == nil {
		return ""
	}
	s, _ := seed["input"].(string)
	return s
}
