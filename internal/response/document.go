// Package response implements the Response Assembler (C5, spec §4.5.1):
// it builds the canonical document of spec §6.1 from a completed batch of
// Matches, copying every plugin result verbatim and computing only the
// aggregates the assembler itself owns.
package response

import (
	"sort"
	"time"

	"github.com/kbrannigan/medley/internal/manifest"
	"github.com/kbrannigan/medley/internal/match"
)

// Status is the batch-level globals.status record.
type Status struct {
	Success    bool      `json:"success"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
	Matches    int       `json:"matches"`
	Tasks      int       `json:"tasks"`
	Errors     int       `json:"errors"`
}

// Summary is the batch-level globals.summary record.
type Summary struct {
	InputPluginUsed      string   `json:"input_plugin_used"`
	OutputPluginsUsed    []string `json:"output_plugins_used"`
	Categories           []string `json:"categories"`
	TotalSizeBytes       int64    `json:"total_size_bytes"`
	TotalDurationSeconds float64  `json:"total_duration_seconds"`
}

// Globals is the top-level globals record (spec §6.1).
type Globals struct {
	Status  Status  `json:"status"`
	Summary Summary `json:"summary"`
	Config  any     `json:"config"`
}

// MatchStatus is the per-match core-owned status record.
type MatchStatus struct {
	Success             bool      `json:"success"`
	SuccessPlugins      []string  `json:"success_plugins"`
	FailedPlugins       []string  `json:"failed_plugins"`
	NotSupportedPlugins []string  `json:"not_supported_plugins"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
	DurationMs          int64     `json:"duration_ms"`
}

// MatchOutput is the per-match core-owned output record.
type MatchOutput struct {
	Tasks []match.TaskOutcome `json:"tasks"`
}

// MatchGlobals is the per-match globals record.
type MatchGlobals struct {
	Index     int         `json:"index"`
	InputPath string      `json:"input_path"`
	Status    MatchStatus `json:"status"`
	Output    MatchOutput `json:"output"`
}

// MatchDocument is one entry of the top-level matches array.
type MatchDocument struct {
	Globals MatchGlobals   `json:"globals"`
	Plugins map[string]any `json:"plugins"`
}

// Document is the canonical response document of spec §6.1.
type Document struct {
	Globals Globals         `json:"globals"`
	Matches []MatchDocument `json:"matches"`
}

// Input bundles everything the assembler needs beyond the completed
// Matches slice: it never derives batch-wide facts (enabled outputs, the
// input plugin used, the config snapshot) itself because those facts
// belong to earlier components (C2/C3) and the config surface.
type Input struct {
	Matches          []match.Match
	Manifests        manifest.Set
	EnabledOutputs   []string
	InputPluginNames []string
	ConfigSnapshot   any
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Assemble builds the canonical document (spec §4.5.1). It copies plugin
// results verbatim and computes only the three aggregates the assembler
// owns: per-match status, global status, and global summary.
func Assemble(in Input) Document {
	doc := Document{
		Matches: make([]MatchDocument, 0, len(in.Matches)),
	}

	errorCount := 0
	taskCount := 0
	var totalSize int64
	var totalDuration float64

	for _, m := range in.Matches {
		plugins := make(map[string]any, len(m.Status.SuccessPlugins)+len(m.Status.FailedPlugins)+len(m.Status.NotSupportedPlugins))
		for _, name := range allPluginNames(m.Status) {
			result, ok := m.Results[name].(map[string]any)
			if !ok {
				continue
			}
			plugins[name] = result
			totalSize += conventionalInt(result, "size_bytes")
			totalDuration += conventionalFloat(result, "duration_seconds")
		}

		if len(m.Status.FailedPlugins) > 0 {
			errorCount++
		}
		taskCount += len(m.TaskOutcomes)

		doc.Matches = append(doc.Matches, MatchDocument{
			Globals: MatchGlobals{
				Index:     m.Index,
				InputPath: m.InputPath,
				Status: MatchStatus{
					Success:             m.Status.Success,
					SuccessPlugins:      m.Status.SuccessPlugins,
					FailedPlugins:       m.Status.FailedPlugins,
					NotSupportedPlugins: m.Status.NotSupportedPlugins,
					StartedAt:           m.Status.StartedAt,
					FinishedAt:          m.Status.FinishedAt,
					DurationMs:          m.Status.DurationMs,
				},
				Output: MatchOutput{Tasks: m.TaskOutcomes},
			},
			Plugins: plugins,
		})
	}

	doc.Globals = Globals{
		Status: Status{
			Success:    errorCount == 0,
			StartedAt:  in.StartedAt,
			FinishedAt: in.FinishedAt,
			DurationMs: in.FinishedAt.Sub(in.StartedAt).Milliseconds(),
			Matches:    len(in.Matches),
			Tasks:      taskCount,
			Errors:     errorCount,
		},
		Summary: Summary{
			InputPluginUsed:      firstSorted(in.InputPluginNames),
			OutputPluginsUsed:    sortedCopy(in.EnabledOutputs),
			Categories:           categoriesSupported(in.Manifests, in.EnabledOutputs),
			TotalSizeBytes:       totalSize,
			TotalDurationSeconds: totalDuration,
		},
		Config: in.ConfigSnapshot,
	}

	return doc
}

func allPluginNames(status match.MatchStatus) []string {
	names := make([]string, 0, len(status.SuccessPlugins)+len(status.FailedPlugins)+len(status.NotSupportedPlugins))
	names = append(names, status.SuccessPlugins...)
	names = append(names, status.FailedPlugins...)
	names = append(names, status.NotSupportedPlugins...)
	sort.Strings(names)
	return names
}

func firstSorted(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sorted := sortedCopy(names)
	return sorted[0]
}

func sortedCopy(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

func categoriesSupported(manifests manifest.Set, enabledOutputs []string) []string {
	seen := make(map[string]struct{})
	for _, name := range enabledOutputs {
		m, ok := manifests[name]
		if !ok {
			continue
		}
		for _, cat := range m.CategoriesSupported {
			seen[cat] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// conventionalInt reads an integer-like value at a plugin result's
// top-level conventional path, per spec §6.1 "summed across plugin_results
// whose opaque payloads happen to contain those keys at a conventional
// path". Any other shape or absence contributes zero.
func conventionalInt(result map[string]any, key string) int64 {
	v, ok := result[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func conventionalFloat(result map[string]any, key string) float64 {
	v, ok := result[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
