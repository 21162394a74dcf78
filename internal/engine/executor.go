package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kbrannigan/medley/internal/diagnostics"
	"github.com/kbrannigan/medley/internal/manifest"
	"github.com/kbrannigan/medley/internal/match"
	"github.com/kbrannigan/medley/internal/plugin"
	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// Runner drives the input phase and per-match output phase of the
// pipeline (C4, spec §4.4).
type Runner struct {
	Manifests        manifest.Set
	Plugins          *plugin.Registry
	Plan             *Plan
	Diagnostics      *diagnostics.Sink
	PluginTimeout    time.Duration // 0 = no timeout (spec §6.4 plugin_timeout_ms)
	WorkerPoolSize   int           // 0 = unbounded within a group
	MatchParallelism int           // 0 or 1 = serial across matches (spec §5 default)
}

// RunInputs drives every enabled input plugin to produce the ordered list
// of seed Matches (spec §4.4.1). Input-plugin order is irrelevant to their
// own outputs but the concatenation across plugins is by plugin name
// ascending, preserving each plugin's internal ordering.
func (r *Runner) RunInputs(ctx context.Context, inputPlugins []string) ([]match.Match, error) {
	names := append([]string(nil), inputPlugins...)
	sort.Strings(names)

	var matches []match.Match
	index := 0

	for _, name := range names {
		p, err := r.Plugins.Get(name)
		if err != nil {
			return nil, streamyerrors.NewLoaderError(name, "input plugin not loaded", err)
		}

		raw, err := p.Execute(ctx, map[string]any{})
		if err != nil {
			return nil, streamyerrors.NewPluginFault(name, err)
		}

		items := coerceItems(raw)
		for _, item := range items {
			inputPath := match.InputPathFrom(item)
			matches = append(matches, match.New(index, inputPath, item))
			index++
		}
	}

	return matches, nil
}

func coerceItems(raw any) []map[string]any {
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	default:
		return nil
	}
}

// RunOutputs runs the output phase for every Match, honoring
// MatchParallelism (spec §5): 0 or 1 serializes them so output stays
// trivially ordered; a higher value runs up to that many Matches'
// RunMatch concurrently while each Match's own group-by-group execution
// is unaffected. If ctx is cancelled, any Match not yet started is left
// with a zero MatchStatus (FinishedAt.IsZero()) for the caller to detect.
func (r *Runner) RunOutputs(ctx context.Context, matches []match.Match) {
	concurrency := r.MatchParallelism
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range matches {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}
			r.RunMatch(ctx, &matches[i])
		}(i)
	}

	wg.Wait()
}

// RunMatch executes the per-match output phase (spec §4.4.2–§4.4.6):
// group-by-group availability gating, outcome classification, category
// propagation, timing, and fault isolation. m is mutated in place.
func (r *Runner) RunMatch(ctx context.Context, m *match.Match) {
	started := time.Now()
	r.diag(diagnostics.LevelDebug, "match_start", m.Index, "", nil)

	var carry []string
	for groupIdx, group := range r.Plan.Groups {
		members := append(append([]string{}, carry...), group...)
		carry = nil

		avail := ComputeAvailability(m.Results)
		var ready []string
		for _, name := range members {
			mf := r.Manifests[name]
			if Ready(mf.Expects, avail) {
				ready = append(ready, name)
			} else {
				carry = append(carry, name)
			}
		}

		r.diag(diagnostics.LevelDebug, "group_start", m.Index, "", map[string]any{"group": groupIdx, "ready": ready, "deferred": carry})

		outcomes := r.runGroup(ctx, ready, snapshot(m.Results))
		for _, name := range ready {
			res := outcomes[name]
			m.Results[name] = res.AsMap()

			status := res.Status.Classify()
			m.Status.Record(name, status)
			r.diag(levelForOutcome(status), "plugin_finish", m.Index, name, map[string]any{"status": string(status)})

			if cat, ok := res.Category(); ok {
				m.Category = cat
				m.Results["category"] = cat
				r.diag(diagnostics.LevelDebug, "category_propagated", m.Index, name, map[string]any{"category": cat})
			}
		}
	}

	// Groups exhausted; anything left in carry never became ready (spec
	// §4.4.2 step 5).
	for _, name := range carry {
		mf := r.Manifests[name]
		missing := Missing(mf.Expects, ComputeAvailability(m.Results))
		m.Status.Record(name, match.StatusNotSupported)
		m.Results[name] = match.PluginResult{
			Status: match.PluginStatus{Success: false, NotSupported: true, Error: "expects unsatisfied"},
		}.AsMap()
		r.diag(diagnostics.LevelDebug, "plugin_not_supported", m.Index, name, map[string]any{"missing": missing})
	}

	finished := time.Now()
	m.Status.Finalize(started, finished)
	finishLevel := diagnostics.LevelWarn
	if m.Status.Success {
		finishLevel = diagnostics.LevelInfo
	}
	r.diag(finishLevel, "match_finish", m.Index, "", map[string]any{"success": m.Status.Success})
}

func snapshot(results map[string]any) map[string]any {
	out := make(map[string]any, len(results))
	for k, v := range results {
		out[k] = v
	}
	return out
}

func (r *Runner) runGroup(ctx context.Context, names []string, pluginCtx map[string]any) map[string]match.PluginResult {
	results := make(map[string]match.PluginResult, len(names))
	if len(names) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	var sem chan struct{}
	if r.WorkerPoolSize > 0 {
		sem = make(chan struct{}, r.WorkerPoolSize)
	}

	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			res := r.invoke(ctx, name, pluginCtx)
			mu.Lock()
			results[name] = res
			mu.Unlock()
		}(name)
	}

	wg.Wait()
	return results
}

func (r *Runner) invoke(ctx context.Context, name string, pluginCtx map[string]any) match.PluginResult {
	p, err := r.Plugins.Get(name)
	if err != nil {
		return synthesizeFailure(time.Now(), time.Now(), fmt.Sprintf("plugin not loaded: %v", err))
	}

	invokeCtx := ctx
	var cancel context.CancelFunc
	if r.PluginTimeout > 0 {
		invokeCtx, cancel = context.WithTimeout(ctx, r.PluginTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := safeExecute(invokeCtx, p, pluginCtx)
	finish := time.Now()

	if err != nil {
		if invokeCtx.Err() == context.DeadlineExceeded {
			return synthesizeFailure(start, finish, "timeout")
		}
		return synthesizeFailure(start, finish, err.Error())
	}

	resultMap, ok := raw.(map[string]any)
	if !ok {
		return synthesizeFailure(start, finish, "invalid result shape")
	}

	return match.ResultFromMap(resultMap)
}

// safeExecute recovers from a panicking plugin body and converts it into
// an ordinary error, per spec §4.4.6: a plugin raising an unhandled fault
// never aborts the match, group, or batch.
func safeExecute(ctx context.Context, p plugin.Plugin, pluginInput map[string]any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return p.Execute(ctx, pluginInput)
}

func synthesizeFailure(started, finished time.Time, reason string) match.PluginResult {
	return match.PluginResult{
		Status: match.PluginStatus{
			Success:      false,
			NotSupported: false,
			StartedAt:    started,
			FinishedAt:   finished,
			DurationMs:   finished.Sub(started).Milliseconds(),
			Error:        reason,
		},
	}
}

func (r *Runner) diag(level diagnostics.Level, event string, matchIndex int, pluginName string, fields map[string]any) {
	if r.Diagnostics == nil {
		return
	}
	r.Diagnostics.Emit(diagnostics.Event{
		Component:  "engine",
		Message:    event,
		Level:      level,
		MatchIndex: matchIndex,
		Plugin:     pluginName,
		Fields:     fields,
	})
}

// levelForOutcome maps a plugin's classified outcome to a diagnostic level,
// mirroring the original's success→info / not_supported→debug / failure→warn
// distinction (spec §6.6's four-level event contract).
func levelForOutcome(status match.Status) diagnostics.Level {
	switch status {
	case match.StatusSuccess:
		return diagnostics.LevelInfo
	case match.StatusNotSupported:
		return diagnostics.LevelDebug
	default:
		return diagnostics.LevelWarn
	}
}
