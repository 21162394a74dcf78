// Package plugin defines the live Plugin contract (spec §6.2) and the
// Loader that instantiates enabled plugins from manifests (C2, spec §4.2).
//
// This interface intentionally has exactly two surfaces: construction
// (handled entirely by Factory below) and Execute. The core never holds a
// third, plugin-specific method — that would violate the plugin-agnostic
// invariant of spec §9.
package plugin

import "context"

// Plugin is the unified contract every Medley plugin satisfies (spec
// §6.2). Input plugins are invoked with an empty context and return a
// list of work items (any of type []map[string]any); output plugins are
// invoked with a snapshot of the current match's Results and return a
// single result map (map[string]any with at least a "status" key). The
// core does not distinguish the two statically — it dispatches based on
// the plugin's manifest category (spec §4.4.1 vs §4.4.2).
type Plugin interface {
	Execute(ctx context.Context, input map[string]any) (any, error)
}

// Factory constructs a Plugin instance given its opaque per-plugin
// configuration slice (spec §3.1 "Construction").
type Factory func(config map[string]any) (Plugin, error)
