// Package engine implements the Dependency Resolver (C3) and Pipeline
// Executor (C4): static Kahn-layering of output plugins into parallel-safe
// Groups, the runtime "expects" readiness predicate, and the per-match
// group-by-group driver with outcome classification, category propagation,
// timing, and fault isolation (spec §4.3, §4.4).
package engine

import (
	"sort"
	"strings"

	"github.com/kbrannigan/medley/internal/manifest"
	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// Group is a set of plugin names eligible for concurrent invocation within
// one layer of the execution plan (spec §3.1 "Execution Plan").
type Group []string

// Plan is the ordered sequence of Groups produced by the resolver.
type Plan struct {
	Groups []Group
}

// BuildPlan performs Kahn's-algorithm layering over the subgraph induced
// by enabled output plugins (spec §4.3 static planning). Edges pointing to
// a disabled or unknown plugin are a DependencyError; any residual nodes
// after layering are a CycleError naming the residual set.
func BuildPlan(manifests manifest.Set, enabled map[string]bool) (*Plan, error) {
	nodes := make(map[string]manifest.Manifest)
	for name, m := range manifests {
		if !m.IsOutput() || !enabled[name] {
			continue
		}
		nodes[name] = m
	}

	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for name := range nodes {
		indegree[name] = 0
	}

	for name, m := range nodes {
		for _, dep := range m.DependsOn {
			depManifest, known := manifests[dep]
			if !known || !depManifest.IsOutput() || !enabled[dep] {
				return nil, streamyerrors.NewDependencyError(name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}

		for _, expect := range m.Expects {
			source := expectsSource(expect)
			sourceManifest, known := manifests[source]
			if !known || !sourceManifest.IsOutput() || !enabled[source] {
				return nil, streamyerrors.NewDependencyError(name, source)
			}
		}
	}

	var groups []Group
	remaining := len(nodes)

	for remaining > 0 {
		var zero []string
		for name, degree := range indegree {
			if degree == 0 {
				zero = append(zero, name)
			}
		}

		if len(zero) == 0 {
			return nil, streamyerrors.NewCycleError(residual(indegree))
		}

		sort.Strings(zero)
		groups = append(groups, Group(zero))

		for _, name := range zero {
			delete(indegree, name)
			remaining--
		}
		for _, name := range zero {
			for _, dependent := range dependents[name] {
				if _, ok := indegree[dependent]; ok {
					indegree[dependent]--
				}
			}
		}
	}

	return &Plan{Groups: groups}, nil
}

// expectsSource returns an expects entry's first path segment — the plugin
// it names as the source of that data (spec §4.3 invariant: "every name in
// depends_on and expects (its first path segment) must resolve to a known,
// enabled plugin of category output").
func expectsSource(expect string) string {
	if idx := strings.IndexByte(expect, '.'); idx >= 0 {
		return expect[:idx]
	}
	return expect
}

func residual(indegree map[string]int) []string {
	names := make([]string, 0, len(indegree))
	for name := range indegree {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
