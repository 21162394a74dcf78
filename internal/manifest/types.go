// Package manifest implements the Manifest Registry (C1): it enumerates
// plugin.json files under a root directory and produces a validated,
// name-indexed set of Manifests.
package manifest

import "sort"

// Category is the declared role of a plugin within the pipeline.
type Category string

const (
	CategoryInput  Category = "input"
	CategoryOutput Category = "output"
)

// Manifest is the plugin metadata record of spec §3.1.
type Manifest struct {
	Name                string   `json:"name" validate:"required"`
	Version             string   `json:"version" validate:"required"`
	Category            Category `json:"category" validate:"required,oneof=input output"`
	ClassHint           string   `json:"class_hint,omitempty"`
	DependsOn           []string `json:"depends_on,omitempty"`
	Expects             []string `json:"expects,omitempty" validate:"omitempty,dive,expects_path"`
	CategoriesSupported []string `json:"categories_supported,omitempty"`

	// SourceDir is the directory the manifest was loaded from; used by the
	// loader to resolve relative plugin artifacts. Never inspected for
	// conditional logic.
	SourceDir string `json:"-"`
}

// IsOutput reports whether the manifest describes an output plugin.
func (m Manifest) IsOutput() bool {
	return m.Category == CategoryOutput
}

// IsInput reports whether the manifest describes an input plugin.
func (m Manifest) IsInput() bool {
	return m.Category == CategoryInput
}

// Set is the name-indexed collection produced by Load.
type Set map[string]Manifest

// Names returns the manifest names in ascending sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
