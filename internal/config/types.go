// Package config implements the configuration surface of spec §6.4: the
// options/plugins/tasks document read from disk at startup, validated, and
// otherwise passed through to plugins and tasks unchanged.
package config

import (
	"path/filepath"

	"github.com/kbrannigan/medley/internal/task"
)

// Options is the core's own configuration surface (spec §6.4). Every
// other key under a plugin or task block is opaque and never validated
// here.
type Options struct {
	DryRun          bool `yaml:"dry_run,omitempty"`
	Debug           bool `yaml:"debug,omitempty"`
	Hardlink        bool `yaml:"hardlink,omitempty"`
	WorkerPoolSize  int  `yaml:"worker_pool_size,omitempty" validate:"omitempty,min=1"`
	PluginTimeoutMs int  `yaml:"plugin_timeout_ms,omitempty" validate:"omitempty,min=0"`

	// MatchParallelism bounds how many Matches run concurrently; 0 or 1
	// means serial across matches, the spec §5 default that preserves
	// output ordering without extra bookkeeping.
	MatchParallelism int `yaml:"match_parallelism,omitempty" validate:"omitempty,min=1"`
}

// PluginConfig is one plugins.<name> block: an enabled flag plus an
// opaque settings map passed through to the plugin's constructor
// verbatim (spec §4.2, §6.4).
type PluginConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:",inline"`
}

// TaskConfig is one entry of the "tasks" list (spec §4.5.2, §6.4). An
// external task (External: true) loads its actual task definition — a
// single task or a list of tasks — from another YAML file at Path,
// resolved relative to the configuration document's own directory; every
// other field is ignored for it.
type TaskConfig struct {
	Name        string `yaml:"name" validate:"required"`
	Type        string `yaml:"type" validate:"required_unless=External true,omitempty,oneof=print save summary"`
	Condition   string `yaml:"condition,omitempty"`
	Template    string `yaml:"template,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	External    bool   `yaml:"external,omitempty"`
	Path        string `yaml:"path,omitempty" validate:"required_if=External true"`
}

// AsTask converts a TaskConfig into the task package's Config shape.
// configDir resolves a relative external task Path against the
// configuration document's own directory rather than the process's
// working directory.
func (t TaskConfig) AsTask(configDir string) task.Config {
	path := t.Path
	if t.External && path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(configDir, path)
	}
	return task.Config{
		Name:        t.Name,
		Type:        task.Type(t.Type),
		Condition:   t.Condition,
		Template:    t.Template,
		Destination: t.Destination,
		External:    t.External,
		Path:        path,
	}
}

// Document is the full configuration document of spec §6.4.
type Document struct {
	Options Options                 `yaml:"options,omitempty"`
	Plugins map[string]PluginConfig `yaml:"plugins,omitempty"`
	Tasks   []TaskConfig            `yaml:"tasks,omitempty" validate:"omitempty,dive"`

	// ConfigDir is the directory holding the loaded configuration file,
	// set by Load; never itself part of the YAML document.
	ConfigDir string `yaml:"-"`
}

// Enabled reports whether a named plugin's configuration marks it
// enabled, satisfying plugin.PluginConfigSource.
func (d *Document) Enabled(name string) bool {
	if d == nil {
		return false
	}
	return d.Plugins[name].Enabled
}

// ConfigFor returns a named plugin's opaque settings map, satisfying
// plugin.PluginConfigSource.
func (d *Document) ConfigFor(name string) map[string]any {
	if d == nil {
		return nil
	}
	return d.Plugins[name].Settings
}

// TaskConfigs converts the configured task list into task.Config values in
// configuration order.
func (d *Document) TaskConfigs() []task.Config {
	out := make([]task.Config, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		out = append(out, t.AsTask(d.ConfigDir))
	}
	return out
}

// Snapshot returns the verbatim document as a plain value, used by the
// response assembler for globals.config (spec §6.1).
func (d *Document) Snapshot() any {
	return d
}
