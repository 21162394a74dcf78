// Package errors defines the orchestrator's error taxonomy (see spec §7).
// Every error type carries enough structure for callers to classify the
// failure and map it to a process exit code without string matching.
package errors

import "fmt"

// ManifestError is raised by the manifest registry (C1) when a plugin.json
// file is missing required fields or a duplicate name is found. Fatal to
// startup.
type ManifestError struct {
	Path    string
	Message string
	Err     error
}

func NewManifestError(path, message string, err error) error {
	return &ManifestError{Path: path, Message: message, Err: err}
}

func (e *ManifestError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("manifest error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("manifest error: %s", e.Message)
}

func (e *ManifestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// LoaderError is raised by the plugin loader (C2) when a locator lookup or
// plugin construction fails. Fatal to startup.
type LoaderError struct {
	Plugin  string
	Message string
	Err     error
}

func NewLoaderError(pluginName, message string, err error) error {
	return &LoaderError{Plugin: pluginName, Message: message, Err: err}
}

func (e *LoaderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Plugin != "" {
		return fmt.Sprintf("loader error [%s]: %s", e.Plugin, e.Message)
	}
	return fmt.Sprintf("loader error: %s", e.Message)
}

func (e *LoaderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ConfigError is raised when the configuration document cannot be read,
// parsed, or fails validation. Fatal to startup (spec §6.4/§6.5 "startup
// errors").
type ConfigError struct {
	Path    string
	Message string
	Err     error
}

func NewConfigError(path, message string, err error) error {
	return &ConfigError{Path: path, Message: message, Err: err}
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path != "" {
		return fmt.Sprintf("config error: %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CycleError is raised by the dependency resolver (C3) when the enabled
// output-plugin subgraph is not acyclic.
type CycleError struct {
	Members []string
}

func NewCycleError(members []string) error {
	return &CycleError{Members: append([]string(nil), members...)}
}

func (e *CycleError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("dependency cycle detected among plugins: %v", e.Members)
}

// DependencyError is raised by the dependency resolver (C3) when an edge
// points to a disabled or unknown plugin.
type DependencyError struct {
	Plugin     string
	Dependency string
}

func NewDependencyError(plugin, dependency string) error {
	return &DependencyError{Plugin: plugin, Dependency: dependency}
}

func (e *DependencyError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %q depends on unknown or disabled plugin %q", e.Plugin, e.Dependency)
}

// PluginFault wraps an unhandled fault raised from inside a plugin's
// Execute call. Classified as a failed outcome; never aborts the batch.
type PluginFault struct {
	Plugin string
	Err    error
}

func NewPluginFault(plugin string, err error) error {
	return &PluginFault{Plugin: plugin, Err: err}
}

func (e *PluginFault) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %q faulted: %v", e.Plugin, e.Err)
}

func (e *PluginFault) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PluginTimeout marks a plugin invocation that exceeded its configured
// deadline. Classified as a failed outcome with error "timeout".
type PluginTimeout struct {
	Plugin string
}

func NewPluginTimeout(plugin string) error {
	return &PluginTimeout{Plugin: plugin}
}

func (e *PluginTimeout) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %q timed out", e.Plugin)
}

// ExpectsUnsatisfied is not an error in the ordinary sense: it documents why
// a plugin was classified not_supported instead of running. It never
// surfaces as a process-fatal error; the engine itself does not construct
// it and reports the missing paths in its plugin_not_supported event.
type ExpectsUnsatisfied struct {
	Plugin  string
	Missing []string
}

func NewExpectsUnsatisfied(plugin string, missing []string) error {
	return &ExpectsUnsatisfied{Plugin: plugin, Missing: append([]string(nil), missing...)}
}

func (e *ExpectsUnsatisfied) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("expects unsatisfied for plugin %q: missing %v", e.Plugin, e.Missing)
}

// TaskRenderError records a template or condition rendering failure for a
// single task. Never aborts the batch; recorded on the TaskOutcome.
type TaskRenderError struct {
	Task string
	Err  error
}

func NewTaskRenderError(task string, err error) error {
	return &TaskRenderError{Task: task, Err: err}
}

func (e *TaskRenderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("task %q render error: %v", e.Task, e.Err)
}

func (e *TaskRenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// TaskIOError records a save-task filesystem failure. Never aborts the
// batch; recorded on the TaskOutcome.
type TaskIOError struct {
	Task string
	Err  error
}

func NewTaskIOError(task string, err error) error {
	return &TaskIOError{Task: task, Err: err}
}

func (e *TaskIOError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("task %q io error: %v", e.Task, e.Err)
}

func (e *TaskIOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Abort marks cancellation by an external signal. The process exits with
// code 3; cmd/medley writes no response document for an aborted batch,
// not even for the Matches that completed before the signal.
type Abort struct {
	Err error
}

func NewAbort(err error) error {
	return &Abort{Err: err}
}

func (e *Abort) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("aborted: %v", e.Err)
	}
	return "aborted"
}

func (e *Abort) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
