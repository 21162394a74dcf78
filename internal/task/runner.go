// Package task implements the Task Runner half of C5 (spec §4.5.2): it
// evaluates user-defined tasks against each Match after its output phase,
// rendering print/save/summary actions from templates and recording a
// TaskOutcome for every task it evaluates, whether a falsy condition skips
// it, it succeeds, or it fails. A summary task on any Match other than the
// last is passed over without an outcome.
package task

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"github.com/kbrannigan/medley/internal/match"
	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// Type is a task's action kind (spec §4.5.2).
type Type string

const (
	TypePrint   Type = "print"
	TypeSave    Type = "save"
	TypeSummary Type = "summary"
)

// Config is one user-defined task record (spec §6.4 "tasks").
type Config struct {
	Name string
	Type Type

	// Condition is an expr-lang expression evaluated against the render
	// context; a falsy result skips the task (step 3).
	Condition string

	// Template renders the task's primary text. For print and summary
	// tasks this is the emitted text; for save tasks it renders the
	// source file path being placed.
	Template string

	// Destination is rendered only for save tasks: the target path for
	// the move/hardlink file placement operation.
	Destination string

	// External, when set, loads the actual task (or list of tasks) from
	// the YAML file at Path instead of using Type/Condition/Template/
	// Destination directly. Path is resolved by the caller (spec §6.4
	// "path resolved relative to the configuration document").
	External bool
	Path     string
}

// FilePlacer performs a save task's file placement. Injected so the
// runner is testable without touching a real filesystem.
type FilePlacer interface {
	Place(src, dst string, hardlink bool) error
}

type osPlacer struct{}

func (osPlacer) Place(src, dst string, hardlink bool) error {
	if hardlink {
		return os.Link(src, dst)
	}
	return os.Rename(src, dst)
}

// Runner executes tasks against each Match (C5 task runner, spec §4.5.2).
type Runner struct {
	Tasks    []Config
	DryRun   bool
	Hardlink bool
	Out      io.Writer
	Placer   FilePlacer

	mu           sync.Mutex // guards Out writes (spec §5 "line-atomic" output)
	destinations map[string]struct{}
}

// NewRunner constructs a Runner with the OS file placer.
func NewRunner(tasks []Config, dryRun, hardlink bool, out io.Writer) *Runner {
	return &Runner{
		Tasks:        tasks,
		DryRun:       dryRun,
		Hardlink:     hardlink,
		Out:          out,
		Placer:       osPlacer{},
		destinations: make(map[string]struct{}),
	}
}

// Run evaluates every configured task for one Match, in configuration
// order (spec §4.5.2 step 1). isLast gates summary tasks (step 2);
// globalsSoFar and matchContexts populate the render context (step 4).
// Outcomes are appended to m.TaskOutcomes.
func (r *Runner) Run(m *match.Match, isLast bool, globalsSoFar map[string]any, matchContexts []map[string]any) {
	for _, cfg := range r.Tasks {
		if cfg.Type == TypeSummary && !isLast {
			continue
		}
		outcome := r.runOne(m, cfg, globalsSoFar, matchContexts)
		m.TaskOutcomes = append(m.TaskOutcomes, outcome)
	}
}

func (r *Runner) runOne(m *match.Match, cfg Config, globalsSoFar map[string]any, matchContexts []map[string]any) match.TaskOutcome {
	if cfg.External {
		return r.runExternal(m, cfg, globalsSoFar, matchContexts)
	}

	outcome := match.TaskOutcome{Name: cfg.Name, Type: string(cfg.Type)}

	ctx := BuildMatchContext(m, globalsSoFar, matchContexts)

	if cfg.Condition != "" {
		ok, err := evalCondition(cfg.Condition, ctx)
		if err != nil {
			outcome.Error = streamyerrors.NewTaskRenderError(cfg.Name, err).Error()
			return outcome
		}
		if !ok {
			return outcome
		}
	}

	rendered, err := renderTemplate(cfg.Name, cfg.Template, ctx)
	if err != nil {
		outcome.Error = streamyerrors.NewTaskRenderError(cfg.Name, err).Error()
		return outcome
	}
	outcome.Rendered = rendered

	switch cfg.Type {
	case TypePrint, TypeSummary:
		r.print(rendered)
		outcome.Success = true

	case TypeSave:
		destination, err := renderTemplate(cfg.Name, cfg.Destination, ctx)
		if err != nil {
			outcome.Error = streamyerrors.NewTaskRenderError(cfg.Name, err).Error()
			return outcome
		}
		destination = r.uniqueDestination(destination)
		outcome.Destination = destination
		outcome.DryRun = r.DryRun

		if r.DryRun {
			outcome.Success = true
			return outcome
		}

		if err := r.Placer.Place(rendered, destination, r.Hardlink); err != nil {
			outcome.Error = streamyerrors.NewTaskIOError(cfg.Name, err).Error()
			return outcome
		}
		outcome.Success = true

	default:
		outcome.Error = fmt.Sprintf("unknown task type %q", cfg.Type)
	}

	return outcome
}

// runExternal loads the task (or list of tasks) named by cfg.Path and
// runs each in turn, reporting the outcome of the last one — matching
// how an external file containing several tasks is folded into the one
// "tasks" entry that pointed at it.
func (r *Runner) runExternal(m *match.Match, cfg Config, globalsSoFar map[string]any, matchContexts []map[string]any) match.TaskOutcome {
	outcome := match.TaskOutcome{Name: cfg.Name, Type: "external"}

	subTasks, err := loadExternalTasks(cfg.Path)
	if err != nil {
		outcome.Error = streamyerrors.NewTaskRenderError(cfg.Name, err).Error()
		return outcome
	}

	for _, sub := range subTasks {
		outcome = r.runOne(m, sub, globalsSoFar, matchContexts)
	}
	return outcome
}

// externalTaskYAML is the shape of one task record inside an external
// task file — deliberately independent of config.TaskConfig, since
// internal/config already depends on internal/task and importing it back
// here would cycle.
type externalTaskYAML struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Condition   string `yaml:"condition"`
	Template    string `yaml:"template"`
	Destination string `yaml:"destination"`
}

func (t externalTaskYAML) toConfig() Config {
	return Config{
		Name:        t.Name,
		Type:        Type(t.Type),
		Condition:   t.Condition,
		Template:    t.Template,
		Destination: t.Destination,
	}
}

// loadExternalTasks reads path as either a single task record or a list
// of task records, per spec §6.4's external task file shape.
func loadExternalTasks(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var asList []externalTaskYAML
	if err := yaml.Unmarshal(data, &asList); err == nil && asList != nil {
		out := make([]Config, len(asList))
		for i, t := range asList {
			out[i] = t.toConfig()
		}
		return out, nil
	}

	var asOne externalTaskYAML
	if err := yaml.Unmarshal(data, &asOne); err != nil {
		return nil, err
	}
	return []Config{asOne.toConfig()}, nil
}

func (r *Runner) print(text string) {
	if r.Out == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Out, text)
}

// uniqueDestination applies the monotone numeric suffix rule of spec §5:
// "it must generate unique destination paths when the target already
// exists". Uniqueness is tracked both against destinations already chosen
// this run and, when not a dry run, against the filesystem.
func (r *Runner) uniqueDestination(dest string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)

	candidate := dest
	for i := 0; ; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
		}

		if _, seen := r.destinations[candidate]; seen {
			continue
		}
		if !r.DryRun {
			if _, err := os.Stat(candidate); err == nil {
				continue
			}
		}

		r.destinations[candidate] = struct{}{}
		return candidate
	}
}

// BuildMatchContext assembles the per-task render context (spec §4.5.2
// step 4): the Match's results at the top level, core-owned per-match
// fields, the response-so-far globals, and the other-matches-by-position
// slice. Exported so callers can build the matchContexts slice itself from
// matches already processed.
func BuildMatchContext(m *match.Match, globalsSoFar map[string]any, matchContexts []map[string]any) map[string]any {
	ctx := make(map[string]any, len(m.Results)+5)
	for k, v := range m.Results {
		ctx[k] = v
	}
	ctx["index"] = m.Index
	ctx["input_path"] = m.InputPath
	ctx["category"] = m.Category
	ctx["correlation_id"] = m.CorrelationID
	ctx["status"] = map[string]any{
		"success":             m.Status.Success,
		"success_plugins":     m.Status.SuccessPlugins,
		"failed_plugins":      m.Status.FailedPlugins,
		"not_supported_plugins": m.Status.NotSupportedPlugins,
	}
	ctx["globals"] = globalsSoFar
	ctx["matches"] = matchContexts
	return ctx
}

// evalCondition compiles and runs a condition expression with expr-lang,
// allowing undefined variables so a plugin field absent for this Match
// evaluates to falsy rather than a compile error.
func evalCondition(expression string, ctx map[string]any) (bool, error) {
	program, err := expr.Compile(expression, expr.Env(ctx), expr.AllowUndefinedVariables())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, ctx)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

func renderTemplate(name, text string, ctx map[string]any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}
