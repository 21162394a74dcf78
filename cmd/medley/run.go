package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbrannigan/medley/internal/config"
	"github.com/kbrannigan/medley/internal/diagnostics"
	"github.com/kbrannigan/medley/internal/engine"
	"github.com/kbrannigan/medley/internal/logger"
	"github.com/kbrannigan/medley/internal/manifest"
	"github.com/kbrannigan/medley/internal/match"
	"github.com/kbrannigan/medley/internal/plugin"
	"github.com/kbrannigan/medley/internal/response"
	"github.com/kbrannigan/medley/internal/task"
	streamyerrors "github.com/kbrannigan/medley/pkg/errors"
)

// runBatch implements the default CLI invocation of spec §6.5: load
// configuration, load and plan plugins, run the batch, assemble the
// response, and emit it to standard output. It never returns a non-nil
// error for ordinary batch failures (failed plugins surface only in the
// response document and exit code); a non-nil error here means a startup
// or runtime fault that aborted the whole process.
func runBatch(cmd *cobra.Command, flags *rootFlags) error {
	doc, code, err := execute(cmd, flags)
	exitCode = code
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if encErr := encoder.Encode(doc); encErr != nil {
		exitCode = 3
		return encErr
	}

	return nil
}

func execute(cmd *cobra.Command, flags *rootFlags) (*response.Document, int, error) {
	configPath := flags.configPath
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, 2, err
	}

	cfg.Options.DryRun = cfg.Options.DryRun || flags.dryRun
	cfg.Options.Debug = cfg.Options.Debug || flags.debug
	cfg.Options.Hardlink = cfg.Options.Hardlink || flags.hardlink

	level := "info"
	if cfg.Options.Debug {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Writer: os.Stderr})
	if err != nil {
		return nil, 2, streamyerrors.NewConfigError(configPath, "failed to construct logger", err)
	}
	sink := diagnostics.NewSink(log, cfg.Options.Debug)

	manifests, err := manifest.Load(flags.pluginsDir)
	if err != nil {
		return nil, 2, err
	}

	registry, err := plugin.LoadEnabled(manifests, cfg)
	if err != nil {
		return nil, 2, err
	}

	var inputNames, outputNames []string
	for _, name := range manifests.Names() {
		if !cfg.Enabled(name) {
			continue
		}
		m := manifests[name]
		if m.IsInput() {
			inputNames = append(inputNames, name)
		} else {
			outputNames = append(outputNames, name)
		}
	}
	sort.Strings(inputNames)
	sort.Strings(outputNames)

	enabledOutputs := make(map[string]bool, len(outputNames))
	for _, name := range outputNames {
		enabledOutputs[name] = true
	}

	plan, err := engine.BuildPlan(manifests, enabledOutputs)
	if err != nil {
		return nil, 2, err
	}

	var timeout time.Duration
	if cfg.Options.PluginTimeoutMs > 0 {
		timeout = time.Duration(cfg.Options.PluginTimeoutMs) * time.Millisecond
	}

	runner := &engine.Runner{
		Manifests:        manifests,
		Plugins:          registry,
		Plan:             plan,
		Diagnostics:      sink,
		PluginTimeout:    timeout,
		WorkerPoolSize:   cfg.Options.WorkerPoolSize,
		MatchParallelism: cfg.Options.MatchParallelism,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	matches, err := runner.RunInputs(ctx, inputNames)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 3, streamyerrors.NewAbort(ctx.Err())
		}
		return nil, 2, err
	}

	runner.RunOutputs(ctx, matches)

	taskRunner := task.NewRunner(cfg.TaskConfigs(), cfg.Options.DryRun, cfg.Options.Hardlink, cmd.OutOrStdout())

	// Tasks run in input order regardless of RunOutputs' completion
	// order, so "globals so far" and "matches by position" stay
	// meaningful even under concurrent match execution. A Match left
	// unfinished by an abort halts the prefix here (spec §5: matches not
	// yet completed are not written into the response).
	matchContexts := make([]map[string]any, 0, len(matches))
	completed := 0
	for i := range matches {
		m := &matches[i]
		if m.Status.FinishedAt.IsZero() {
			break
		}
		completed = i + 1

		isLast := i == len(matches)-1 && ctx.Err() == nil
		globalsSoFar := partialGlobals(matches[:completed], manifests, outputNames, inputNames, started)
		taskRunner.Run(m, isLast, globalsSoFar, matchContexts)

		matchContexts = append(matchContexts, task.BuildMatchContext(m, nil, nil))
	}

	finished := time.Now()
	matches = matches[:completed]

	if ctx.Err() != nil {
		return nil, 3, streamyerrors.NewAbort(ctx.Err())
	}

	doc := response.Assemble(response.Input{
		Matches:          matches,
		Manifests:        manifests,
		EnabledOutputs:   outputNames,
		InputPluginNames: inputNames,
		ConfigSnapshot:   cfg.Snapshot(),
		StartedAt:        started,
		FinishedAt:       finished,
	})

	exit := 0
	if !doc.Globals.Status.Success {
		exit = 1
	}

	return &doc, exit, nil
}

// partialGlobals builds the "response-so-far" globals exposed to task
// templates (spec §4.5.2 step 4) by assembling the response over the
// matches completed so far.
func partialGlobals(completed []match.Match, manifests manifest.Set, outputNames, inputNames []string, started time.Time) map[string]any {
	partial := response.Assemble(response.Input{
		Matches:          completed,
		Manifests:        manifests,
		EnabledOutputs:   outputNames,
		InputPluginNames: inputNames,
		StartedAt:        started,
		FinishedAt:       time.Now(),
	})

	raw, err := json.Marshal(partial.Globals)
	if err != nil {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
