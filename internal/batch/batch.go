package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/MeKo-Tech/stampo/internal/pipeline"
)

// ProcessBatch discovers source files under the given arguments, expands them
// into work items and runs them through the pipeline. An empty discovery
// result yields a zero-count report, not an error. Per-item failures are
// recorded in the report; only pre-run conditions (bad configuration,
// unloadable watermark, inaccessible input paths) return an error.
func ProcessBatch(ctx context.Context, args []string, cfg *Config) (*Result, error) {
	return ProcessBatchWithCallback(ctx, args, cfg, nil)
}

// ProcessBatchWithCallback is ProcessBatch with a caller-supplied progress
// callback replacing the default console/log stack. Used by the server's
// websocket endpoint to stream snapshots.
func ProcessBatchWithCallback(ctx context.Context, args []string, cfg *Config, cb pipeline.ProgressCallback) (*Result, error) {
	files, err := discoverSourceFiles(args, cfg)
	if err != nil {
		return nil, fmt.Errorf("discovering input files: %w", err)
	}

	if cfg.InputRoot == "" {
		cfg.InputRoot = inferInputRoot(args)
	}

	items := buildItems(files, cfg)

	slog.Info("Batch assembled",
		"files", len(files),
		"items", len(items),
		"output_dir", cfg.OutputDir,
		"workers", cfg.Pipeline.WorkerCount(),
	)

	if cfg.DryRun {
		return &Result{
			Report: &pipeline.Report{
				Results:    make([]pipeline.Result, 0),
				StartedAt:  time.Now(),
				FinishedAt: time.Now(),
			},
			Items:       items,
			WorkerCount: cfg.Pipeline.WorkerCount(),
		}, nil
	}

	if cb == nil {
		cb = progressCallback(cfg)
	}

	report, err := pipeline.Run(ctx, cfg.Pipeline, items, cb)
	if err != nil {
		return nil, err
	}

	return &Result{
		Report:      report,
		Items:       items,
		WorkerCount: cfg.Pipeline.WorkerCount(),
	}, nil
}

// progressCallback assembles the progress reporting stack for a run.
func progressCallback(cfg *Config) pipeline.ProgressCallback {
	interval := cfg.ProgressInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	var callbacks []pipeline.ProgressCallback

	if cfg.ShowProgress && !cfg.Quiet {
		console := pipeline.NewConsoleProgressCallback(os.Stderr, "").
			WithUpdateInterval(interval)
		callbacks = append(callbacks, console)
	}

	callbacks = append(callbacks,
		pipeline.NewLogProgressCallback(slog.Default(), slog.LevelDebug))

	if len(callbacks) == 1 {
		return callbacks[0]
	}
	return pipeline.NewMultiProgressCallback(callbacks...)
}

// inferInputRoot picks the first directory argument as the root for output
// path mirroring when none was configured explicitly.
func inferInputRoot(args []string) string {
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			return arg
		}
	}
	return ""
}
