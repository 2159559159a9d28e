package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/riptide-dev/riptide/internal/config"
	"github.com/riptide-dev/riptide/internal/dashboard"
	"github.com/riptide-dev/riptide/internal/executor"
	"github.com/riptide-dev/riptide/internal/httpclient"
	"github.com/riptide-dev/riptide/internal/metrics"
	"github.com/riptide-dev/riptide/internal/output"
	"github.com/riptide-dev/riptide/internal/scheduler"
	"github.com/riptide-dev/riptide/internal/tracing"
)

const progressInterval = time.Second

// loggingRunner reports each failed outcome to stderr as it happens.
type loggingRunner struct {
	inner scheduler.Runner
	mu    sync.Mutex
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	builder, err := httpclient.NewRequestBuilder(cfg.Method, cfg.TargetURL, cfg.Headers, cfg.Body)
	if err != nil {
		return err
	}

	accept := executor.DefaultStatusRange
	if cfg.SuccessRange != "" {
		low, high, err := config.ParseSuccessRange(cfg.SuccessRange)
		if err != nil {
			return err
		}
		accept = executor.StatusRange{Low: low, High: high}
	}

	var expect *executor.Expectation
	if cfg.ExpectJSON != "" {
		path, want, err := config.ParseExpectJSON(cfg.ExpectJSON)
		if err != nil {
			return err
		}
		expect = &executor.Expectation{Path: path, Want: want}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	traceProvider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = traceProvider.Shutdown(shutdownCtx)
	}()

	collector := metrics.NewCollector()

	exec := executor.New(executor.Options{
		Client:     httpclient.NewClient(cfg.Timeout),
		Builder:    builder,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.Retries,
		Backoff:    executor.Backoff{Base: cfg.BackoffBase, Cap: cfg.BackoffCap},
		Accept:     accept,
		Expect:     expect,
		Tracing:    traceProvider,
	})

	var runner scheduler.Runner = exec
	if cfg.LogErrors {
		runner = &loggingRunner{inner: runner}
	}

	sched := scheduler.New(scheduler.Options{
		Concurrency: cfg.Concurrency,
		Duration:    cfg.Duration,
		Interval:    cfg.Interval,
		Runner:      runner,
		Recorder:    collector,
	})

	runID := ulid.Make().String()

	if !cfg.JSONOutput && !cfg.Dashboard {
		printBanner(os.Stdout)
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.RunInfo{
			RunID:       runID,
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Concurrency: cfg.Concurrency,
			Duration:    cfg.Duration,
			Retries:     cfg.Retries,
		}, cancel)
		if err != nil {
			return err
		}
		dash.Start()
	}
	stopDash := func() {
		if dash != nil {
			dash.Stop()
			dash = nil
		}
	}
	defer stopDash()

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(collector, cfg.Duration, progressInterval, os.Stdout)
		progress.Start()
	}
	stopProgress := func() {
		if progress != nil {
			progress.Stop()
			fmt.Fprintln(os.Stdout)
			progress = nil
		}
	}
	defer stopProgress()

	result := sched.Run(ctx)
	stats := collector.Snapshot(result.ActualDuration)

	report := output.Report{
		RunID:       runID,
		TargetURL:   cfg.TargetURL,
		Concurrency: cfg.Concurrency,
		Stats:       stats,
	}

	// Tear down the live views before printing the final report.
	stopDash()
	stopProgress()

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
	}

	if cfg.OutputFile != "" {
		if err := output.WriteJSONReport(cfg.OutputFile, report); err != nil {
			return err
		}
	}

	if stats.Failures > 0 {
		return fmt.Errorf("%d requests failed", stats.Failures)
	}
	return nil
}

func (r *loggingRunner) Execute(ctx context.Context) executor.Outcome {
	out := r.inner.Execute(ctx)
	if !out.Success && out.Err != nil {
		r.mu.Lock()
		fmt.Fprintf(os.Stderr, "[riptide] request failed after %d attempt(s): %v\n", out.Attempts, out.Err)
		r.mu.Unlock()
	}
	return out
}
