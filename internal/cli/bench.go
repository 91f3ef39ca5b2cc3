package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/timeslice/internal/config"
	"github.com/rshade/timeslice/internal/engine/batch"
	"github.com/rshade/timeslice/internal/hostloop"
	"github.com/rshade/timeslice/internal/perf"
)

// Bench output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// modeBoth runs single then chunked and compares them.
const modeBoth = "both"

// BenchOptions configures a headless comparison run.
type BenchOptions struct {
	Items         int
	Iterations    int
	ChunkSize     int
	Modes         []batch.Mode
	ProbeInterval time.Duration
	Threshold     time.Duration
	MetricsFile   string
}

// BenchRun is the outcome of one mode.
type BenchRun struct {
	Mode           string  `json:"mode"`
	ElapsedMS      float64 `json:"elapsed_ms"`
	MaxTurnMS      float64 `json:"max_turn_ms"`
	Turns          int     `json:"turns"`
	Failures       int     `json:"failures"`
	ProbeTicks     int     `json:"probe_ticks"`
	ProbeMissed    int     `json:"probe_missed"`
	MaxLatenessMS  float64 `json:"max_lateness_ms"`
	MeanLatenessMS float64 `json:"mean_lateness_ms"`
}

// BenchComparison mirrors batch.Comparison in milliseconds.
type BenchComparison struct {
	SingleMS  float64 `json:"single_ms"`
	ChunkedMS float64 `json:"chunked_ms"`
	DeltaMS   float64 `json:"delta_ms"`
	Percent   float64 `json:"percent"`
	Label     string  `json:"label"`
	Summary   string  `json:"summary"`
}

// BenchReport is everything bench prints.
type BenchReport struct {
	Items        int              `json:"items"`
	Iterations   int              `json:"iterations"`
	ChunkSize    int              `json:"chunk_size"`
	Runs         []BenchRun       `json:"runs"`
	Comparison   *BenchComparison `json:"comparison,omitempty"`
	ResultsMatch *bool            `json:"results_match,omitempty"`
}

// NewBenchCmd creates the bench command.
func NewBenchCmd() *cobra.Command {
	var (
		items       int
		iterations  int
		chunkSize   int
		mode        string
		output      string
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare single-pass and chunked processing without a terminal UI",
		Long: `Runs the expensive workload over a generated batch on a headless event loop,
once in a single blocking pass and once in chunks, while a probe measures how
late periodic ticks are serviced. Unset flags fall back to the configuration.`,
		Example: `  # Default comparison
  timeslice bench

  # Only the chunked mode, JSON output
  timeslice bench --mode chunked --output json

  # Write interaction latency histograms in Prometheus text format
  timeslice bench --metrics-file ./timeslice.prom`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			opts := BenchOptions{
				Items:         cfg.Workload.Items,
				Iterations:    cfg.Workload.Iterations,
				ChunkSize:     cfg.Workload.ChunkSize,
				ProbeInterval: cfg.Probe.Interval,
				Threshold:     cfg.Perf.Threshold,
				MetricsFile:   metricsFile,
			}
			if cmd.Flags().Changed("items") {
				opts.Items = items
			}
			if cmd.Flags().Changed("iterations") {
				opts.Iterations = iterations
			}
			if cmd.Flags().Changed("chunk-size") {
				opts.ChunkSize = chunkSize
			}

			modes, err := parseModes(mode)
			if err != nil {
				return err
			}
			opts.Modes = modes
			if output != outputTable && output != outputJSON {
				return fmt.Errorf("unsupported output format %q (use %s or %s)", output, outputTable, outputJSON)
			}

			report, err := RunBench(cmd.Context(), opts, logger)
			if err != nil {
				return err
			}
			if output == outputJSON {
				return renderBenchJSON(cmd.OutOrStdout(), report)
			}
			return renderBenchTable(cmd.OutOrStdout(), report, benchStyled(cmd))
		},
	}

	cmd.Flags().IntVar(&items, "items", 0, "number of items to generate (default from config)")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "inner iterations per item (default from config)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "items per chunk (default from config)")
	cmd.Flags().StringVar(&mode, "mode", modeBoth, "single, chunked or both")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write latency histograms in Prometheus text format")

	return cmd
}

func parseModes(s string) ([]batch.Mode, error) {
	if s == modeBoth {
		return []batch.Mode{batch.ModeSingle, batch.ModeChunked}, nil
	}
	m, err := batch.ParseMode(s)
	if err != nil {
		return nil, err
	}
	return []batch.Mode{m}, nil
}

// RunBench generates the batch and runs each mode in turn on a fresh event
// loop, with a probe ticking throughout.
func RunBench(ctx context.Context, opts BenchOptions, log zerolog.Logger) (*BenchReport, error) {
	if opts.Items < 1 {
		return nil, fmt.Errorf("items must be at least 1, got %d", opts.Items)
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = perf.DefaultProbeInterval
	}

	loop := hostloop.NewEventLoop(log)
	observer := perf.NewObserver(opts.Threshold, nil, log)
	probe, err := perf.NewProbe(loop, opts.ProbeInterval, nil, observer, log)
	if err != nil {
		return nil, err
	}

	finished := make(chan batch.RunStats, 1)
	results := make(map[batch.Mode][]float64, len(opts.Modes))
	var harness *batch.Harness[int, float64]
	harness, err = batch.NewHarness(loop, batch.ExpensiveOperation(opts.Iterations),
		batch.HarnessOptions{ChunkSize: opts.ChunkSize, RetainResults: true, Logger: &log},
		batch.Hooks{
			OnComplete: func(mode batch.Mode, stats batch.RunStats) {
				results[mode] = harness.Results()
				finished <- stats
			},
		})
	if err != nil {
		return nil, err
	}
	harness.SetBatch(batch.Sequence(opts.Items))

	report := &BenchReport{Items: opts.Items, Iterations: opts.Iterations, ChunkSize: opts.ChunkSize}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error {
		defer loop.Stop()
		probe.Start(gctx)
		defer probe.Stop()

		for _, mode := range opts.Modes {
			if err := onLoop(gctx, loop, probe.Reset); err != nil {
				return err
			}
			if err := harness.Run(mode); err != nil {
				return fmt.Errorf("starting %s run: %w", mode, err)
			}

			var stats batch.RunStats
			select {
			case stats = <-finished:
			case <-gctx.Done():
				return gctx.Err()
			}

			// Ticks queued behind the run are serviced before reading the probe.
			if err := onLoop(gctx, loop, func() {}); err != nil {
				return err
			}
			report.Runs = append(report.Runs, newBenchRun(stats, probe.Stats()))
		}
		return nil
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	if cmp, cmpErr := harness.Compare(); cmpErr == nil {
		report.Comparison = &BenchComparison{
			SingleMS:  batch.Millis(cmp.Single),
			ChunkedMS: batch.Millis(cmp.Chunked),
			DeltaMS:   batch.Millis(cmp.Delta),
			Percent:   cmp.Percent,
			Label:     cmp.Label(),
			Summary:   cmp.String(),
		}
		match := batch.Equal(results[batch.ModeSingle], results[batch.ModeChunked])
		report.ResultsMatch = &match
	}

	if opts.MetricsFile != "" {
		if err = observer.WriteTextfile(opts.MetricsFile); err != nil {
			return nil, err
		}
		log.Info().Str("path", opts.MetricsFile).Msg("latency metrics written")
	}
	return report, nil
}

// onLoop runs fn on the loop and waits for it.
func onLoop(ctx context.Context, loop hostloop.Poster, fn func()) error {
	done := make(chan struct{})
	if !loop.Post(func() {
		fn()
		close(done)
	}) {
		return errors.Join(batch.ErrLoopClosed, ctx.Err())
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newBenchRun(stats batch.RunStats, probe perf.ProbeStats) BenchRun {
	return BenchRun{
		Mode:           stats.Mode.String(),
		ElapsedMS:      batch.Millis(stats.Elapsed),
		MaxTurnMS:      batch.Millis(stats.MaxTurn),
		Turns:          stats.Turns,
		Failures:       stats.Failures,
		ProbeTicks:     probe.Ticks,
		ProbeMissed:    probe.Missed,
		MaxLatenessMS:  batch.Millis(probe.MaxLateness),
		MeanLatenessMS: batch.Millis(probe.MeanLateness),
	}
}
