package cli_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/timeslice/internal/cli"
	"github.com/rshade/timeslice/internal/engine/batch"
)

func benchOptions() cli.BenchOptions {
	return cli.BenchOptions{
		Items:         2000,
		Iterations:    1,
		ChunkSize:     100,
		Modes:         []batch.Mode{batch.ModeSingle, batch.ModeChunked},
		ProbeInterval: time.Millisecond,
	}
}

func TestRunBench_BothModes(t *testing.T) {
	report, err := cli.RunBench(context.Background(), benchOptions(), zerolog.Nop())
	require.NoError(t, err)

	require.Len(t, report.Runs, 2)
	assert.Equal(t, "single", report.Runs[0].Mode)
	assert.Equal(t, 1, report.Runs[0].Turns)
	assert.Equal(t, "chunked", report.Runs[1].Mode)
	assert.Equal(t, 20, report.Runs[1].Turns)
	assert.Zero(t, report.Runs[1].Failures)

	require.NotNil(t, report.Comparison)
	assert.Contains(t, []string{"longer", "shorter"}, report.Comparison.Label)
	assert.Contains(t, report.Comparison.Summary, "Chunked processing took")
	require.NotNil(t, report.ResultsMatch)
	assert.True(t, *report.ResultsMatch)
}

func TestRunBench_SingleModeHasNoComparison(t *testing.T) {
	opts := benchOptions()
	opts.Modes = []batch.Mode{batch.ModeChunked}

	report, err := cli.RunBench(context.Background(), opts, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)
	assert.Nil(t, report.Comparison)
	assert.Nil(t, report.ResultsMatch)
}

func TestRunBench_Validation(t *testing.T) {
	opts := benchOptions()
	opts.Items = 0
	_, err := cli.RunBench(context.Background(), opts, zerolog.Nop())
	require.Error(t, err)

	opts = benchOptions()
	opts.ChunkSize = 0
	_, err = cli.RunBench(context.Background(), opts, zerolog.Nop())
	require.ErrorIs(t, err, batch.ErrInvalidChunkSize)
}

func TestRunBench_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cli.RunBench(ctx, benchOptions(), zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunBench_MetricsFile(t *testing.T) {
	opts := benchOptions()
	opts.MetricsFile = filepath.Join(t.TempDir(), "timeslice.prom")

	_, err := cli.RunBench(context.Background(), opts, zerolog.Nop())
	require.NoError(t, err)

	data, err := os.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeslice_interaction_latency_seconds")
}

func TestBenchCmd_JSON(t *testing.T) {
	setupCLITest(t)
	out := mustExecute(t, "bench", "--items", "500", "--iterations", "1", "--chunk-size", "50", "-o", "json")

	var report cli.BenchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 500, report.Items)
	assert.Equal(t, 50, report.ChunkSize)
	require.Len(t, report.Runs, 2)
	assert.Equal(t, 10, report.Runs[1].Turns)
	assert.NotNil(t, report.Comparison)
}

func TestBenchCmd_Table(t *testing.T) {
	setupCLITest(t)
	out := mustExecute(t, "bench", "--items", "1200", "--iterations", "1", "--chunk-size", "100")

	assert.Contains(t, out, "items 1,200, iterations 1, chunk size 100")
	assert.Contains(t, out, "MODE")
	assert.Contains(t, out, "chunked")
	assert.Contains(t, out, "Chunked processing took")
}

func TestBenchCmd_UsesConfigDefaults(t *testing.T) {
	home := setupCLITest(t)
	cfgPath := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("workload:\n  items: 300\n  iterations: 1\n  chunk_size: 30\n"), 0o600))

	out := mustExecute(t, "bench", "--mode", "chunked", "-o", "json")
	var report cli.BenchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 300, report.Items)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, 10, report.Runs[0].Turns)
}

func TestBenchCmd_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown mode", []string{"bench", "--mode", "parallel"}},
		{"unknown output", []string{"bench", "--output", "xml"}},
		{"zero items", []string{"bench", "--items", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLITest(t)
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
		})
	}
}
