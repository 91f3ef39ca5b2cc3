package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/internal/config"
	"github.com/rshade/timeslice/internal/logging"
)

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the timeslice CLI.
// It loads configuration, wires up logging and tracing, and registers the
// bench, demo, task, config and version subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:   "timeslice",
		Short: "Chunked work scheduling and responsiveness demos",
		Long: `timeslice compares processing a large batch in one blocking pass with
processing it in chunks that yield to the event loop between turns.`,
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file (default $TIMESLICE_HOME/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	cmd.AddCommand(NewBenchCmd(), NewDemoCmd(), NewTaskCmd(), newConfigCmd(), NewVersionCmd(ver))

	return cmd
}

const rootCmdExample = `  # Compare single and chunked processing of 100k items
  timeslice bench --items 100000 --chunk-size 500

  # Emit the comparison as JSON and dump latency metrics
  timeslice bench --output json --metrics-file /tmp/timeslice.prom

  # Open the interactive demo
  timeslice demo

  # Run the sample step sequence
  timeslice task --delay 500ms

  # Write a default configuration file
  timeslice config init`

// loadConfig installs the global configuration, from --config when given.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		config.InitGlobalConfig()
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading config %s: %w", path, err)
	}
	config.SetGlobalConfig(cfg)
	return nil
}

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd(), NewConfigValidateCmd())
	return cmd
}
