package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the active configuration (file, environment and --config) for
syntax and semantic correctness:
- schema version compatibility
- workload sizes and chunk size
- probe interval and perf threshold
- logging format and UI sizes`,
		Example: `  # Validate current configuration
  timeslice config validate

  # Validate a specific file and show the effective values
  timeslice --config ./timeslice.yaml config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.LoadError(); err != nil {
		return fmt.Errorf("configuration could not be loaded: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}
	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	if cfg.Path() != "" {
		cmd.Printf("  File: %s\n", cfg.Path())
	}
	cmd.Printf("  Version: %s\n", cfg.Version)
	cmd.Printf("  Items: %d (iterations %d, chunk size %d)\n",
		cfg.Workload.Items, cfg.Workload.Iterations, cfg.Workload.ChunkSize)
	cmd.Printf("  Probe interval: %s\n", cfg.Probe.Interval)
	cmd.Printf("  Perf threshold: %s\n", cfg.Perf.Threshold)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	if cfg.Logging.File != "" {
		cmd.Printf("  Log file: %s\n", cfg.Logging.File)
	}
}
