package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/timeslice/internal/config"
	"github.com/rshade/timeslice/internal/logging"
)

// usingLogFile is set when log output goes to a file rather than the terminal.
var usingLogFile bool //nolint:gochecknoglobals // Mirrors the package-level logger

// setupLogging configures logging based on config file, environment, and CLI flags.
func setupLogging(cmd *cobra.Command) logging.LogPathResult {
	loggingCfg := config.GetLoggingConfig()

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = logging.FormatConsole
		loggingCfg.File = ""
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" && !debug {
		loggingCfg.Level = level
	}

	// Ensure log directory exists after all overrides have been applied.
	if loggingCfg.File != "" {
		if err := config.EnsureLogDir(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not create log directory: %v\n", err)
		}
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")
	usingLogFile = result.UsingFile

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := cmd.Context()
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	ctx = result.Logger.With().Str("trace_id", traceID).Logger().WithContext(ctx)
	cmd.SetContext(ctx)

	if loadErr := config.GetGlobalConfig().LoadError(); loadErr != nil {
		logger.Warn().Ctx(ctx).Err(loadErr).Msg("configuration problems, using defaults where needed")
	}
	logger.Info().Ctx(ctx).Str("command", cmd.Name()).Str("trace_id", traceID).Msg("command started")

	return result
}

// terminalUILogger returns the logger for a full-screen program. Log lines
// written to the terminal would corrupt the screen, so it is disabled unless
// logs go to a file.
func terminalUILogger(cmd *cobra.Command) zerolog.Logger {
	if !usingLogFile {
		return zerolog.Nop()
	}
	return *logging.FromContext(cmd.Context())
}

// cleanupLogging closes the log file handle.
func cleanupLogging(_ *cobra.Command, logResult *logging.LogPathResult) error {
	if logResult != nil {
		return logResult.Close()
	}
	return nil
}
