package config

import (
	"github.com/rshade/timeslice/internal/logging"
)

// ToLoggingConfig converts the YAML logging section into a logging.Config.
//
// The conversion applies these rules:
//   - Level, Format are copied directly ("text" is treated as console)
//   - If File is set, Output becomes "file" and File is passed through
//   - If File is empty, Output defaults to "stderr"
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := logging.OutputStderr
	if lc.File != "" {
		output = logging.OutputFile
	}

	format := lc.Format
	if format == "text" {
		format = logging.FormatConsole
	}

	return logging.Config{
		Level:  lc.Level,
		Format: format,
		Output: output,
		File:   lc.File,
	}
}

// GetLoggingConfig returns a copy of the Logging section of the global
// configuration. Flag overrides such as --debug are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
