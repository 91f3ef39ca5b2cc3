package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by the config package.
const (
	EnvHome       = "TIMESLICE_HOME"
	EnvConfig     = "TIMESLICE_CONFIG"
	EnvItems      = "TIMESLICE_ITEMS"
	EnvChunkSize  = "TIMESLICE_CHUNK_SIZE"
	EnvIterations = "TIMESLICE_ITERATIONS"
	EnvLogLevel   = "TIMESLICE_LOG_LEVEL"
	EnvLogFormat  = "TIMESLICE_LOG_FORMAT"
)

// ApplyEnv overrides settings from the environment. Unparseable values are
// skipped and reported together.
func (c *Config) ApplyEnv() error {
	var errs []error
	setInt := func(name string, dst *int) {
		raw := os.Getenv(name)
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", name, raw, err))
			return
		}
		*dst = v
	}

	setInt(EnvItems, &c.Workload.Items)
	setInt(EnvChunkSize, &c.Workload.ChunkSize)
	setInt(EnvIterations, &c.Workload.Iterations)

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = v
	}
	return errors.Join(errs...)
}
