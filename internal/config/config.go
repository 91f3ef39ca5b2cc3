// Package config loads timeslice settings from ~/.timeslice/config.yaml,
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1.0.0"

// supportedVersions is the schema range this build understands.
const supportedVersions = ">= 1.0.0, < 2.0.0"

// Defaults.
const (
	DefaultItems         = 100000
	DefaultIterations    = 1000
	DefaultChunkSize     = 500
	DefaultProbeInterval = 100 * time.Millisecond
	DefaultCards         = 10
	DefaultListItems     = 1000
	DefaultItemHeight    = 1
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full timeslice configuration.
type Config struct {
	Version  string         `yaml:"version" json:"version"`
	Workload WorkloadConfig `yaml:"workload" json:"workload"`
	Probe    ProbeConfig    `yaml:"probe" json:"probe"`
	Perf     PerfConfig     `yaml:"perf" json:"perf"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	UI       UIConfig       `yaml:"ui" json:"ui"`

	path    string
	loadErr error
}

// WorkloadConfig sizes the benchmark batch.
type WorkloadConfig struct {
	Items      int `yaml:"items" json:"items"`
	Iterations int `yaml:"iterations" json:"iterations"`
	ChunkSize  int `yaml:"chunk_size" json:"chunk_size"`
}

// ProbeConfig controls the responsiveness probe.
type ProbeConfig struct {
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// PerfConfig controls interaction latency logging.
type PerfConfig struct {
	// Threshold is the minimum latency that gets logged. Zero logs everything.
	Threshold time.Duration `yaml:"threshold" json:"threshold"`
}

// LoggingConfig mirrors logging.Config in YAML form.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// UIConfig sizes the interactive demo.
type UIConfig struct {
	Cards      int `yaml:"cards" json:"cards"`
	ListItems  int `yaml:"list_items" json:"list_items"`
	ItemHeight int `yaml:"item_height" json:"item_height"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Workload: WorkloadConfig{
			Items:      DefaultItems,
			Iterations: DefaultIterations,
			ChunkSize:  DefaultChunkSize,
		},
		Probe: ProbeConfig{Interval: DefaultProbeInterval},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		UI: UIConfig{
			Cards:      DefaultCards,
			ListItems:  DefaultListItems,
			ItemHeight: DefaultItemHeight,
		},
	}
}

// New returns the defaults overlaid with the config file (if present) and
// environment overrides. Problems are not fatal: they are kept and reported
// by LoadError so the caller can log them once logging is set up.
func New() *Config {
	path, err := ConfigPath()
	if err != nil {
		cfg := Default()
		cfg.loadErr = errors.Join(err, cfg.ApplyEnv())
		return cfg
	}

	cfg, err := Load(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = Default()
		cfg.path = path
		err = cfg.ApplyEnv()
	case cfg == nil:
		cfg = Default()
		cfg.path = path
		err = errors.Join(err, cfg.ApplyEnv())
	}
	cfg.loadErr = err
	return cfg
}

// Load reads path onto the defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path
	if err := MergeYAML(cfg, path); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// LoadError returns the problems New ran into, if any.
func (c *Config) LoadError() error {
	return c.loadErr
}

// Save writes the configuration as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	c.path = path
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if err := checkVersion(c.Version); err != nil {
		errs = append(errs, err)
	}
	if c.Workload.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("workload.chunk_size must be at least 1, got %d", c.Workload.ChunkSize))
	}
	if c.Workload.Items < 0 {
		errs = append(errs, fmt.Errorf("workload.items must not be negative, got %d", c.Workload.Items))
	}
	if c.Workload.Iterations < 0 {
		errs = append(errs, fmt.Errorf("workload.iterations must not be negative, got %d", c.Workload.Iterations))
	}
	if c.Probe.Interval <= 0 {
		errs = append(errs, fmt.Errorf("probe.interval must be positive, got %s", c.Probe.Interval))
	}
	if c.Perf.Threshold < 0 {
		errs = append(errs, fmt.Errorf("perf.threshold must not be negative, got %s", c.Perf.Threshold))
	}
	if c.UI.Cards < 1 {
		errs = append(errs, fmt.Errorf("ui.cards must be at least 1, got %d", c.UI.Cards))
	}
	if c.UI.ListItems < 0 {
		errs = append(errs, fmt.Errorf("ui.list_items must not be negative, got %d", c.UI.ListItems))
	}
	if c.UI.ItemHeight < 1 {
		errs = append(errs, fmt.Errorf("ui.item_height must be at least 1, got %d", c.UI.ItemHeight))
	}
	switch c.Logging.Format {
	case "", "json", "console", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func checkVersion(raw string) error {
	if raw == "" {
		return errors.New("version is required")
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("version %q is not a semantic version: %w", raw, err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return fmt.Errorf("parsing supported version range: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("version %s is not supported (want %s)", v, supportedVersions)
	}
	return nil
}

// ConfigPath returns TIMESLICE_CONFIG if set, otherwise config.yaml in the
// config directory.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
