package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names.
const (
	keyVersion  = "version"
	keyWorkload = "workload"
	keyProbe    = "probe"
	keyPerf     = "perf"
	keyLogging  = "logging"
	keyUI       = "ui"
)

// knownTopLevelKeys lists the YAML keys that correspond to exported Config fields.
// Keys not in this list are ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyVersion:  true,
	keyWorkload: true,
	keyProbe:    true,
	keyPerf:     true,
	keyLogging:  true,
	keyUI:       true,
}

// MergeYAML loads a YAML file onto target section by section. Fields a
// section leaves out keep their current value, so a file that only sets
// workload.items still gets the default chunk size.
func MergeYAML(target *Config, path string) error {
	if target == nil {
		return errors.New("nil target *Config in MergeYAML")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var doc map[string]any
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing config YAML from %s: %w", path, err)
	}

	// Empty or comment-only file.
	if len(doc) == 0 {
		return nil
	}

	for key, value := range doc {
		if !knownTopLevelKeys[key] {
			continue
		}

		sectionBytes, marshalErr := yaml.Marshal(value)
		if marshalErr != nil {
			return fmt.Errorf("re-marshalling section %q: %w", key, marshalErr)
		}
		if err = mergeSection(target, key, sectionBytes); err != nil {
			return fmt.Errorf("applying section %q from %s: %w", key, path, err)
		}
	}

	return nil
}

func mergeSection(target *Config, key string, data []byte) error {
	switch key {
	case keyVersion:
		var v string
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		target.Version = v
		return nil
	case keyWorkload:
		return yaml.Unmarshal(data, &target.Workload)
	case keyProbe:
		return yaml.Unmarshal(data, &target.Probe)
	case keyPerf:
		return yaml.Unmarshal(data, &target.Perf)
	case keyLogging:
		return yaml.Unmarshal(data, &target.Logging)
	case keyUI:
		return yaml.Unmarshal(data, &target.UI)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}
