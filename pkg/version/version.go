// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Build metadata, overridden with -ldflags "-X github.com/rshade/timeslice/pkg/version.version=...".
//
//nolint:gochecknoglobals // Link-time injected values.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetCommit returns the git commit the binary was built from.
func GetCommit() string {
	return commit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return date
}

// String renders version, commit and date on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}
