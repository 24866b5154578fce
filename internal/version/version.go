package version

import "fmt"

// Build metadata, overridden via ldflags by the release pipeline.
var (
	// Version is the semantic version of the build.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time, "none" for local builds.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the complete build description for the version command.
func Full() string {
	return fmt.Sprintf("doorbell-panel %s (commit %s, built %s)", Version, Commit, BuildTime)
}
