package buildconfig

import "fmt"

// Injected at build time via -ldflags "-X ...".
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// Version returns the build version.
func Version() string {
	return version
}

// Commit returns the git commit hash.
func Commit() string {
	return commit
}

// Summary returns a one-line human-readable build description.
func Summary() string {
	return fmt.Sprintf("tutanak %s (%s, built %s)", version, commit, buildDate)
}

// VersionInfo returns the build metadata as a flat map for JSON payloads.
func VersionInfo() map[string]string {
	return map[string]string{
		"version":    version,
		"commit":     commit,
		"build_date": buildDate,
	}
}
