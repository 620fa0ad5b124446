// Package version holds build metadata injected via ldflags.
package version

import "fmt"

// Build metadata, set with -ldflags "-X .../internal/version.Version=...".
//
//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String formats the build for --version output.
func String() string {
	return fmt.Sprintf("%s (%s, %s)", Version, Commit, Date)
}

// UserAgent identifies the indexer to the catalog API.
func UserAgent() string {
	return "zasqua-indexer/" + Version
}
