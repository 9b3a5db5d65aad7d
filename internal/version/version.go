// Package version holds build metadata injected at link time.
package version

import "fmt"

// Version is the release version, set in release builds with
// -ldflags "-X git.home.luguber.info/inful/docnav/internal/version.Version=v1.0.0".
var Version = "unknown"

// Commit metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String formats the version line printed by --version.
func String() string {
	if GitCommit == "unknown" && BuildTime == "unknown" {
		return "docnav " + Version
	}
	return fmt.Sprintf("docnav %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
