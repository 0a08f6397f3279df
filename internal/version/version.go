// Package version carries build metadata injected at link time:
//
//	go build -ldflags "-X git.home.luguber.info/inful/nocms/internal/version.Version=v0.3.0"
package version

import "fmt"

// Version is the release of this binary.
var Version = "unknown"

var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the one-line form printed by --version.
func String() string {
	return fmt.Sprintf("nocms %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
