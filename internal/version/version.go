// Package version provides build-time version information.
package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// String renders the full version line shown by the CLI.
func String() string {
	return fmt.Sprintf("taskchat %s (commit %s, built %s)", Version, Commit, BuildDate)
}
