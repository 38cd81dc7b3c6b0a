package version

import "fmt"

// Set via -ldflags at build time
var (
	Version = "0.3.0"
	Commit  = "dev"
	Date    = "unknown"
)

// Short returns the bare version string
func Short() string {
	return Version
}

// Full returns the version with commit and build date
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
