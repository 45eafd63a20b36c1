// Package version holds build metadata injected via ldflags.
package version

var (
	// Version is the semantic version, set at build time.
	Version = "dev"
	// Commit is the git commit hash, set at build time.
	Commit = ""
	// Date is the build date, set at build time.
	Date = ""
)
