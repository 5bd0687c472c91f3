// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/fenilmodi00/market-snapshot-bot/version.Version=1.0.0 \
//	                   -X github.com/fenilmodi00/market-snapshot-bot/version.Commit=$(git rev-parse --short HEAD)"
package version

var (
	// Version is the semantic version reported by /health
	Version = "1.0.0"

	// Commit is the git commit hash (short form)
	Commit = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ")"
}
