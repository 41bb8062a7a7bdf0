// Package version holds build metadata injected via -ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/sydlexius/tastegraph/internal/version.Version=v1.0.0 -X github.com/sydlexius/tastegraph/internal/version.Commit=abc123"
var (
	Version = "dev"
	Commit  = "none"
)

// String returns the version and commit for display.
func String() string {
	return Version + " (" + Commit + ")"
}
