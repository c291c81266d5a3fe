// Package version carries build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	// Version is the release tag of the skittles binary.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)

// String formats the build metadata for -version and startup logs.
func String() string {
	return fmt.Sprintf("skittles %s (%s, built %s)", Version, GitSHA, BuildTime)
}
