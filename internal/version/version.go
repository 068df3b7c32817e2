package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build metadata, overridden with -ldflags "-X github.com/oshokin/exe-builder/internal/version.Version=...".
var (
	// Version is the release of exe-builder.
	Version = "0.1.0"
	// Commit is the short git SHA; "none" falls back to the VCS stamp of the binary.
	Commit = "none"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// shortCommitLength is how many characters of the VCS revision are shown.
const shortCommitLength = 7

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and Go runtime.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s)", Version, commit(), BuildTime, runtime.Version())
}

// commit prefers the ldflags value and falls back to the revision that
// go build stamps into binaries built from a checkout.
func commit() string {
	if Commit != "none" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= shortCommitLength {
			return setting.Value[:shortCommitLength]
		}
	}

	return Commit
}
