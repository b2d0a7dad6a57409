// Package buildinfo carries release metadata stamped in with
// -ldflags "-X github.com/riconcilia/riconcilia/internal/buildinfo.Version=...".
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String formats the version line shown by --version. Unstamped builds
// fall back to the VCS revision recorded by the Go toolchain.
func String() string {
	commit := Commit
	if commit == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
				}
			}
		}
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, commit, Date)
}
