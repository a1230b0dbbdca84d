// Package buildinfo carries the version stamped in at link time.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Commit is set at build time via -ldflags. When left unset, the VCS
// revision recorded by the go tool is used instead.
var Commit = "unknown"

// Date is set at build time via -ldflags.
var Date = "unknown"

var vcsOnce sync.Once

func fillFromVCS() {
	vcsOnce.Do(func() {
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if Commit == "unknown" && s.Value != "" {
					Commit = s.Value
					if len(Commit) > 12 {
						Commit = Commit[:12]
					}
				}
			case "vcs.time":
				if Date == "unknown" && s.Value != "" {
					Date = s.Value
				}
			}
		}
	})
}

// Short returns a compact build identifier for UI/logging.
func Short() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	fillFromVCS()
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	return "dev"
}

// String returns version, commit and date on one line.
func String() string {
	fillFromVCS()
	return Version + " (" + Commit + ", " + Date + ")"
}
