// Copyright (c) 2026 Claudius Team
// Claudius - assistant configuration dashboard
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildinfo contains variables injected at build time and resolves
// the version shown by `claudius version`.
package buildinfo

import (
	"runtime/debug"
)

const modulePath = "github.com/iclaudius/claudius"

// Set at link time via
// `-ldflags -X github.com/iclaudius/claudius/internal/buildinfo.Version=...`.
var (
	Version   = "dev"
	GitCommit = "dev"
	BuildDate = ""
)

// Resolve computes the best-available version, commit and build date. If
// info is nil the runtime build info is used.
func Resolve(info *debug.BuildInfo) (version, commit, date string) {
	version, commit, date = Version, GitCommit, BuildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		// Some build paths only record the module as a dependency.
		if version == "dev" || version == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == modulePath && dep.Version != "" {
					version = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					commit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					date = s.Value
				}
			}
		}
	}

	// Show the commit rather than "dev" when only that was injected.
	if version == "dev" && GitCommit != "dev" && GitCommit != "" {
		version = GitCommit
	}
	return version, commit, date
}

// String joins version, commit and date into one line.
func String(info *debug.BuildInfo) string {
	v, c, d := Resolve(info)
	out := v
	if c != "" && c != "dev" {
		out += " (" + c + ")"
	}
	if d != "" {
		out += " built: " + d
	}
	return out
}
