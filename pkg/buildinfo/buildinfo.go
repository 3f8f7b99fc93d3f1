package buildinfo

import "runtime/debug"

// These are set at build time via -ldflags. BinaryVersion defaults to "dev"
// for local builds.
var (
	BinaryVersion = "dev"
	GitCommit     = ""
	BuildDate     = ""
)

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Commit returns the ldflags commit when set, falling back to the VCS
// revision stamped by the toolchain.
func Commit() string {
	if GitCommit != "" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return ""
}
