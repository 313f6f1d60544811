// Package version derives the binary's version from build metadata.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "github.com/meetingmuse/musechat"

// buildVersion is set via -ldflags "-X github.com/meetingmuse/musechat/internal/version.buildVersion=...".
var buildVersion = ""

// Current returns the best available version string.
func Current() string {
	if v := strings.TrimSpace(buildVersion); v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "v0.0.0-unknown"
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
		return v
	}
	if v := pseudoVersion(info); v != "" {
		return v
	}
	return "v0.0.0-unknown"
}

// Module returns the module path from build info when available.
func Module() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			return path
		}
	}
	return defaultModule
}

// pseudoVersion builds a v0.0.0 pseudo-version from embedded VCS settings,
// the shape go builds use for untagged commits.
func pseudoVersion(info *debug.BuildInfo) string {
	var revision, vcsTime string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if revision == "" || vcsTime == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, vcsTime)
	if err != nil {
		return ""
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + revision
	if modified {
		v += "+dirty"
	}
	return v
}
