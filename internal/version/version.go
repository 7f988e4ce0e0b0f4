package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time with
//
//	go build -ldflags="-X github.com/muurk/dmxbox/internal/version.Version=v0.3.0 \
//	                   -X github.com/muurk/dmxbox/internal/version.Commit=abc1234"
//
// Unset values are filled from the VCS stamp in the build info, and failing
// that from the start time.
var (
	Version = ""
	Commit  = ""
)

func init() {
	info, _ := debug.ReadBuildInfo()
	fill(info, time.Now())
}

// fill completes Version and Commit from build info.
func fill(info *debug.BuildInfo, now time.Time) {
	if info != nil && (Version == "" || Commit == "") {
		settings := make(map[string]string, len(info.Settings))
		for _, s := range info.Settings {
			settings[s.Key] = s.Value
		}

		if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
			if len(rev) > 7 {
				rev = rev[:7]
			}
			if settings["vcs.modified"] == "true" {
				rev += "-dirty"
			}
			Commit = rev
		}
		if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); Version == "" && err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}

	if Version == "" {
		Version = "dev-" + now.Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// Full returns the version with its commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// UserAgent identifies a dmxbox tool in HTTP requests, e.g.
// "dmxbox-cfg/v0.3.0".
func UserAgent(tool string) string {
	return tool + "/" + Version
}
