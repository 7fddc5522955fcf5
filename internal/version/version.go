// Package version reports what build of udt is running. Values come from
// ldflags, then the module build info, then git in a source checkout.
package version

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Name is the binary name reported by Info and the user agent.
const Name = "udt"

// Set with -ldflags "-X github.com/j-veylop/usage-dashboard-tui/internal/version.Version=...".
var (
	Version = ""
	Commit  = ""
	Date    = ""
)

var (
	once sync.Once

	readBuildInfo = debug.ReadBuildInfo
	git           = func(args ...string) (string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, "git", args...).Output()
		return strings.TrimSpace(string(out)), err
	}
)

func resolve() {
	once.Do(func() {
		var vcsRev, vcsTime string
		var modVersion string
		if bi, ok := readBuildInfo(); ok {
			modVersion = bi.Main.Version
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					vcsRev = s.Value
				case "vcs.time":
					vcsTime = s.Value
				}
			}
		}

		if Version == "" {
			Version = strings.TrimPrefix(released(modVersion), "v")
		}
		if Version == "" {
			Version = strings.TrimPrefix(gitOr("", "describe", "--tags", "--abbrev=0"), "v")
		}
		if Version == "" {
			Version = "dev"
		}

		if Commit == "" {
			Commit = short(vcsRev)
		}
		if Commit == "" {
			Commit = gitOr("unknown", "describe", "--always", "--dirty")
		}
		if Date == "" {
			if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
				Date = t.Format(time.DateOnly)
			} else {
				Date = time.Now().Format(time.DateOnly)
			}
		}
	})
}

// released drops the "(devel)" placeholder go reports for local builds.
func released(v string) string {
	if v == "(devel)" {
		return ""
	}
	return v
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func gitOr(fallback string, args ...string) string {
	out, err := git(args...)
	if err != nil || out == "" {
		return fallback
	}
	return out
}

// Reset forgets resolved values, including ones set through ldflags.
func Reset() {
	once = sync.Once{}
	Version, Commit, Date = "", "", ""
}

// GetVersion returns the semantic version without the leading "v".
func GetVersion() string {
	resolve()
	return Version
}

// GetCommit returns the commit the binary was built from.
func GetCommit() string {
	resolve()
	return Commit
}

// GetDate returns the build date.
func GetDate() string {
	resolve()
	return Date
}

// UserAgent is sent with every API request.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s/%s)", Name, GetVersion(), runtime.GOOS, runtime.GOARCH)
}

// Info is the one-line banner printed by "udt version".
func Info() string {
	resolve()
	return fmt.Sprintf("usage-dashboard-tui %s (commit: %s, built: %s, %s/%s)",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
