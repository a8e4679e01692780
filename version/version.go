package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags "-X github.com/kbukum/bindkit/version.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	GoVersion string    `json:"go_version"`
	Built     time.Time `json:"built,omitzero"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Read combines the linker-provided values with the VCS stamp the Go
// toolchain embeds. Linker values win.
func Read() Info {
	info := Info{Version: Version, Commit: Commit}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.Built = t
	}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.Built.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.Built = t
				}
			}
		}
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// Release reports whether the binary was built from a clean tagged version.
func (i Info) Release() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// String returns version[-commit][-dirty].
func (i Info) String() string {
	parts := []string{i.Version}
	if i.Commit != "" {
		parts = append(parts, i.Commit)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Long adds the toolchain and build time to String.
func (i Info) Long() string {
	s := i.String()
	if i.GoVersion != "" {
		s += " " + i.GoVersion
	}
	if !i.Built.IsZero() {
		s += fmt.Sprintf(" (built %s)", i.Built.UTC().Format(time.RFC3339))
	}
	return s
}

// Fields returns the info as structured log fields.
func (i Info) Fields() map[string]any {
	f := map[string]any{
		"version":    i.Version,
		"go_version": i.GoVersion,
	}
	if i.Commit != "" {
		f["commit"] = i.Commit
	}
	if i.Dirty {
		f["dirty"] = true
	}
	return f
}
