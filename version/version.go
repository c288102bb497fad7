package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set with -ldflags -X. Empty values fall back to debug.BuildInfo.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info describes the running binary.
type Info struct {
	Module    string `json:"module,omitempty"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
	IsDirty   bool   `json:"is_dirty"`
}

func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		IsRelease: Version != "dev",
	}
	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	info.Module = bi.Main.Path
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if _, err := time.Parse(time.RFC3339, s.Value); err == nil && info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	if info.IsDirty {
		info.IsRelease = false
	}
	return info
}

// GetShortVersion is the version with the short commit appended, and a
// -dirty suffix for builds from a modified tree.
func GetShortVersion() string {
	info := GetVersionInfo()
	v := info.Version
	if info.GitCommit != "" {
		v += "-" + info.GitCommit
	}
	if info.IsDirty {
		v += "-dirty"
	}
	return v
}

// Banner is the --version line, e.g. "mediaplay 0.3.0-abc1234 (go1.26.0)".
func Banner(binary string) string {
	info := GetVersionInfo()
	if info.GoVersion == "" {
		return binary + " " + GetShortVersion()
	}
	return fmt.Sprintf("%s %s (%s)", binary, GetShortVersion(), info.GoVersion)
}
