package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
)

// Service is the name reported by /version and the startup banner.
const Service = "gemini-proxy"

// Populated at build time via -ldflags "-X gemini-proxy/version.BuildVersion=...".
// Falls back to the VCS stamp from debug.ReadBuildInfo when unset.
var (
	BuildVersion = "dev"
	GitSHA       = ""
	BuildTime    = ""
)

type Info struct {
	Service     string `json:"service"`
	Version     string `json:"version"`
	GitSHA      string `json:"git_sha,omitempty"`
	BuildTime   string `json:"build_time,omitempty"`
	VCSModified *bool  `json:"vcs_modified,omitempty"`
	GoVersion   string `json:"go_version"`
}

func Get() Info {
	info := Info{
		Service:   Service,
		Version:   BuildVersion,
		GitSHA:    GitSHA,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitSHA == "" {
				info.GitSHA = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			if b, err := strconv.ParseBool(s.Value); err == nil {
				info.VCSModified = &b
			}
		}
	}
	return info
}

func (i Info) String() string {
	sha := i.GitSHA
	if len(sha) > 12 {
		sha = sha[:12]
	}
	if sha == "" {
		return fmt.Sprintf("%s %s (%s)", i.Service, i.Version, i.GoVersion)
	}
	return fmt.Sprintf("%s %s-%s (%s)", i.Service, i.Version, sha, i.GoVersion)
}
