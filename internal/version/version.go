// Package version reports the build identity printed by "prattle version"
// and logged when the server starts.
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const modulePath = "pkt.systems/prattle"

// Stamp is set with -ldflags "-X pkt.systems/prattle/internal/version.Stamp=v1.2.3".
var Stamp = ""

// Info is the identity of the running build.
type Info struct {
	Module    string
	Version   string
	Revision  string
	Time      time.Time
	Modified  bool
	GoVersion string
}

// Read collects Info from the linker stamp and the embedded build info.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		bi = nil
	}
	return fromBuildInfo(bi, Stamp)
}

func fromBuildInfo(bi *debug.BuildInfo, stamp string) Info {
	out := Info{Module: modulePath}
	mainVersion := ""
	if bi != nil {
		if path := strings.TrimSpace(bi.Main.Path); path != "" {
			out.Module = path
		}
		mainVersion = strings.TrimSpace(bi.Main.Version)
		out.GoVersion = bi.GoVersion
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				out.Revision = setting.Value
			case "vcs.time":
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					out.Time = t.UTC()
				}
			case "vcs.modified":
				out.Modified = setting.Value == "true"
			}
		}
	}
	switch {
	case strings.TrimSpace(stamp) != "":
		out.Version = strings.TrimSpace(stamp)
	case mainVersion != "" && mainVersion != "(devel)":
		out.Version = mainVersion
	case out.Revision != "" && !out.Time.IsZero():
		rev := out.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		out.Version = "v0.0.0-" + out.Time.Format("20060102150405") + "-" + rev
	default:
		out.Version = "v0.0.0-unknown"
	}
	return out
}

// Label renders the version. With dirty set, builds from a modified tree get
// a +dirty suffix; without it any such suffix is dropped.
func (i Info) Label(dirty bool) string {
	v := strings.TrimSuffix(i.Version, "+dirty")
	if dirty && (i.Modified || v != i.Version) {
		v += "+dirty"
	}
	return v
}
