package version

import (
	"runtime"
	"strings"
)

// Version is set at build time with:
// -ldflags "-X github.com/izzyreal/padnav/internal/version.Version=vX.Y.Z"
var Version = "dev"

func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// UserAgent identifies padnav clients to the daemon, e.g.
// "padnav-forward/v1.2.0 (linux/amd64)".
func UserAgent(component string) string {
	component = strings.TrimSpace(component)
	if component == "" {
		component = "padnav"
	}
	return component + "/" + Current() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
