package versions

import (
	"fmt"
	"runtime"
)

// Build information. Populated at build time via -ldflags.
var (
	// Version is the current version of the server, set at build time
	Version = "dev"
	// Commit is the git commit hash the binary was built from
	Commit = "unknown"
	// BuildDate is the timestamp of the build
	BuildDate = "unknown"
)

// VersionInfo holds the version details reported by the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information of the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
