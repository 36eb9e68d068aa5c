package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the current version of capflow
	Version = "0.3.0"

	// DataFormatVersion is bumped whenever a derived table changes shape
	DataFormatVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version    string `json:"version"`
	BuildTime  string `json:"build_time"`
	GitCommit  string `json:"git_commit"`
	GoVersion  string `json:"go_version"`
	OS         string `json:"os"`
	Arch       string `json:"architecture"`
	DataFormat string `json:"data_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:    Version,
		BuildTime:  BuildTime,
		GitCommit:  GitCommit,
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		DataFormat: DataFormatVersion,
	}
}

// GetFullVersionString returns a one-line summary for -version output
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("capflow v%s (tables %s, built: %s, commit: %s, go: %s, %s/%s)",
		info.Version, info.DataFormat, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Arch)
}
