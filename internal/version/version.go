// Package version reports build information for the acoustic collector tools
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set via -ldflags "-X acoustic-collector/internal/version.Version=..."
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns a multi-line version banner for appName.
func Info(appName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s version %s", appName, Version)
	if GitCommit != "unknown" {
		fmt.Fprintf(&b, " (commit %s)", shortCommit())
	}
	if BuildDate != "unknown" {
		fmt.Fprintf(&b, "\nBuilt: %s", BuildDate)
	}
	fmt.Fprintf(&b, "\nGo: %s", runtime.Version())
	fmt.Fprintf(&b, "\nPlatform: %s/%s", runtime.GOOS, runtime.GOARCH)
	return b.String()
}

func shortCommit() string {
	if len(GitCommit) > 7 {
		return GitCommit[:7]
	}
	return GitCommit
}
