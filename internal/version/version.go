package version

import (
	"fmt"

	"github.com/fatih/color"
)

// Version information for the bu CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgCyan, color.Bold)
	versionColor = color.New(color.FgGreen, color.Bold)
	metaColor    = color.New(color.Faint)
)

// Banner renders the one-line version string printed by `bu version`.
func Banner() string {
	s := nameColor.Sprint("bu") + " " + versionColor.Sprint(Version)
	switch {
	case GitCommit != "" && BuildDate != "":
		s += metaColor.Sprint(fmt.Sprintf(" (%s, %s)", GitCommit, BuildDate))
	case GitCommit != "":
		s += metaColor.Sprint(fmt.Sprintf(" (%s)", GitCommit))
	}
	return s
}
