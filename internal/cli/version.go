package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// Overridden with -ldflags "-X github.com/lazypower/docrank/internal/cli.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// currentBuild fills commit and date from the embedded VCS stamp when the
// linker did not set them.
func currentBuild() buildInfo {
	b := buildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && b.Commit == "":
				b.Commit = s.Value
			case s.Key == "vcs.time" && b.BuildDate == "":
				b.BuildDate = s.Value
			}
		}
	}
	if len(b.Commit) > 12 {
		b.Commit = b.Commit[:12]
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	if b.BuildDate == "" {
		b.BuildDate = "unknown"
	}
	return b
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	// No config or logging needed to print a version.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		b := currentBuild()
		out := cmd.OutOrStdout()
		if versionJSON {
			return json.NewEncoder(out).Encode(b)
		}
		fmt.Fprintf(out, "docrank %s\n  commit: %s\n  built:  %s\n  go:     %s\n",
			b.Version, b.Commit, b.BuildDate, b.GoVersion)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}

// VersionString is the short form reported by /api/health.
func VersionString() string {
	b := currentBuild()
	return b.Version + " (" + b.Commit + ")"
}
