package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// version is set via -ldflags at build time.
var version = "(devel)"

// displayVersion returns the version to print. Without ldflags it falls back
// to the module version recorded by go install.
func displayVersion() string {
	v := version
	if v == "(devel)" {
		if info, ok := debug.ReadBuildInfo(); ok {
			v = info.Main.Version
		}
	}
	if !semver.IsValid(v) {
		return "(development build)"
	}
	return semver.Canonical(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "quizpulse", displayVersion())
		},
	}
}
