// Package verflag wires a --version flag into a pflag set.
package verflag

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/mverel/guildmaster/pkg/version"
)

var versionFlag = false

// AddFlags registers the --version flag on fs.
func AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&versionFlag, "version", versionFlag, "Print version information and quit")
}

// PrintAndExitIfRequested prints version information and exits when
// --version was passed. Call after flag parsing.
func PrintAndExitIfRequested() {
	if versionFlag {
		info := version.Get()
		fmt.Printf("%s (commit %s, built %s, %s)\n", info.GitVersion, info.GitCommit, info.BuildDate, info.Platform)
		os.Exit(0)
	}
}
