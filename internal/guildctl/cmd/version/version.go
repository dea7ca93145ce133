// Package version implements `guildctl version`.
package version

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/json"
	"github.com/mverel/guildmaster/pkg/utils/templates"
	"github.com/mverel/guildmaster/pkg/version"
)

var versionExample = templates.Examples(`
	# Print the client version
	guildctl version

	# Print the full build information
	guildctl version --output json`)

// Options is an options struct to support the 'version' sub command.
type Options struct {
	Output string

	genericclioptions.IOStreams
}

// NewOptions returns an initialized Options instance.
func NewOptions(ioStreams genericclioptions.IOStreams) *Options {
	return &Options{
		IOStreams: ioStreams,
	}
}

// NewCmdVersion returns new initialized instance of the 'version' sub command.
func NewCmdVersion(ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewOptions(ioStreams)

	cmd := &cobra.Command{
		Use:                   "version",
		DisableFlagsInUseLine: true,
		Short:                 "Print the version information",
		Long:                  "Print the version information.",
		Example:               versionExample,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run())
		},
	}

	cmd.Flags().StringVarP(&o.Output, "output", "o", o.Output, "One of '' or 'json'")

	return cmd
}

// Run executes the 'version' sub command.
func (o *Options) Run() error {
	info := version.Get()

	switch o.Output {
	case "":
		fmt.Fprintf(o.Out, "%s (commit %s, built %s, %s)\n", info.GitVersion, info.GitCommit, info.BuildDate, info.Platform)
	case "json":
		marshaled, err := json.Marshal(info)
		if err != nil {
			return err
		}
		fmt.Fprintln(o.Out, string(marshaled))
	default:
		return fmt.Errorf("invalid output format %q", o.Output)
	}

	return nil
}
