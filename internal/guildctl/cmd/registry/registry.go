// Package registry implements `guildctl registry`: read-only views over the
// execution registry.
package registry

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdRegistry groups the registry subcommands.
func NewCmdRegistry(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the execution registry",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdList(f, ioStreams))
	cmd.AddCommand(NewCmdGet(f, ioStreams))

	return cmd
}
