package epic

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var statusExample = templates.Examples(`
	# Show the active epic and its tasks
	guildctl epic status`)

// StatusOptions is an options struct to support the 'epic status' sub command.
type StatusOptions struct {
	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewStatusOptions returns an initialized StatusOptions instance.
func NewStatusOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *StatusOptions {
	return &StatusOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdStatus returns new initialized instance of the 'epic status' sub command.
func NewCmdStatus(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewStatusOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "status",
		DisableFlagsInUseLine: true,
		Short:                 "Show the active epic",
		Long:                  "Show the active epic with its task table.",
		Example:               statusExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	return cmd
}

// Run executes the 'epic status' sub command.
func (o *StatusOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	ep, err := eng.Service.GetActiveEpic(ctx)
	if err != nil {
		return err
	}
	if ep == nil {
		fmt.Fprintln(o.Out, "No active epic.")
		return nil
	}

	printEpic(o.Out, ep)
	return nil
}
