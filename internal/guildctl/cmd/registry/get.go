package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var getExample = templates.Examples(`
	# Show one tracked execution
	guildctl registry get exec-42`)

// GetOptions is an options struct to support the 'registry get' sub command.
type GetOptions struct {
	ID string

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewGetOptions returns an initialized GetOptions instance.
func NewGetOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *GetOptions {
	return &GetOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdGet returns new initialized instance of the 'registry get' sub command.
func NewCmdGet(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewGetOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "get HANDLE",
		DisableFlagsInUseLine: true,
		Short:                 "Show one tracked execution",
		Long:                  "Show one registry entry with its result or failure detail.",
		Example:               getExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	return cmd
}

// Complete fills GetOptions from the command arguments.
func (o *GetOptions) Complete(args []string) error {
	o.ID = args[0]
	return nil
}

// Run executes the 'registry get' sub command.
func (o *GetOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entry, err := eng.Service.GetRegistryEntry(ctx, o.ID)
	if err != nil {
		return err
	}

	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("Handle:", entry.ID)
	table.AddRow("Agent:", entry.AgentName)
	table.AddRow("Status:", cmdutil.ColorStatus(string(entry.Status)))
	table.AddRow("Retries:", entry.Retries)
	if entry.Note != "" {
		table.AddRow("Note:", entry.Note)
	}
	table.AddRow("Started:", entry.StartedAt.Format(time.RFC3339))
	table.AddRow("Heartbeat:", entry.LastHeartbeat.Format(time.RFC3339))
	if entry.CompletedAt != nil {
		table.AddRow("Completed:", entry.CompletedAt.Format(time.RFC3339))
	}
	if entry.Result != "" {
		table.AddRow("Result:", entry.Result)
	}
	if entry.Error != nil {
		table.AddRow("Error:", fmt.Sprintf("[%s] %s", entry.Error.Code, entry.Error.Message))
	}
	fmt.Fprintln(o.Out, table)
	return nil
}
