package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/jinzhu/copier"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var listExample = templates.Examples(`
	# List every tracked execution
	guildctl registry list`)

// entryRow is the flat view the list table renders. Fields are filled from
// the registry entry by name.
type entryRow struct {
	ID            string
	AgentName     string
	Status        string
	Retries       int
	Note          string
	LastHeartbeat time.Time
}

// ListOptions is an options struct to support the 'registry list' sub command.
type ListOptions struct {
	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewListOptions returns an initialized ListOptions instance.
func NewListOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *ListOptions {
	return &ListOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdList returns new initialized instance of the 'registry list' sub command.
func NewCmdList(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewListOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Short:                 "List tracked executions",
		Long:                  "List every execution the registry tracks, live and settled.",
		Example:               listExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	return cmd
}

// Run executes the 'registry list' sub command.
func (o *ListOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.Service.ListRegistryEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(o.Out, "No tracked executions.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 50
	table.Wrap = true
	table.AddRow("HANDLE", "AGENT", "STATUS", "RETRIES", "HEARTBEAT", "NOTE")
	for _, entry := range entries {
		var row entryRow
		if err := copier.Copy(&row, entry); err != nil {
			return fmt.Errorf("render entry %s: %w", entry.ID, err)
		}
		table.AddRow(row.ID, row.AgentName, cmdutil.ColorStatus(row.Status), row.Retries,
			row.LastHeartbeat.Format("15:04:05"), row.Note)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}
