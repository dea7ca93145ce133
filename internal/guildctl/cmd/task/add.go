package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	addLong = templates.LongDesc(`
		Add a task to an epic.

		Without --epic the task lands on the active epic. Dependencies name
		sibling task ids that must complete before this task may run; epics
		hold a bounded number of tasks, adding beyond the cap fails.`)

	addExample = templates.Examples(`
		# Add a task to the active epic
		guildctl task add "Survey the lower vaults"

		# Add a task for a named agent, blocked on task 3.1
		guildctl task add "Clear the vaults" --agent warden --deps 3.1`)
)

// AddOptions is an options struct to support the 'task add' sub command.
type AddOptions struct {
	Title       string
	EpicID      string
	AgentName   string
	Description string
	DependsOn   []string

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewAddOptions returns an initialized AddOptions instance.
func NewAddOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *AddOptions {
	return &AddOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdAdd returns new initialized instance of the 'task add' sub command.
func NewCmdAdd(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewAddOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "add TITLE",
		DisableFlagsInUseLine: true,
		Short:                 "Add a task to an epic",
		Long:                  addLong,
		Example:               addExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.EpicID, "epic", o.EpicID, "Epic to add the task to (default: the active epic)")
	cmd.Flags().StringVar(&o.AgentName, "agent", o.AgentName, "Catalog agent suggested for this task")
	cmd.Flags().StringVar(&o.Description, "desc", o.Description, "Full instruction handed to the executing agent")
	cmd.Flags().StringSliceVar(&o.DependsOn, "deps", o.DependsOn, "Task ids that must complete first")

	return cmd
}

// Complete fills AddOptions from the command arguments.
func (o *AddOptions) Complete(args []string) error {
	o.Title = args[0]
	return nil
}

// Run executes the 'task add' sub command.
func (o *AddOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	ep, err := resolveEpic(ctx, eng, o.EpicID)
	if err != nil {
		return err
	}

	updated, err := eng.Service.AddTask(ctx, ep.ID, &entity.Task{
		Title:       o.Title,
		Description: o.Description,
		AgentName:   o.AgentName,
		DependsOn:   o.DependsOn,
	})
	if err != nil {
		return err
	}

	added := updated.Tasks[len(updated.Tasks)-1]
	fmt.Fprintf(o.Out, "task %s added to epic %s\n", added.ID, updated.ID)
	return nil
}
