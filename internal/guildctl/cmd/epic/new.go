package epic

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	newLong = templates.LongDesc(`
		Create a new epic in the workspace ledger.

		The workspace holds at most one active epic; creating while another
		is active fails. Tasks given with --task start pending and can be
		refined later with "guildctl task add".`)

	newExample = templates.Examples(`
		# Create an epic with two pending tasks
		guildctl epic new "Chart the catacombs" --task "Survey the upper level" --task "Map the lower vaults"

		# Create an epic and attach its specification document
		guildctl epic new "Restock the armory" --spec-file armory.md`)
)

// CreateOptions is an options struct to support the 'epic new' sub command.
type CreateOptions struct {
	Title    string
	Tasks    []string
	SpecFile string
	PlanFile string

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewCreateOptions returns an initialized CreateOptions instance.
func NewCreateOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *CreateOptions {
	return &CreateOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdNew returns new initialized instance of the 'epic new' sub command.
func NewCmdNew(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewCreateOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "new TITLE",
		DisableFlagsInUseLine: true,
		Short:                 "Create a new epic",
		Long:                  newLong,
		Example:               newExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringArrayVar(&o.Tasks, "task", o.Tasks, "Task title to seed the epic with (repeatable)")
	cmd.Flags().StringVar(&o.SpecFile, "spec-file", o.SpecFile, "File whose contents become the epic's specification artifact")
	cmd.Flags().StringVar(&o.PlanFile, "plan-file", o.PlanFile, "File whose contents become the epic's plan artifact")

	return cmd
}

// Complete fills CreateOptions from the command arguments.
func (o *CreateOptions) Complete(args []string) error {
	o.Title = args[0]
	return nil
}

// Run executes the 'epic new' sub command.
func (o *CreateOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	tasks := make([]*entity.Task, 0, len(o.Tasks))
	for _, title := range o.Tasks {
		tasks = append(tasks, &entity.Task{Title: title})
	}

	ep, err := eng.Service.CreateEpic(ctx, o.Title, tasks)
	if err != nil {
		return err
	}

	if o.SpecFile != "" {
		content, err := os.ReadFile(o.SpecFile)
		if err != nil {
			return fmt.Errorf("read spec file: %w", err)
		}
		if err := eng.Service.WriteSpec(ctx, ep.ID, string(content)); err != nil {
			return err
		}
	}
	if o.PlanFile != "" {
		content, err := os.ReadFile(o.PlanFile)
		if err != nil {
			return fmt.Errorf("read plan file: %w", err)
		}
		if err := eng.Service.WritePlan(ctx, ep.ID, string(content)); err != nil {
			return err
		}
	}

	fmt.Fprintf(o.Out, "epic %s created with %d task(s)\n", ep.ID, len(ep.Tasks))
	return nil
}
