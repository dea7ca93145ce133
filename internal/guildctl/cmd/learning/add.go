package learning

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
		Record a learning in the workspace ledger.

		Learnings are append-only; one log per kind. When the epic they were
		recorded under is archived they are pushed to long-term memory and
		come back as recalled context in later dispatches.`)

	addExample = templates.Examples(`
		# Record a pattern observed while working
		guildctl learning add pattern "Vault doors yield to patience, not force"

		# Record a decision tied to the active epic's task 3.2
		guildctl learning add decision "Took the east passage" --epic 3 --task 3.2`)
)

// AddOptions is an options struct to support the 'learning add' sub command.
type AddOptions struct {
	Kind   entity.LearningKind
	Text   string
	EpicID string
	TaskID string

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

// NewCmdAdd returns new initialized instance of the 'learning add' sub command.
func NewCmdAdd(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewAddOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "add KIND TEXT",
		DisableFlagsInUseLine: true,
		Short:                 "Record a learning",
		Long:                  addLong,
		Example:               addExample,
		Args:                  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.EpicID, "epic", o.EpicID, "Epic the learning was made under")
	cmd.Flags().StringVar(&o.TaskID, "task", o.TaskID, "Task the learning was made under")

	return cmd
}

// Complete fills AddOptions from the command arguments.
func (o *AddOptions) Complete(args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	o.Kind = kind
	o.Text = args[1]
	return nil
}

// Run executes the 'learning add' sub command.
func (o *AddOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	l := &entity.Learning{
		Kind:   o.Kind,
		Text:   o.Text,
		EpicID: o.EpicID,
		TaskID: o.TaskID,
	}
	if err := eng.Service.AddLearning(ctx, l); err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "learning recorded (%s)\n", o.Kind)
	return nil
}
