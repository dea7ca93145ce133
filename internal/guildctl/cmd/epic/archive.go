package epic

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	archiveLong = templates.LongDesc(`
		Archive an epic and free the active slot.

		The outcome is recorded on the epic; learnings captured during the
		epic are pushed to long-term memory in the background.`)

	archiveExample = templates.Examples(`
		# Archive epic 3 as a success
		guildctl epic archive 3

		# Archive epic 3 when only part of the work landed
		guildctl epic archive 3 --outcome PARTIAL`)
)

// ArchiveOptions is an options struct to support the 'epic archive' sub command.
type ArchiveOptions struct {
	ID      string
	Outcome string

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewArchiveOptions returns an initialized ArchiveOptions instance.
func NewArchiveOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *ArchiveOptions {
	return &ArchiveOptions{
		factory:   f,
		IOStreams: ioStreams,
		Outcome:   string(entity.OutcomeSucceeded),
	}
}

// NewCmdArchive returns new initialized instance of the 'epic archive' sub command.
func NewCmdArchive(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewArchiveOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "archive ID",
		DisableFlagsInUseLine: true,
		Short:                 "Archive an epic and free the active slot",
		Long:                  archiveLong,
		Example:               archiveExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.Outcome, "outcome", o.Outcome, "Epic outcome: SUCCEEDED, PARTIAL or FAILED")

	return cmd
}

// Complete fills ArchiveOptions from the command arguments.
func (o *ArchiveOptions) Complete(args []string) error {
	o.ID = args[0]
	o.Outcome = strings.ToUpper(o.Outcome)
	if !entity.Outcome(o.Outcome).Valid() {
		return fmt.Errorf("unknown outcome %q, want SUCCEEDED, PARTIAL or FAILED", o.Outcome)
	}
	return nil
}

// Run executes the 'epic archive' sub command.
func (o *ArchiveOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	outcome := entity.Outcome(o.Outcome)
	if err := eng.Service.ArchiveEpic(ctx, o.ID, outcome); err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "epic %s archived as %s\n", o.ID, cmdutil.ColorOutcome(outcome))
	return nil
}
