package handoff

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
	createLong = templates.LongDesc(`
		Write the workspace handoff.

		The workspace holds one handoff slot; writing replaces whatever was
		there. The next session reads it with "guildctl handoff resume".`)

	createExample = templates.Examples(`
		# Hand off mid-epic work to the next session
		guildctl handoff create --summary "Catacomb survey half done" \
			--done "Upper level mapped" \
			--open "Lower vaults unexplored" \
			--resume "Start from the east stairwell"`)
)

// CreateOptions is an options struct to support the 'handoff create' sub command.
type CreateOptions struct {
	Summary       string
	CompletedWork []string
	OpenItems     []string
	Resume        string
	EpicID        string

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

// NewCmdCreate returns new initialized instance of the 'handoff create' sub command.
func NewCmdCreate(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewCreateOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "create",
		DisableFlagsInUseLine: true,
		Short:                 "Write the workspace handoff",
		Long:                  createLong,
		Example:               createExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.Summary, "summary", o.Summary, "One-paragraph state of the work (required)")
	cmd.Flags().StringArrayVar(&o.CompletedWork, "done", o.CompletedWork, "Finished item (repeatable)")
	cmd.Flags().StringArrayVar(&o.OpenItems, "open", o.OpenItems, "Remaining item (repeatable)")
	cmd.Flags().StringVar(&o.Resume, "resume", o.Resume, "Instruction the next session should start with")
	cmd.Flags().StringVar(&o.EpicID, "epic", o.EpicID, "Epic the handoff belongs to")
	_ = cmd.MarkFlagRequired("summary")

	return cmd
}

// Run executes the 'handoff create' sub command.
func (o *CreateOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	h := &entity.Handoff{
		EpicID:        o.EpicID,
		Summary:       o.Summary,
		CompletedWork: o.CompletedWork,
		OpenItems:     o.OpenItems,
		Resume:        o.Resume,
	}
	if err := eng.Service.CreateHandoff(ctx, h); err != nil {
		return err
	}

	fmt.Fprintln(o.Out, "handoff written")
	return nil
}
