package handoff

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	resumeLong = templates.LongDesc(`
		Read the workspace handoff and clear the slot.

		Resuming consumes the handoff so it is read exactly once. Use --peek
		to look without clearing.`)

	resumeExample = templates.Examples(`
		# Resume from the last session's handoff
		guildctl handoff resume

		# Look at the handoff without consuming it
		guildctl handoff resume --peek`)
)

// ResumeOptions is an options struct to support the 'handoff resume' sub command.
type ResumeOptions struct {
	Peek bool

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewResumeOptions returns an initialized ResumeOptions instance.
func NewResumeOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *ResumeOptions {
	return &ResumeOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdResume returns new initialized instance of the 'handoff resume' sub command.
func NewCmdResume(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewResumeOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "resume",
		DisableFlagsInUseLine: true,
		Short:                 "Resume from the workspace handoff",
		Long:                  resumeLong,
		Example:               resumeExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&o.Peek, "peek", o.Peek, "Show the handoff without clearing the slot")

	return cmd
}

// Run executes the 'handoff resume' sub command.
func (o *ResumeOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	if o.Peek {
		h, err := eng.Service.GetHandoff(ctx)
		if err != nil {
			return err
		}
		if h == nil {
			fmt.Fprintln(o.Out, "No handoff.")
			return nil
		}
		printHandoff(o.Out, h)
		return nil
	}

	h, err := eng.Service.ConsumeHandoff(ctx)
	if err != nil {
		return err
	}
	printHandoff(o.Out, h)
	return nil
}
