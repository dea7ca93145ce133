package batch

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	gatherLong = templates.LongDesc(`
		Collect the results of previously spawned handles.

		With --partial the command reports whatever subset has resolved when
		the timeout fires; without it a timeout is an error. A timeout of 0
		takes a single look at the registry and returns immediately, which
		is the honest mode for handles spawned by an earlier, now-dead
		invocation.`)

	gatherExample = templates.Examples(`
		# Wait up to a minute for two handles
		guildctl batch gather exec-42 exec-43 --timeout 1m

		# Snapshot whatever state the registry has right now
		guildctl batch gather exec-42 exec-43 --timeout 0 --partial`)
)

// GatherOptions is an options struct to support the 'batch gather' sub command.
type GatherOptions struct {
	IDs     []string
	Timeout time.Duration
	Partial bool

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewGatherOptions returns an initialized GatherOptions instance.
func NewGatherOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *GatherOptions {
	return &GatherOptions{
		factory:   f,
		IOStreams: ioStreams,
		Timeout:   time.Minute,
	}
}

// NewCmdGather returns new initialized instance of the 'batch gather' sub command.
func NewCmdGather(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewGatherOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "gather HANDLE...",
		DisableFlagsInUseLine: true,
		Short:                 "Collect results of spawned handles",
		Long:                  gatherLong,
		Example:               gatherExample,
		Args:                  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().DurationVar(&o.Timeout, "timeout", o.Timeout, "How long to wait for the handles to resolve (0 looks once)")
	cmd.Flags().BoolVar(&o.Partial, "partial", o.Partial, "Report the resolved subset on timeout instead of failing")

	return cmd
}

// Complete fills GatherOptions from the command arguments.
func (o *GatherOptions) Complete(args []string) error {
	o.IDs = args
	return nil
}

// Run executes the 'batch gather' sub command.
func (o *GatherOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()
	// A waited gather wants the supervisor: handles left by a dead process
	// only settle once their stale entries are reconciled.
	if o.Timeout > 0 {
		eng.Start(ctx)
	}

	res, err := eng.Service.Gather(ctx, o.IDs, o.Timeout, o.Partial)
	if err != nil {
		return err
	}

	printGather(o.Out, res)
	return nil
}
