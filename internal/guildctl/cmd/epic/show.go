package epic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var showExample = templates.Examples(`
	# Show epic 3, archived or active
	guildctl epic show 3

	# Show epic 3 with its execution log
	guildctl epic show 3 --events

	# Print epic 3's specification document
	guildctl epic show 3 --spec`)

// ShowOptions is an options struct to support the 'epic show' sub command.
type ShowOptions struct {
	ID     string
	Events bool
	Spec   bool
	Plan   bool

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewShowOptions returns an initialized ShowOptions instance.
func NewShowOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *ShowOptions {
	return &ShowOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdShow returns new initialized instance of the 'epic show' sub command.
func NewCmdShow(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewShowOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "show ID",
		DisableFlagsInUseLine: true,
		Short:                 "Show one epic, archived epics included",
		Long:                  "Show one epic by id. Archived epics resolve too.",
		Example:               showExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&o.Events, "events", o.Events, "Include the epic's execution log")
	cmd.Flags().BoolVar(&o.Spec, "spec", o.Spec, "Print the specification artifact instead of the summary")
	cmd.Flags().BoolVar(&o.Plan, "plan", o.Plan, "Print the plan artifact instead of the summary")

	return cmd
}

// Complete fills ShowOptions from the command arguments.
func (o *ShowOptions) Complete(args []string) error {
	o.ID = args[0]
	return nil
}

// Run executes the 'epic show' sub command.
func (o *ShowOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	// Artifact flags print the raw document so output stays pipeable.
	if o.Spec {
		content, err := eng.Service.ReadSpec(ctx, o.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(o.Out, content)
		return nil
	}
	if o.Plan {
		content, err := eng.Service.ReadPlan(ctx, o.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(o.Out, content)
		return nil
	}

	ep, err := eng.Service.GetEpic(ctx, o.ID)
	if err != nil {
		return err
	}
	printEpic(o.Out, ep)

	if !o.Events {
		return nil
	}
	events, err := eng.Service.Events(ctx, o.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(o.Out, "\nEvents (%d):\n", len(events))
	for _, ev := range events {
		line := fmt.Sprintf("%s  %-22s", ev.At.Format("2006-01-02 15:04:05"), ev.Type)
		if ev.TaskID != "" {
			line += " task=" + ev.TaskID
		}
		if len(ev.Detail) > 0 {
			keys := make([]string, 0, len(ev.Detail))
			for k := range ev.Detail {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+"="+ev.Detail[k])
			}
			line += " " + strings.Join(parts, " ")
		}
		fmt.Fprintln(o.Out, line)
	}
	return nil
}
