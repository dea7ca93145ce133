package learning

import (
	"context"
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var listExample = templates.Examples(`
	# The twenty most recent learnings across all kinds
	guildctl learning list

	# Only anti-patterns
	guildctl learning list --kind antiPattern --limit 10`)

// ListOptions is an options struct to support the 'learning list' sub command.
type ListOptions struct {
	Kind  string
	Limit int

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewListOptions returns an initialized ListOptions instance.
func NewListOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *ListOptions {
	return &ListOptions{
		factory:   f,
		IOStreams: ioStreams,
		Limit:     20,
	}
}

// NewCmdList returns new initialized instance of the 'learning list' sub command.
func NewCmdList(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewListOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "list",
		DisableFlagsInUseLine: true,
		Short:                 "List recorded learnings",
		Long:                  "List the most recent learnings in the order they were recorded.",
		Example:               listExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.Kind, "kind", o.Kind, "Only learnings of this kind (pattern, antiPattern, decision, preference)")
	cmd.Flags().IntVar(&o.Limit, "limit", o.Limit, "Maximum number of learnings to show")

	return cmd
}

// Run executes the 'learning list' sub command.
func (o *ListOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	var learnings []*entity.Learning
	if o.Kind == "" {
		learnings, err = eng.Service.RecentLearnings(ctx, o.Limit)
	} else {
		var kind entity.LearningKind
		kind, err = parseKind(o.Kind)
		if err != nil {
			return err
		}
		learnings, err = eng.Service.ListLearnings(ctx, kind, o.Limit)
	}
	if err != nil {
		return err
	}
	if len(learnings) == 0 {
		fmt.Fprintln(o.Out, "No learnings recorded.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 70
	table.Wrap = true
	table.AddRow("WHEN", "KIND", "EPIC", "TEXT")
	for _, l := range learnings {
		table.AddRow(l.CreatedAt.Format("2006-01-02 15:04"), string(l.Kind), l.EpicID, l.Text)
	}
	fmt.Fprintln(o.Out, table)
	return nil
}
