// Package epic implements the `guildctl epic` family: lifecycle commands
// for the workspace's bounded units of work.
package epic

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdEpic groups the epic lifecycle subcommands.
func NewCmdEpic(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epic",
		Short: "Manage the workspace's epics",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdNew(f, ioStreams))
	cmd.AddCommand(NewCmdStatus(f, ioStreams))
	cmd.AddCommand(NewCmdShow(f, ioStreams))
	cmd.AddCommand(NewCmdArchive(f, ioStreams))

	return cmd
}

// printEpic renders one epic with its task table.
func printEpic(out io.Writer, ep *entity.Epic) {
	fmt.Fprintf(out, "Epic %s: %s\n", ep.ID, ep.Title)
	fmt.Fprintf(out, "Status:  %s\n", cmdutil.ColorStatus(string(ep.Status)))
	if ep.Outcome != "" {
		fmt.Fprintf(out, "Outcome: %s\n", cmdutil.ColorOutcome(ep.Outcome))
	}
	if ep.ArchivedAt != nil {
		fmt.Fprintf(out, "Archived: %s\n", ep.ArchivedAt.Format(time.RFC3339))
	}
	if len(ep.Tasks) == 0 {
		fmt.Fprintln(out, "No tasks.")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("ID", "STATUS", "TITLE", "AGENT", "DEPENDS ON")
	for _, t := range ep.Tasks {
		table.AddRow(t.ID, cmdutil.ColorStatus(string(t.Status)), t.Title, t.AgentName, strings.Join(t.DependsOn, ","))
	}
	fmt.Fprintln(out, table)
}
