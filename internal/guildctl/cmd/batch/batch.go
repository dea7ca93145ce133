// Package batch implements the `guildctl batch` family: spawning several
// background executions at once and gathering their results.
package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdBatch groups the batch subcommands.
func NewCmdBatch(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Spawn and gather batches of background work",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdSpawn(f, ioStreams))
	cmd.AddCommand(NewCmdGather(f, ioStreams))

	return cmd
}

// printGather renders the partitioned result of a gather.
func printGather(out io.Writer, res *entity.GatherResult) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("HANDLE", "AGENT", "STATUS", "RESULT")
	for _, e := range res.Completed {
		table.AddRow(e.ID, e.AgentName, cmdutil.ColorStatus(string(e.Status)), e.Result)
	}
	for _, e := range res.Failed {
		detail := ""
		if e.Error != nil {
			detail = e.Error.Message
		}
		table.AddRow(e.ID, e.AgentName, cmdutil.ColorStatus(string(e.Status)), detail)
	}
	if len(res.Completed)+len(res.Failed) > 0 {
		fmt.Fprintln(out, table)
	}
	if len(res.Pending) > 0 {
		fmt.Fprintf(out, "pending: %s\n", strings.Join(res.Pending, ", "))
	}
	if res.TimedOut {
		fmt.Fprintln(out, color.YellowString("gather timed out before every handle resolved"))
	}
}
