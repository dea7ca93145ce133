// Package handoff implements `guildctl handoff`: writing session context for
// the next session and resuming from it.
package handoff

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdHandoff groups the handoff subcommands.
func NewCmdHandoff(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Write and resume session handoffs",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdCreate(f, ioStreams))
	cmd.AddCommand(NewCmdResume(f, ioStreams))

	return cmd
}

// printHandoff renders a handoff the way a resuming session reads it.
func printHandoff(out io.Writer, h *entity.Handoff) {
	fmt.Fprintf(out, "Handoff %s (%s)\n", h.ID, h.CreatedAt.Format("2006-01-02 15:04"))
	if h.EpicID != "" {
		fmt.Fprintf(out, "Epic: %s\n", h.EpicID)
	}
	fmt.Fprintf(out, "\n%s\n", h.Summary)
	if len(h.CompletedWork) > 0 {
		fmt.Fprintf(out, "\nDone:\n")
		for _, item := range h.CompletedWork {
			fmt.Fprintf(out, "  - %s\n", item)
		}
	}
	if len(h.OpenItems) > 0 {
		fmt.Fprintf(out, "\nOpen:\n")
		for _, item := range h.OpenItems {
			fmt.Fprintf(out, "  - %s\n", item)
		}
	}
	if h.Resume != "" {
		fmt.Fprintf(out, "\n%s %s\n", color.CyanString("Resume:"), h.Resume)
	}
}
