// Package task implements the `guildctl task` family: adding work items to
// the active epic, dispatching them and reporting their status.
package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdTask groups the task subcommands.
func NewCmdTask(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks inside an epic",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdAdd(f, ioStreams))
	cmd.AddCommand(NewCmdRun(f, ioStreams))
	cmd.AddCommand(NewCmdStatus(f, ioStreams))

	return cmd
}

// resolveEpic returns the epic the command targets: the one named by id, or
// the active epic when id is empty.
func resolveEpic(ctx context.Context, eng *cmdutil.Engine, id string) (*entity.Epic, error) {
	if id != "" {
		return eng.Service.GetEpic(ctx, id)
	}
	ep, err := eng.Service.GetActiveEpic(ctx)
	if err != nil {
		return nil, err
	}
	if ep == nil {
		return nil, fmt.Errorf("no --epic given and no epic is active")
	}
	return ep, nil
}
