// Package cmd builds the guildctl command tree.
package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mverel/guildmaster/internal/guildctl/cmd/batch"
	"github.com/mverel/guildmaster/internal/guildctl/cmd/epic"
	"github.com/mverel/guildmaster/internal/guildctl/cmd/handoff"
	cmdinfo "github.com/mverel/guildmaster/internal/guildctl/cmd/info"
	"github.com/mverel/guildmaster/internal/guildctl/cmd/learning"
	"github.com/mverel/guildmaster/internal/guildctl/cmd/registry"
	"github.com/mverel/guildmaster/internal/guildctl/cmd/task"
	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	cmdversion "github.com/mverel/guildmaster/internal/guildctl/cmd/version"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/cliflag"
	"github.com/mverel/guildmaster/pkg/utils/templates"
	"github.com/mverel/guildmaster/pkg/version/verflag"
)

// NewDefaultGuildCtlCommand creates the `guildctl` command with default arguments.
func NewDefaultGuildCtlCommand() *cobra.Command {
	return NewGuildCtlCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewGuildCtlCommand(in io.Reader, out, err io.Writer) *cobra.Command {
	// Parent command to which all subcommands are added.
	cmds := &cobra.Command{
		Use:   "guildctl",
		Short: "guildctl drives the guildmaster orchestration engine",
		Long: templates.LongDesc(fmt.Sprintf(`%s
		guildctl is the CLI for the guildmaster task orchestration engine.

		It manages the workspace ledger (epics, tasks, learnings, handoffs),
		dispatches agents, spawns and gathers batches of background work, and
		inspects the execution registry. Commands open the workspace in
		process; run them from the directory that holds ./data or point
		--workspace somewhere else.`, Banner())),
		Run: runHelp,
		// Hook before and after Run initialize and write profiles to disk,
		// respectively.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return initProfiling()
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return flushProfiling()
		},
	}
	flags := cmds.PersistentFlags()
	flags.SetNormalizeFunc(cliflag.WarnWordSepNormalizeFunc) // Warn for "_" flags

	// Normalize all flags that are coming from other packages or pre-configurations
	flags.SetNormalizeFunc(cliflag.WordSepNormalizeFunc)

	addProfilingFlags(flags)
	addGlobalFlags(flags)

	_ = viper.BindPFlags(cmds.PersistentFlags())
	cmds.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	// From this point and forward we get warnings on flags that contain "_" separators
	cmds.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc)

	ioStreams := genericclioptions.IOStreams{In: in, Out: out, ErrOut: err}
	f := cmdutil.NewDefaultFactory(globalEngineOptions)

	cmds.AddGroup(
		&cobra.Group{ID: "ledger", Title: "Ledger Commands:"},
		&cobra.Group{ID: "dispatch", Title: "Dispatch Commands:"},
		&cobra.Group{ID: "session", Title: "Session Commands:"},
	)
	addCommandToGroup(cmds, "ledger",
		epic.NewCmdEpic(f, ioStreams),
		task.NewCmdTask(f, ioStreams),
		learning.NewCmdLearning(f, ioStreams),
	)
	addCommandToGroup(cmds, "dispatch",
		batch.NewCmdBatch(f, ioStreams),
		registry.NewCmdRegistry(f, ioStreams),
	)
	addCommandToGroup(cmds, "session",
		handoff.NewCmdHandoff(f, ioStreams),
		cmdinfo.NewCmdInfo(ioStreams),
		cmdversion.NewCmdVersion(ioStreams),
	)

	verflag.AddFlags(cmds.PersistentFlags())

	return cmds
}

func addCommandToGroup(parent *cobra.Command, groupID string, cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.GroupID = groupID
		parent.AddCommand(c)
	}
}

func runHelp(cmd *cobra.Command, args []string) {
	_ = cmd.Help()
}
