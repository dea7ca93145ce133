// Package learning implements `guildctl learning`: recording observations
// during epic work and recalling them later.
package learning

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// NewCmdLearning groups the learning subcommands.
func NewCmdLearning(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learning",
		Short: "Record and recall learnings",
		Run:   cmdutil.RunHelp,
	}

	cmd.AddCommand(NewCmdAdd(f, ioStreams))
	cmd.AddCommand(NewCmdList(f, ioStreams))

	return cmd
}

// parseKind validates a learning kind argument.
func parseKind(s string) (entity.LearningKind, error) {
	kind := entity.LearningKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown learning kind %q, want pattern, antiPattern, decision or preference", s)
	}
	return kind, nil
}
