package task

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	statusLong = templates.LongDesc(`
		Report a task's lifecycle status.

		Only forward transitions are allowed; moving a completed task back
		to running fails. Failing a task records the reason on it.`)

	statusExample = templates.Examples(`
		# Mark task 3.2 of the active epic completed
		guildctl task status 3.2 completed

		# Fail a task with a reason
		guildctl task status 3.2 failed --reason "the vault door would not yield"`)
)

// StatusOptions is an options struct to support the 'task status' sub command.
type StatusOptions struct {
	TaskID string
	Status string
	EpicID string
	Reason string

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewStatusOptions returns an initialized StatusOptions instance.
func NewStatusOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *StatusOptions {
	return &StatusOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdStatus returns new initialized instance of the 'task status' sub command.
func NewCmdStatus(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewStatusOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "status TASK_ID STATUS",
		DisableFlagsInUseLine: true,
		Short:                 "Report a task's lifecycle status",
		Long:                  statusLong,
		Example:               statusExample,
		Args:                  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.EpicID, "epic", o.EpicID, "Epic the task belongs to (default: the active epic)")
	cmd.Flags().StringVar(&o.Reason, "reason", o.Reason, "Failure reason, recorded on the task")

	return cmd
}

// Complete fills StatusOptions from the command arguments.
func (o *StatusOptions) Complete(args []string) error {
	o.TaskID = args[0]
	o.Status = strings.ToLower(args[1])
	switch entity.TaskStatus(o.Status) {
	case entity.TaskStatusPending, entity.TaskStatusRunning, entity.TaskStatusCompleted,
		entity.TaskStatusFailed, entity.TaskStatusBlocked, entity.TaskStatusSkipped:
		return nil
	}
	return fmt.Errorf("unknown task status %q", args[1])
}

// Run executes the 'task status' sub command.
func (o *StatusOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	ep, err := resolveEpic(ctx, eng, o.EpicID)
	if err != nil {
		return err
	}

	var taskErr *entity.ExecutionError
	if o.Reason != "" {
		taskErr = &entity.ExecutionError{Code: "USER_REPORTED", Message: o.Reason}
	}

	t, err := eng.Service.UpdateTaskStatus(ctx, ep.ID, o.TaskID, entity.TaskStatus(o.Status), taskErr)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "task %s is now %s\n", t.ID, cmdutil.ColorStatus(string(t.Status)))
	return nil
}
