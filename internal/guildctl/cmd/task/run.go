package task

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	runLong = templates.LongDesc(`
		Dispatch a task's agent and wait for the result.

		The task must have an agent, either recorded on the task or given
		with --agent, and all of its dependencies must be completed. The
		terminal outcome is written back to the task in the ledger.

		With --background the command returns a handle immediately instead
		of waiting. The work is tracked in the execution registry; if this
		process exits before the work completes, a running server's
		supervisor picks the entry up once it goes stale.`)

	runExample = templates.Examples(`
		# Run task 3.2 of the active epic and wait
		guildctl task run 3.2

		# Run with an explicit agent and instruction
		guildctl task run 3.2 --agent warden --prompt "Hold the gate until relieved"`)
)

// RunOptions is an options struct to support the 'task run' sub command.
type RunOptions struct {
	TaskID     string
	EpicID     string
	AgentName  string
	Prompt     string
	Background bool

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewRunOptions returns an initialized RunOptions instance.
func NewRunOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *RunOptions {
	return &RunOptions{
		factory:   f,
		IOStreams: ioStreams,
	}
}

// NewCmdRun returns new initialized instance of the 'task run' sub command.
func NewCmdRun(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewRunOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "run TASK_ID",
		DisableFlagsInUseLine: true,
		Short:                 "Dispatch a task's agent",
		Long:                  runLong,
		Example:               runExample,
		Args:                  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete(args))
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&o.EpicID, "epic", o.EpicID, "Epic the task belongs to (default: the active epic)")
	cmd.Flags().StringVar(&o.AgentName, "agent", o.AgentName, "Agent to dispatch, overriding the task's own")
	cmd.Flags().StringVar(&o.Prompt, "prompt", o.Prompt, "Instruction to send, overriding the task's description")
	cmd.Flags().BoolVar(&o.Background, "background", o.Background, "Return a handle instead of waiting")

	return cmd
}

// Complete fills RunOptions from the command arguments.
func (o *RunOptions) Complete(args []string) error {
	o.TaskID = args[0]
	return nil
}

// Run executes the 'task run' sub command.
func (o *RunOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	ep, err := resolveEpic(ctx, eng, o.EpicID)
	if err != nil {
		return err
	}
	t := ep.Task(o.TaskID)
	if t == nil {
		return fmt.Errorf("task %s not found in epic %s", o.TaskID, ep.ID)
	}

	agent := o.AgentName
	if agent == "" {
		agent = t.AgentName
	}
	if agent == "" {
		return fmt.Errorf("task %s names no agent, pass --agent", t.ID)
	}
	prompt := o.Prompt
	if prompt == "" {
		prompt = t.Description
	}
	if prompt == "" {
		prompt = t.Title
	}

	mode := entity.ModeBlocking
	if o.Background {
		mode = entity.ModeBackground
	}

	exec, err := eng.Service.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: agent,
		Prompt:    prompt,
		Mode:      mode,
		TaskRef:   &entity.TaskRef{EpicID: ep.ID, TaskID: t.ID},
	})
	if err != nil {
		return err
	}

	if o.Background {
		fmt.Fprintf(o.Out, "dispatched %s in background, handle %s\n", agent, exec.ID)
		return nil
	}

	fmt.Fprintf(o.Out, "execution %s %s\n", exec.ID, cmdutil.ColorStatus(string(exec.Status)))
	if exec.Output != "" {
		fmt.Fprintln(o.Out, exec.Output)
	}
	if exec.Error != nil {
		return fmt.Errorf("task %s failed: %s", t.ID, exec.Error.Message)
	}
	return nil
}
