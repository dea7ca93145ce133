package batch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
	"github.com/mverel/guildmaster/pkg/utils/templates"
)

var (
	spawnLong = templates.LongDesc(`
		Spawn a batch of background executions.

		Every agent is validated against the catalog before anything runs;
		one unknown agent fails the whole batch. By default the command
		waits for the results, since the executions run inside this process
		and would die with it. Use --detach to print the handles and exit;
		detached handles settle only under a running server.

		Tasks come from repeated --task AGENT=PROMPT flags or a YAML file:

		  tasks:
		    - agent: scout
		      prompt: Map the north wing
		    - agent: warden
		      prompt: Hold the gate
		      task: "3.2"`)

	spawnExample = templates.Examples(`
		# Spawn two agents and wait for both
		guildctl batch spawn --task "scout=Map the north wing" --task "warden=Hold the gate"

		# Spawn from a YAML file with a five minute budget
		guildctl batch spawn -f batch.yaml --timeout 5m`)
)

// spawnFile is the YAML shape accepted by --filename.
type spawnFile struct {
	Tasks []spawnFileTask `yaml:"tasks"`
}

type spawnFileTask struct {
	Agent  string `yaml:"agent"`
	Prompt string `yaml:"prompt"`
	// Task optionally names the ledger task this execution works on, e.g.
	// "3.2"; the epic id is the part before the dot.
	Task string `yaml:"task,omitempty"`
}

// SpawnOptions is an options struct to support the 'batch spawn' sub command.
type SpawnOptions struct {
	Tasks    []string
	Filename string
	Detach   bool
	Timeout  time.Duration

	batchTasks []entity.BatchTask

	factory cmdutil.Factory
	genericclioptions.IOStreams
}

// NewSpawnOptions returns an initialized SpawnOptions instance.
func NewSpawnOptions(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *SpawnOptions {
	return &SpawnOptions{
		factory:   f,
		IOStreams: ioStreams,
		Timeout:   2 * time.Minute,
	}
}

// NewCmdSpawn returns new initialized instance of the 'batch spawn' sub command.
func NewCmdSpawn(f cmdutil.Factory, ioStreams genericclioptions.IOStreams) *cobra.Command {
	o := NewSpawnOptions(f, ioStreams)

	cmd := &cobra.Command{
		Use:                   "spawn",
		DisableFlagsInUseLine: true,
		Short:                 "Spawn a batch of background executions",
		Long:                  spawnLong,
		Example:               spawnExample,
		Args:                  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.CheckErr(o.Complete())
			cmdutil.CheckErr(o.Run(cmd.Context()))
		},
	}

	cmd.Flags().StringArrayVar(&o.Tasks, "task", o.Tasks, "Batch element as AGENT=PROMPT (repeatable)")
	cmd.Flags().StringVarP(&o.Filename, "filename", "f", o.Filename, "YAML file listing the batch tasks")
	cmd.Flags().BoolVar(&o.Detach, "detach", o.Detach, "Print the handles and exit instead of waiting")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", o.Timeout, "How long to wait for the batch to resolve")

	return cmd
}

// Complete assembles the batch tasks from flags and file.
func (o *SpawnOptions) Complete() error {
	for _, spec := range o.Tasks {
		agent, prompt, ok := strings.Cut(spec, "=")
		if !ok || agent == "" || prompt == "" {
			return fmt.Errorf("bad --task %q, want AGENT=PROMPT", spec)
		}
		o.batchTasks = append(o.batchTasks, entity.BatchTask{AgentName: agent, Prompt: prompt})
	}

	if o.Filename != "" {
		content, err := os.ReadFile(o.Filename)
		if err != nil {
			return fmt.Errorf("read batch file: %w", err)
		}
		var file spawnFile
		if err := yaml.Unmarshal(content, &file); err != nil {
			return fmt.Errorf("parse batch file %s: %w", o.Filename, err)
		}
		for _, ft := range file.Tasks {
			bt := entity.BatchTask{AgentName: ft.Agent, Prompt: ft.Prompt}
			if ft.Task != "" {
				epicID, _, ok := strings.Cut(ft.Task, ".")
				if !ok {
					return fmt.Errorf("bad task id %q in %s, want EPIC.N", ft.Task, o.Filename)
				}
				bt.TaskRef = &entity.TaskRef{EpicID: epicID, TaskID: ft.Task}
			}
			o.batchTasks = append(o.batchTasks, bt)
		}
	}

	if len(o.batchTasks) == 0 {
		return fmt.Errorf("nothing to spawn, give --task or --filename")
	}
	return nil
}

// Run executes the 'batch spawn' sub command.
func (o *SpawnOptions) Run(ctx context.Context) error {
	eng, err := o.factory.Engine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()
	// Waited batches get the supervisor so a stalled worker is retried
	// instead of running out the clock.
	if !o.Detach {
		eng.Start(ctx)
	}

	res, err := eng.Service.SpawnBatch(ctx, o.batchTasks, !o.Detach, o.Timeout)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.Out, "spawned %d handle(s): %s\n", len(res.TaskIDs), strings.Join(res.TaskIDs, ", "))
	if res.Results != nil {
		printGather(o.Out, res.Results)
	}
	return nil
}
