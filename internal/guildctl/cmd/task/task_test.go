package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

// newTestFactory points every command at one throwaway workspace and returns
// the agents directory so tests can drop definitions into it.
func newTestFactory(t *testing.T) (cmdutil.Factory, string) {
	t.Helper()
	dir := t.TempDir()
	agentsDir := filepath.Join(dir, "agents")
	return cmdutil.NewDefaultFactory(&cmdutil.EngineOptions{
		WorkspaceDir: filepath.Join(dir, "workspace"),
		AgentsDir:    agentsDir,
		StoreType:    "inmemory",
		NoMemory:     true,
	}), agentsDir
}

func writeAgent(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	def := "---\nname: " + name + "\ndescription: Test agent.\n---\n\nYou are " + name + ".\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(def), 0o644))
}

// seedEpic creates an epic straight through the engine.
func seedEpic(t *testing.T, f cmdutil.Factory, title string) {
	t.Helper()
	ctx := context.Background()
	eng, err := f.Engine(ctx)
	require.NoError(t, err)
	_, err = eng.Service.CreateEpic(ctx, title, nil)
	require.NoError(t, err)
	require.NoError(t, eng.Close())
}

func TestTaskAddRunStatus(t *testing.T) {
	ctx := context.Background()
	f, agentsDir := newTestFactory(t)
	writeAgent(t, agentsDir, "scout")
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	seedEpic(t, f, "Chart the catacombs")

	add := NewAddOptions(f, streams)
	add.AgentName = "scout"
	add.Description = "Walk every corridor and note the exits"
	require.NoError(t, add.Complete([]string{"Survey the upper level"}))
	require.NoError(t, add.Run(ctx))
	require.Contains(t, out.String(), "task 1.1 added to epic 1")

	out.Reset()
	run := NewRunOptions(f, streams)
	require.NoError(t, run.Complete([]string{"1.1"}))
	require.NoError(t, run.Run(ctx))
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "done by core/scout")

	// The blocking run settled the ledger task; completed tasks only move
	// forward.
	status := NewStatusOptions(f, streams)
	require.NoError(t, status.Complete([]string{"1.1", "running"}))
	require.Error(t, status.Run(ctx))
}

func TestTaskRunNeedsAgent(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	seedEpic(t, f, "Chart the catacombs")

	add := NewAddOptions(f, streams)
	require.NoError(t, add.Complete([]string{"Survey the upper level"}))
	require.NoError(t, add.Run(ctx))

	run := NewRunOptions(f, streams)
	require.NoError(t, run.Complete([]string{"1.1"}))
	err := run.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--agent")
}

func TestTaskStatusReportsFailure(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFactory(t)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	seedEpic(t, f, "Chart the catacombs")

	add := NewAddOptions(f, streams)
	require.NoError(t, add.Complete([]string{"Survey the upper level"}))
	require.NoError(t, add.Run(ctx))

	start := NewStatusOptions(f, streams)
	require.NoError(t, start.Complete([]string{"1.1", "running"}))
	require.NoError(t, start.Run(ctx))

	out.Reset()
	fail := NewStatusOptions(f, streams)
	fail.Reason = "the vault door would not yield"
	require.NoError(t, fail.Complete([]string{"1.1", "failed"}))
	require.NoError(t, fail.Run(ctx))
	assert.Contains(t, out.String(), "failed")
}

func TestTaskStatusRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	status := NewStatusOptions(f, streams)
	err := status.Complete([]string{"1.1", "triumphant"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "triumphant")
}

func TestTaskAddWithoutEpic(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	add := NewAddOptions(f, streams)
	require.NoError(t, add.Complete([]string{"Survey the upper level"}))
	err := add.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no epic is active")
}
