package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

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

func TestSpawnCompleteParsesTaskSpecs(t *testing.T) {
	t.Parallel()

	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	o := NewSpawnOptions(f, streams)
	o.Tasks = []string{"scout=Map the north wing", "warden=Hold the gate"}
	require.NoError(t, o.Complete())
	require.Len(t, o.batchTasks, 2)
	assert.Equal(t, "scout", o.batchTasks[0].AgentName)
	assert.Equal(t, "Hold the gate", o.batchTasks[1].Prompt)

	bad := NewSpawnOptions(f, streams)
	bad.Tasks = []string{"scout"}
	require.Error(t, bad.Complete())

	empty := NewSpawnOptions(f, streams)
	require.Error(t, empty.Complete())
}

func TestSpawnCompleteReadsYAMLFile(t *testing.T) {
	t.Parallel()

	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	path := filepath.Join(t.TempDir(), "batch.yaml")
	content := `tasks:
  - agent: scout
    prompt: Map the north wing
  - agent: warden
    prompt: Hold the gate
    task: "3.2"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	o := NewSpawnOptions(f, streams)
	o.Filename = path
	require.NoError(t, o.Complete())
	require.Len(t, o.batchTasks, 2)
	require.NotNil(t, o.batchTasks[1].TaskRef)
	assert.Equal(t, "3", o.batchTasks[1].TaskRef.EpicID)
	assert.Equal(t, "3.2", o.batchTasks[1].TaskRef.TaskID)
}

func TestSpawnAndWait(t *testing.T) {
	ctx := context.Background()
	f, agentsDir := newTestFactory(t)
	writeAgent(t, agentsDir, "scout")
	writeAgent(t, agentsDir, "warden")
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	o := NewSpawnOptions(f, streams)
	o.Tasks = []string{"scout=Map the north wing", "warden=Hold the gate"}
	o.Timeout = 10 * time.Second
	require.NoError(t, o.Complete())
	require.NoError(t, o.Run(ctx))

	assert.Contains(t, out.String(), "spawned 2 handle(s)")
	assert.Contains(t, out.String(), "done by core/scout")
	assert.Contains(t, out.String(), "done by core/warden")
	assert.NotContains(t, out.String(), "timed out")
}

func TestSpawnRejectsUnknownAgent(t *testing.T) {
	ctx := context.Background()
	f, agentsDir := newTestFactory(t)
	writeAgent(t, agentsDir, "scout")
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	o := NewSpawnOptions(f, streams)
	o.Tasks = []string{"scout=Map the north wing", "stranger=Do something"}
	require.NoError(t, o.Complete())

	err := o.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrAgentNotFound)
}

func TestGatherUnknownHandle(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestFactory(t)
	streams, _, _, _ := genericclioptions.NewTestIOStreams()

	o := NewGatherOptions(f, streams)
	o.Timeout = 0
	require.NoError(t, o.Complete([]string{"no-such-handle"}))

	err := o.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrEntryNotFound)
}
