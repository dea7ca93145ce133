package handoff

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdutil "github.com/mverel/guildmaster/internal/guildctl/cmd/util"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/cli/genericclioptions"
)

func newTestFactory(t *testing.T) cmdutil.Factory {
	t.Helper()
	dir := t.TempDir()
	return cmdutil.NewDefaultFactory(&cmdutil.EngineOptions{
		WorkspaceDir: filepath.Join(dir, "workspace"),
		AgentsDir:    filepath.Join(dir, "agents"),
		StoreType:    "inmemory",
		NoMemory:     true,
	})
}

func TestHandoffRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory(t)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	create := NewCreateOptions(f, streams)
	create.Summary = "Catacomb survey half done"
	create.CompletedWork = []string{"Upper level mapped"}
	create.OpenItems = []string{"Lower vaults unexplored"}
	create.Resume = "Start from the east stairwell"
	require.NoError(t, create.Run(ctx))
	require.Contains(t, out.String(), "handoff written")

	// Peek leaves the slot intact.
	out.Reset()
	peek := NewResumeOptions(f, streams)
	peek.Peek = true
	require.NoError(t, peek.Run(ctx))
	assert.Contains(t, out.String(), "Catacomb survey half done")
	assert.Contains(t, out.String(), "Upper level mapped")

	// Resume consumes it.
	out.Reset()
	resume := NewResumeOptions(f, streams)
	require.NoError(t, resume.Run(ctx))
	assert.Contains(t, out.String(), "Start from the east stairwell")

	err := NewResumeOptions(f, streams).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrHandoffEmpty)

	out.Reset()
	peekEmpty := NewResumeOptions(f, streams)
	peekEmpty.Peek = true
	require.NoError(t, peekEmpty.Run(ctx))
	assert.Contains(t, out.String(), "No handoff.")
}

func TestHandoffCreateReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	f := newTestFactory(t)
	streams, _, out, _ := genericclioptions.NewTestIOStreams()

	first := NewCreateOptions(f, streams)
	first.Summary = "First attempt"
	require.NoError(t, first.Run(ctx))

	second := NewCreateOptions(f, streams)
	second.Summary = "Second attempt"
	require.NoError(t, second.Run(ctx))

	out.Reset()
	resume := NewResumeOptions(f, streams)
	require.NoError(t, resume.Run(ctx))
	assert.Contains(t, out.String(), "Second attempt")
	assert.NotContains(t, out.String(), "First attempt")
}
