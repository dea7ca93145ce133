package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

func writeDefinition(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const scoutDefinition = `---
name: scout
description: Fast reconnaissance of unfamiliar ground.
model: swift-1
tools: [map, spyglass]
temperature: 0.2
max_turns: 12
---

You are the guild scout. Report tersely.
`

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		wantHeader string
		wantBody   string
		wantErr    bool
	}{
		{
			name:       "header and body",
			content:    "---\nname: scout\n---\nbody text\n",
			wantHeader: "name: scout",
			wantBody:   "body text\n",
		},
		{
			name:       "closing delimiter at EOF",
			content:    "---\nname: scout\n---",
			wantHeader: "name: scout",
			wantBody:   "",
		},
		{
			name:    "missing opening",
			content: "name: scout\n---\n",
			wantErr: true,
		},
		{
			name:    "missing closing",
			content: "---\nname: scout\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header, body, err := splitFrontMatter(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, header)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}

func TestParseDefinition(t *testing.T) {
	t.Parallel()

	agent, err := parseDefinition("agents/scout.md", "core", []byte(scoutDefinition), time.Now())
	require.NoError(t, err)

	assert.Equal(t, "scout", agent.Name)
	assert.Equal(t, "core", agent.Namespace)
	assert.Equal(t, "core/scout", agent.Qualified())
	assert.Equal(t, "Fast reconnaissance of unfamiliar ground.", agent.Description)
	assert.Equal(t, "swift-1", agent.Model)
	assert.Equal(t, []string{"map", "spyglass"}, agent.Tools)
	require.NotNil(t, agent.Temperature)
	assert.InDelta(t, 0.2, *agent.Temperature, 1e-9)
	require.NotNil(t, agent.MaxTurns)
	assert.Equal(t, 12, *agent.MaxTurns)
	assert.Equal(t, "You are the guild scout. Report tersely.", agent.SystemPrompt)
	assert.Equal(t, "agents/scout.md", agent.Source)
}

func TestParseDefinitionDefaultsNameFromFile(t *testing.T) {
	t.Parallel()

	agent, err := parseDefinition("agents/sage.md", "core", []byte("---\ndescription: quiet\n---\nbody"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "sage", agent.Name)

	_, err = parseDefinition("agents/bad.md", "core", []byte("---\nname: a/b\n---\nbody"), time.Now())
	require.Error(t, err)
}

func TestCatalogResolve(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, filepath.Join(dir, "scout.md"), scoutDefinition)
	writeDefinition(t, filepath.Join(dir, "research", "sage.md"), "---\nname: sage\n---\nStudy the ruins.")
	writeDefinition(t, filepath.Join(dir, "research", "archivist.md"), "---\nname: archivist\n---\nKeep the records.")

	cat := Load(dir)
	ctx := context.Background()

	scout, err := cat.Resolve(ctx, "scout")
	require.NoError(t, err)
	assert.Equal(t, "core/scout", scout.Qualified())

	sage, err := cat.Resolve(ctx, "research/sage")
	require.NoError(t, err)
	assert.Equal(t, "research", sage.Namespace)
	assert.Equal(t, "Study the ruins.", sage.SystemPrompt)

	// A miss names the siblings of the namespace searched.
	_, err = cat.Resolve(ctx, "research/bard")
	require.ErrorIs(t, err, errno.ErrAgentNotFound)
	assert.Contains(t, err.Error(), "archivist")
	assert.Contains(t, err.Error(), "sage")

	_, err = cat.Resolve(ctx, "bard")
	require.ErrorIs(t, err, errno.ErrAgentNotFound)
	assert.Contains(t, err.Error(), "scout")

	_, err = cat.Resolve(ctx, "")
	require.ErrorIs(t, err, errno.ErrInvalidArgument)

	list := cat.List()
	require.Len(t, list, 3)
	assert.Equal(t, "core/scout", list[0].Qualified())
	assert.Equal(t, "research/archivist", list[1].Qualified())
	assert.Equal(t, "research/sage", list[2].Qualified())

	assert.Equal(t, []string{"core", "research"}, cat.Namespaces())
}

func TestCatalogSkipsBrokenDefinitions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, filepath.Join(dir, "scout.md"), scoutDefinition)
	writeDefinition(t, filepath.Join(dir, "broken.md"), "no front matter here")

	cat := Load(dir)
	assert.Len(t, cat.List(), 1)
}

func TestCatalogReload(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, filepath.Join(dir, "scout.md"), scoutDefinition)

	cat := Load(dir)
	ctx := context.Background()

	_, err := cat.Resolve(ctx, "sage")
	require.ErrorIs(t, err, errno.ErrAgentNotFound)

	writeDefinition(t, filepath.Join(dir, "sage.md"), "---\nname: sage\n---\nStudy.")
	cat.Reload()

	_, err = cat.Resolve(ctx, "sage")
	require.NoError(t, err)
}

func TestWatcherReloadsOnNewDefinition(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, filepath.Join(dir, "scout.md"), scoutDefinition)

	cat := Load(dir)
	cat.Watch()
	t.Cleanup(func() { _ = cat.Close() })

	writeDefinition(t, filepath.Join(dir, "sage.md"), "---\nname: sage\n---\nStudy.")

	ctx := context.Background()
	require.Eventually(t, func() bool {
		_, err := cat.Resolve(ctx, "sage")
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)
}
