package payload

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

func TestAssembleOrdersSections(t *testing.T) {
	t.Parallel()

	d := entity.NewDialogue()
	d.History = append(d.History,
		entity.DialogueMessage{Role: "caller", Content: "draft the outline"},
		entity.DialogueMessage{Role: "agent", Content: "outline attached"},
	)

	pc := &PayloadContext{
		AgentName: "scribe",
		Dialogue:  d,
		Context: &entity.DispatchContext{
			Goals:       []string{"ship the report"},
			Constraints: []string{"no external calls"},
			Assumptions: []string{"inputs are in workspace/in"},
			FileAssignments: []entity.FileAssignment{
				{AgentName: "scribe", Files: []string{"report.md", "notes.md"}},
			},
		},
		Memories: []*entity.MemoryRecord{
			{Kind: "pattern", Text: "summaries go at the top"},
		},
		Prompt: "Write the final report now.",
	}

	text, err := NewDefaultPipeline().Assemble(context.Background(), pc)
	require.NoError(t, err)

	// The executor reads top to bottom: instructions, then history, then
	// framing, then the literal prompt.
	idxInstructions := strings.Index(text, "## Dialogue Mode")
	idxHistory := strings.Index(text, "## Dialogue History")
	idxContext := strings.Index(text, "## Context")
	idxPrompt := strings.Index(text, "Write the final report now.")

	require.NotEqual(t, -1, idxInstructions)
	require.NotEqual(t, -1, idxHistory)
	require.NotEqual(t, -1, idxContext)
	require.NotEqual(t, -1, idxPrompt)
	assert.Less(t, idxInstructions, idxHistory)
	assert.Less(t, idxHistory, idxContext)
	assert.Less(t, idxContext, idxPrompt)

	assert.Contains(t, text, "turn 1 of a multi-turn exchange")
	assert.Contains(t, text, "**caller:** draft the outline")
	assert.Contains(t, text, "- ship the report")
	assert.Contains(t, text, "- [pattern] summaries go at the top")
	assert.Contains(t, text, "`scribe`: report.md, notes.md")
	assert.True(t, strings.HasSuffix(text, "Write the final report now."))
}

func TestAssembleSkipsEmptySections(t *testing.T) {
	t.Parallel()

	text, err := NewDefaultPipeline().Assemble(context.Background(), &PayloadContext{
		AgentName: "scribe",
		Prompt:    "Just do the thing.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Just do the thing.", text)
	assert.NotContains(t, text, "## Dialogue")
	assert.NotContains(t, text, "## Context")
}

func TestAssembleWithContextOnly(t *testing.T) {
	t.Parallel()

	text, err := NewDefaultPipeline().Assemble(context.Background(), &PayloadContext{
		AgentName: "scout",
		Context:   &entity.DispatchContext{Goals: []string{"map the module"}},
		Prompt:    "Start with the entry points.",
	})
	require.NoError(t, err)

	assert.NotContains(t, text, "## Dialogue Mode")
	assert.Contains(t, text, "**Goals:**")
	assert.NotContains(t, text, "**Constraints:**")
	idxContext := strings.Index(text, "## Context")
	idxPrompt := strings.Index(text, "Start with the entry points.")
	assert.Less(t, idxContext, idxPrompt)
}
