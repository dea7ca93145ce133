package payload

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// PayloadSection is the fundamental interface for payload contribution.
//
// Each section renders one logical segment of the outbound dispatch payload.
// Sections are assembled in Priority order by the Pipeline; ordering matters
// because the executor reads top to bottom and later content overrides
// earlier framing.
type PayloadSection interface {
	// Name returns the unique identifier of this section (for debug/logging).
	Name() string

	// Priority determines assembly order (lower = earlier in the payload).
	// Builtin sections use 100-999.
	Priority() int

	// Enabled returns whether this section should appear in the payload.
	Enabled(ctx context.Context, pc *PayloadContext) bool

	// Render produces the markdown text for this section.
	// Returns empty string to skip (no error).
	// A non-nil error is logged but does NOT abort the pipeline.
	Render(ctx context.Context, pc *PayloadContext) (string, error)
}

// PayloadContext is the data envelope passed to every PayloadSection.Render().
//
// It carries everything sections may need: the resolved agent, dialogue
// state when the exchange is multi-turn, the caller's structured context,
// recalled memories, and the literal prompt.
type PayloadContext struct {
	// AgentName is the resolved catalog agent receiving the payload.
	AgentName string

	// Dialogue is non-nil when the execution runs in multi-turn mode.
	Dialogue *entity.Dialogue

	// Context is the caller's structured framing (may be nil).
	Context *entity.DispatchContext

	// Memories holds records recalled from long-term memory for this
	// dispatch (may be empty).
	Memories []*entity.MemoryRecord

	// Prompt is the literal instruction, always rendered last.
	Prompt string
}
