package payload

import (
	"context"
	"fmt"
	"strings"
)

// --- DialogueInstructionsSection (Priority: 100) ---
//
// Operating instructions for multi-turn exchanges. Rendered first so the
// executor knows, before reading anything else, that its output is
// provisional until the dialogue resolves.

// DialogueInstructionsSection renders the multi-turn operating contract.
type DialogueInstructionsSection struct{}

func (s *DialogueInstructionsSection) Name() string  { return "dialogue_instructions" }
func (s *DialogueInstructionsSection) Priority() int { return 100 }

func (s *DialogueInstructionsSection) Enabled(_ context.Context, pc *PayloadContext) bool {
	return pc.Dialogue != nil
}

func (s *DialogueInstructionsSection) Render(_ context.Context, pc *PayloadContext) (string, error) {
	var buf strings.Builder
	buf.WriteString("## Dialogue Mode\n\n")
	buf.WriteString(fmt.Sprintf("This is turn %d of a multi-turn exchange. ", pc.Dialogue.Turn+1))
	buf.WriteString("Your output is provisional until the dialogue reaches `approved` or `completed`.\n\n")
	buf.WriteString("End your reply with exactly one status line:\n\n")
	buf.WriteString("- `STATUS: needs_input` when you need more information before continuing\n")
	buf.WriteString("- `STATUS: needs_verification` when the work is ready to be checked\n")
	buf.WriteString("- `STATUS: needs_approval` when the work is ready for a decision\n")
	buf.WriteString("- `STATUS: completed` when the work is done and no decision is required")
	return buf.String(), nil
}

// --- DialogueHistorySection (Priority: 200) ---
//
// Replays the prior exchanges so a continued dialogue keeps its thread.
// Skipped on the first turn (empty history).

// DialogueHistorySection renders the prior dialogue exchanges.
type DialogueHistorySection struct{}

func (s *DialogueHistorySection) Name() string  { return "dialogue_history" }
func (s *DialogueHistorySection) Priority() int { return 200 }

func (s *DialogueHistorySection) Enabled(_ context.Context, pc *PayloadContext) bool {
	return pc.Dialogue != nil && len(pc.Dialogue.History) > 0
}

func (s *DialogueHistorySection) Render(_ context.Context, pc *PayloadContext) (string, error) {
	var buf strings.Builder
	buf.WriteString("## Dialogue History\n")
	for _, msg := range pc.Dialogue.History {
		buf.WriteString(fmt.Sprintf("\n**%s:** %s\n", msg.Role, msg.Content))
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// --- ContextSection (Priority: 300) ---
//
// The caller's structured framing plus recalled memories. Each block is
// optional; the whole section is skipped when nothing would render.

// ContextSection renders goals, constraints, assumptions, recalled memories
// and file assignments.
type ContextSection struct{}

func (s *ContextSection) Name() string  { return "context" }
func (s *ContextSection) Priority() int { return 300 }

func (s *ContextSection) Enabled(_ context.Context, pc *PayloadContext) bool {
	if len(pc.Memories) > 0 {
		return true
	}
	c := pc.Context
	if c == nil {
		return false
	}
	return len(c.Goals) > 0 || len(c.Constraints) > 0 || len(c.Assumptions) > 0 || len(c.FileAssignments) > 0
}

func (s *ContextSection) Render(_ context.Context, pc *PayloadContext) (string, error) {
	var buf strings.Builder
	buf.WriteString("## Context\n")

	writeList := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		buf.WriteString(fmt.Sprintf("\n**%s:**\n", label))
		for _, item := range items {
			buf.WriteString(fmt.Sprintf("- %s\n", item))
		}
	}

	if c := pc.Context; c != nil {
		writeList("Goals", c.Goals)
		writeList("Constraints", c.Constraints)
		writeList("Assumptions", c.Assumptions)
	}

	if len(pc.Memories) > 0 {
		buf.WriteString("\n**Relevant Memories:**\n")
		for _, m := range pc.Memories {
			if m.Kind != "" {
				buf.WriteString(fmt.Sprintf("- [%s] %s\n", m.Kind, m.Text))
			} else {
				buf.WriteString(fmt.Sprintf("- %s\n", m.Text))
			}
		}
	}

	if c := pc.Context; c != nil && len(c.FileAssignments) > 0 {
		buf.WriteString("\n**File Assignments:**\n")
		for _, fa := range c.FileAssignments {
			buf.WriteString(fmt.Sprintf("- `%s`: %s\n", fa.AgentName, strings.Join(fa.Files, ", ")))
		}
		buf.WriteString("\nOnly touch files assigned to you. Other agents own the rest.\n")
	}

	return strings.TrimRight(buf.String(), "\n"), nil
}

// --- PromptSection (Priority: 900) ---
//
// The literal prompt, always last: the executor reads top to bottom and the
// most recent instruction wins over earlier framing.

// PromptSection renders the caller's literal prompt as-is.
type PromptSection struct{}

func (s *PromptSection) Name() string  { return "prompt" }
func (s *PromptSection) Priority() int { return 900 }

func (s *PromptSection) Enabled(_ context.Context, pc *PayloadContext) bool {
	return pc.Prompt != ""
}

func (s *PromptSection) Render(_ context.Context, pc *PayloadContext) (string, error) {
	return pc.Prompt, nil
}

// --- DefaultPipeline factory ---

// NewDefaultPipeline creates a Pipeline pre-loaded with all builtin sections.
//
// Builtin sections and their priorities:
//
//	100 — DialogueInstructionsSection (multi-turn contract, conditional)
//	200 — DialogueHistorySection      (prior exchanges, conditional)
//	300 — ContextSection              (structured framing, conditional)
//	900 — PromptSection               (literal prompt, always last)
func NewDefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.RegisterSection(&DialogueInstructionsSection{})
	p.RegisterSection(&DialogueHistorySection{})
	p.RegisterSection(&ContextSection{})
	p.RegisterSection(&PromptSection{})
	return p
}
