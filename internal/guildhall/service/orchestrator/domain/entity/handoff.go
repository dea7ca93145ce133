package entity

import (
	"time"
)

// Handoff captures session context for the next session to resume from.
// The workspace holds at most one handoff; writing a new one replaces the
// previous, and consuming it clears the slot.
type Handoff struct {
	ID string `json:"id"`

	// EpicID is the epic the handoff was written under, if any.
	EpicID string `json:"epic_id,omitempty"`

	// Summary is the one-paragraph state of the work.
	Summary string `json:"summary"`

	// CompletedWork lists what was finished before the handoff.
	CompletedWork []string `json:"completed_work,omitempty"`

	// OpenItems lists what remains.
	OpenItems []string `json:"open_items,omitempty"`

	// Resume is the instruction the next session should start with.
	Resume string `json:"resume,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
