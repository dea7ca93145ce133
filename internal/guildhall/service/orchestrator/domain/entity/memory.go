package entity

import (
	"time"
)

// MemoryRecord is one fact held by the long-term memory store. Records are
// looked up before dispatch to prime the payload and written after an epic
// archives to preserve its learnings.
type MemoryRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
