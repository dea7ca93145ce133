package entity

import (
	"time"
)

// LearningKind classifies a recorded learning.
type LearningKind string

const (
	LearningPattern     LearningKind = "pattern"
	LearningAntiPattern LearningKind = "antiPattern"
	LearningDecision    LearningKind = "decision"
	LearningPreference  LearningKind = "preference"
)

// Valid reports whether k is a known learning kind.
func (k LearningKind) Valid() bool {
	switch k {
	case LearningPattern, LearningAntiPattern, LearningDecision, LearningPreference:
		return true
	}
	return false
}

// Learning is a single append-only observation recorded during epic work.
// Learnings are never rewritten; the ledger keeps one log per kind.
type Learning struct {
	ID        string       `json:"id"`
	Kind      LearningKind `json:"kind"`
	Text      string       `json:"text"`
	EpicID    string       `json:"epic_id,omitempty"`
	TaskID    string       `json:"task_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
