package entity

import (
	"fmt"
	"time"
)

// EpicStatus represents the lifecycle state of an Epic.
//
// State machine: Draft → Planning → InProgress → Review → Completed | Failed,
// with Paused reachable from any non-terminal state.
type EpicStatus string

const (
	EpicStatusDraft      EpicStatus = "draft"
	EpicStatusPlanning   EpicStatus = "planning"
	EpicStatusInProgress EpicStatus = "in_progress"
	EpicStatusReview     EpicStatus = "review"
	EpicStatusCompleted  EpicStatus = "completed"
	EpicStatusFailed     EpicStatus = "failed"
	EpicStatusPaused     EpicStatus = "paused"
)

// IsTerminal returns true if the epic has reached a terminal state.
func (s EpicStatus) IsTerminal() bool {
	return s == EpicStatusCompleted || s == EpicStatusFailed
}

// epicTransitions is the allowed transition table for EpicStatus.
var epicTransitions = map[EpicStatus]map[EpicStatus]struct{}{
	EpicStatusDraft:      {EpicStatusPlanning: {}, EpicStatusInProgress: {}, EpicStatusPaused: {}},
	EpicStatusPlanning:   {EpicStatusInProgress: {}, EpicStatusFailed: {}, EpicStatusPaused: {}},
	EpicStatusInProgress: {EpicStatusReview: {}, EpicStatusCompleted: {}, EpicStatusFailed: {}, EpicStatusPaused: {}},
	EpicStatusReview:     {EpicStatusInProgress: {}, EpicStatusCompleted: {}, EpicStatusFailed: {}, EpicStatusPaused: {}},
	EpicStatusPaused:     {EpicStatusPlanning: {}, EpicStatusInProgress: {}, EpicStatusReview: {}},
	EpicStatusCompleted:  {},
	EpicStatusFailed:     {},
}

// ValidateEpicTransition reports whether from → to is an allowed epic
// transition.
func ValidateEpicTransition(from, to EpicStatus) error {
	if _, ok := epicTransitions[from][to]; !ok {
		return fmt.Errorf("epic transition %s -> %s is not allowed", from, to)
	}
	return nil
}

// Outcome records how an archived epic ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "SUCCEEDED"
	OutcomePartial   Outcome = "PARTIAL"
	OutcomeFailed    Outcome = "FAILED"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeSucceeded || o == OutcomePartial || o == OutcomeFailed
}

// DefaultMaxTasks caps the number of tasks an epic may hold unless the
// module is configured otherwise.
const DefaultMaxTasks = 7

// Epic is a bounded unit of work: a handful of tasks executed under one
// specification and plan. At most one epic is active per workspace.
type Epic struct {
	// ID is the workspace-scoped sequential identifier, e.g. "3".
	ID string `json:"id"`

	// Title is the short human-readable goal.
	Title string `json:"title"`

	// Status is the current lifecycle state.
	Status EpicStatus `json:"status"`

	// Tasks are the epic's work items, at most the configured maximum.
	Tasks []*Task `json:"tasks"`

	// Outcome is set when the epic is archived.
	Outcome Outcome `json:"outcome,omitempty"`

	// CreatedAt is when this epic was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is bumped on every mutation.
	UpdatedAt time.Time `json:"updated_at"`

	// ArchivedAt is when this epic left the active slot.
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
}

// Task returns the task with the given id, or nil.
func (e *Epic) Task(id string) *Task {
	for _, t := range e.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// DependenciesMet reports whether every dependency of t is completed.
func (e *Epic) DependenciesMet(t *Task) bool {
	for _, dep := range t.DependsOn {
		d := e.Task(dep)
		if d == nil || d.Status != TaskStatusCompleted {
			return false
		}
	}
	return true
}

// UnmetDependencies returns the dependency ids of t that are not completed.
func (e *Epic) UnmetDependencies(t *Task) []string {
	var unmet []string
	for _, dep := range t.DependsOn {
		d := e.Task(dep)
		if d == nil || d.Status != TaskStatusCompleted {
			unmet = append(unmet, dep)
		}
	}
	return unmet
}

// NextTaskID returns the next epic-scoped task identifier, e.g. "3.4".
func (e *Epic) NextTaskID() string {
	return fmt.Sprintf("%s.%d", e.ID, len(e.Tasks)+1)
}
