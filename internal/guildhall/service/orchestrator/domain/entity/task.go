package entity

import (
	"fmt"
	"time"
)

// TaskStatus represents the lifecycle state of a Task.
//
// State machine: Pending → Running → Completed | Failed | Blocked.
// Blocked and Failed tasks can be brought back to Pending; Completed and
// Skipped are terminal.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusBlocked   TaskStatus = "blocked"
	TaskStatusSkipped   TaskStatus = "skipped"
)

// IsTerminal returns true if no further work is scheduled for the task.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusSkipped
}

// taskTransitions is the allowed transition table for TaskStatus.
var taskTransitions = map[TaskStatus]map[TaskStatus]struct{}{
	TaskStatusPending:   {TaskStatusRunning: {}, TaskStatusBlocked: {}, TaskStatusSkipped: {}},
	TaskStatusRunning:   {TaskStatusCompleted: {}, TaskStatusFailed: {}, TaskStatusBlocked: {}},
	TaskStatusBlocked:   {TaskStatusPending: {}, TaskStatusRunning: {}, TaskStatusSkipped: {}},
	TaskStatusFailed:    {TaskStatusPending: {}, TaskStatusRunning: {}},
	TaskStatusCompleted: {},
	TaskStatusSkipped:   {},
}

// ValidateTaskTransition reports whether from → to is an allowed task
// transition. Dependency gating for the Running target is enforced by the
// ledger, not here.
func ValidateTaskTransition(from, to TaskStatus) error {
	if _, ok := taskTransitions[from][to]; !ok {
		return fmt.Errorf("task transition %s -> %s is not allowed", from, to)
	}
	return nil
}

// Task is a single work item inside an epic.
type Task struct {
	// ID is the epic-scoped identifier, e.g. "3.2".
	ID string `json:"id"`

	// Title is the short work description.
	Title string `json:"title"`

	// Description carries the full instruction handed to the executing agent.
	Description string `json:"description,omitempty"`

	// Status is the current lifecycle state.
	Status TaskStatus `json:"status"`

	// DependsOn lists task ids within the same epic that must complete
	// before this task may run.
	DependsOn []string `json:"depends_on,omitempty"`

	// AgentName is the catalog agent suggested for this task.
	AgentName string `json:"agent_name,omitempty"`

	// Error holds failure details when Status is failed.
	Error *ExecutionError `json:"error,omitempty"`

	// CreatedAt is when this task was added to the epic.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is bumped on every status change.
	UpdatedAt time.Time `json:"updated_at"`

	// StartedAt is when the task first moved to running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the task reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
