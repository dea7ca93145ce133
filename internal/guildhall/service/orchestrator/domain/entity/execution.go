package entity

import (
	"fmt"
	"time"
)

// ExecutionMode selects how a dispatch is observed by the caller.
type ExecutionMode string

const (
	// ModeBlocking waits for the child to reach a terminal state.
	ModeBlocking ExecutionMode = "blocking"
	// ModeBackground returns a handle immediately.
	ModeBackground ExecutionMode = "background"
)

// ExecutionStatus represents the lifecycle state of a dispatched execution.
//
// State machine: Pending → Running → Completed | Failed | TimedOut
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusTimedOut  ExecutionStatus = "timed_out"
)

// IsTerminal returns true if the execution has reached a terminal state.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusTimedOut
}

// TaskRef ties an execution to the ledger task it is working on.
type TaskRef struct {
	EpicID string `json:"epic_id"`
	TaskID string `json:"task_id"`
}

// Execution is the handle for one dispatched unit of agent work. Handles
// form a tree through ParentID; a child's failure never mutates the parent,
// results flow back only through Output and Error.
type Execution struct {
	// ID is the unique handle identifier.
	ID string `json:"id"`

	// ParentID is the spawning execution, empty for roots.
	ParentID string `json:"parent_id,omitempty"`

	// AgentName is the catalog agent executing the work.
	AgentName string `json:"agent_name"`

	// Mode is how the dispatcher observes this execution.
	Mode ExecutionMode `json:"mode"`

	// Status is the current lifecycle state.
	Status ExecutionStatus `json:"status"`

	// Payload is the assembled dispatch payload handed to the host.
	Payload string `json:"payload"`

	// Output is the child's result, populated on completion.
	Output string `json:"output,omitempty"`

	// Error holds failure details for failed or timed-out executions.
	Error *ExecutionError `json:"error,omitempty"`

	// Dialogue tracks multi-turn state when the execution runs in
	// dialogue mode.
	Dialogue *Dialogue `json:"dialogue,omitempty"`

	// TaskRef is the owning ledger task, if any.
	TaskRef *TaskRef `json:"task_ref,omitempty"`

	// CreatedAt is when the handle was issued.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the host accepted the work.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the execution reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ExecutionError holds structured failure information.
type ExecutionError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Result is the terminal view of an execution returned to blocking callers.
type Result struct {
	ExecutionID string          `json:"execution_id"`
	AgentName   string          `json:"agent_name"`
	Status      ExecutionStatus `json:"status"`
	Output      string          `json:"output,omitempty"`
	Error       *ExecutionError `json:"error,omitempty"`
}
