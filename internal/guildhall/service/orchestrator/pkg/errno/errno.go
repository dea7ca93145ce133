// Package errno defines the orchestrator's coded errors. Validation and
// lifecycle failures are always returned as an *Error carrying a stable
// string code; callers branch with errors.Is against the sentinels, which
// match by code regardless of message detail.
package errno

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a coded orchestration failure.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches two coded errors by code so parameterized instances compare
// equal to their sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

var (
	// ErrAlreadyActive rejects creating an epic while another is active.
	ErrAlreadyActive = &Error{Code: "ALREADY_ACTIVE", Message: "an epic is already active in this workspace"}

	// ErrNoActiveEpic rejects operations that need an active epic.
	ErrNoActiveEpic = &Error{Code: "NO_ACTIVE_EPIC", Message: "no epic is active in this workspace"}

	// ErrEpicNotFound reports an unknown epic id.
	ErrEpicNotFound = &Error{Code: "EPIC_NOT_FOUND", Message: "epic not found"}

	// ErrTaskNotFound reports an unknown task id within an epic.
	ErrTaskNotFound = &Error{Code: "TASK_NOT_FOUND", Message: "task not found"}

	// ErrDependencyUnmet rejects moving a task to running before its
	// dependencies completed.
	ErrDependencyUnmet = &Error{Code: "DEPENDENCY_UNMET", Message: "task has unmet dependencies"}

	// ErrAgentNotFound reports an unknown catalog agent.
	ErrAgentNotFound = &Error{Code: "AGENT_NOT_FOUND", Message: "agent not found"}

	// ErrSpawnFailed reports that the execution host rejected or lost a
	// dispatch.
	ErrSpawnFailed = &Error{Code: "SPAWN_FAILED", Message: "failed to spawn execution"}

	// ErrEntryNotFound reports an unknown registry entry.
	ErrEntryNotFound = &Error{Code: "ENTRY_NOT_FOUND", Message: "registry entry not found"}

	// ErrExecutionNotFound reports an unknown execution handle.
	ErrExecutionNotFound = &Error{Code: "EXECUTION_NOT_FOUND", Message: "execution not found"}

	// ErrInvalidTransition reports a disallowed lifecycle transition.
	ErrInvalidTransition = &Error{Code: "INVALID_TRANSITION", Message: "transition not allowed"}

	// ErrEpicFull rejects adding tasks beyond the configured maximum.
	ErrEpicFull = &Error{Code: "EPIC_FULL", Message: "epic already holds the maximum number of tasks"}

	// ErrInvalidArgument reports malformed caller input.
	ErrInvalidArgument = &Error{Code: "INVALID_ARGUMENT", Message: "invalid argument"}

	// ErrHandoffEmpty reports a resume with no handoff present.
	ErrHandoffEmpty = &Error{Code: "HANDOFF_EMPTY", Message: "no handoff to resume from"}

	// ErrGatherTimeout reports a non-partial gather that timed out.
	ErrGatherTimeout = &Error{Code: "GATHER_TIMEOUT", Message: "gather timed out before all tasks resolved"}
)

// Newf builds a parameterized instance of a sentinel, keeping its code.
func Newf(sentinel *Error, format string, args ...interface{}) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// DependencyUnmet details which dependencies block the task.
func DependencyUnmet(taskID string, unmet []string) *Error {
	return Newf(ErrDependencyUnmet, "task %s has unmet dependencies: %s", taskID, strings.Join(unmet, ", "))
}

// AgentNotFound lists the sibling agents of the namespace the lookup missed
// in, so callers can self-correct.
func AgentNotFound(name, namespace string, siblings []string) *Error {
	if len(siblings) == 0 {
		return Newf(ErrAgentNotFound, "agent %q not found and namespace %q has no other agents", name, namespace)
	}
	return Newf(ErrAgentNotFound, "agent %q not found; available agents in namespace %q: %s",
		name, namespace, strings.Join(siblings, ", "))
}

// InvalidTransition details a rejected lifecycle move.
func InvalidTransition(kind, id, from, to string) *Error {
	return Newf(ErrInvalidTransition, "%s %s cannot move %s -> %s", kind, id, from, to)
}
