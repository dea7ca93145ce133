package entity

import (
	"time"
)

// DispatchSpec is the minimal record needed to re-dispatch an execution:
// the resolved agent and the already-assembled payload. The supervisor
// replays it verbatim when an entry goes stale.
type DispatchSpec struct {
	AgentName string   `json:"agent_name"`
	Payload   string   `json:"payload"`
	TaskRef   *TaskRef `json:"task_ref,omitempty"`
}

// RegistryEntry tracks the liveness of one background execution. The
// registry is the single source of truth for async state: workers heartbeat
// against their entry, the supervisor reconciles entries that stop.
type RegistryEntry struct {
	// ID matches the execution handle the entry tracks.
	ID string `json:"id"`

	// AgentName is the agent doing the work.
	AgentName string `json:"agent_name"`

	// Note is a free-form caller annotation.
	Note string `json:"note,omitempty"`

	// Spec is kept so the supervisor can re-dispatch the same work.
	Spec DispatchSpec `json:"spec"`

	// Status is the entry's lifecycle state. Completion is idempotent:
	// the first terminal write wins and later ones are ignored.
	Status ExecutionStatus `json:"status"`

	// Retries counts supervisor re-dispatches of this entry.
	Retries int `json:"retries"`

	// StartedAt is when the current attempt began.
	StartedAt time.Time `json:"started_at"`

	// LastHeartbeat is the most recent liveness signal.
	LastHeartbeat time.Time `json:"last_heartbeat"`

	// Result holds the worker's output on completion.
	Result string `json:"result,omitempty"`

	// Error holds failure details on terminal failure.
	Error *ExecutionError `json:"error,omitempty"`

	// UpdatedAt is bumped on every write.
	UpdatedAt time.Time `json:"updated_at"`

	// CompletedAt is when the entry reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Stale reports whether the entry's last heartbeat is older than threshold
// at the given instant. Terminal entries are never stale.
func (e *RegistryEntry) Stale(now time.Time, threshold time.Duration) bool {
	if e.Status.IsTerminal() {
		return false
	}
	return now.Sub(e.LastHeartbeat) > threshold
}
