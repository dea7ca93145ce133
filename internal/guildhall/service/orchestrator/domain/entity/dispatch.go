package entity

// DispatchRequest carries everything needed to invoke one agent.
type DispatchRequest struct {
	// AgentName is resolved against the catalog before anything is sent.
	AgentName string `json:"agent_name"`

	// Prompt is the literal instruction, rendered last in the payload so it
	// overrides any earlier framing.
	Prompt string `json:"prompt"`

	// Context is optional structured framing rendered before the prompt.
	Context *DispatchContext `json:"context,omitempty"`

	// Mode selects blocking or background observation.
	Mode ExecutionMode `json:"mode"`

	// ParentID links the new execution under a spawning one.
	ParentID string `json:"parent_id,omitempty"`

	// TaskRef ties the execution to a ledger task so terminal outcomes can
	// be propagated.
	TaskRef *TaskRef `json:"task_ref,omitempty"`

	// Dialogue switches the execution into multi-turn dialogue mode.
	Dialogue bool `json:"dialogue,omitempty"`
}

// DispatchContext is the caller-supplied structured context. Sections render
// in a fixed order ahead of the literal prompt; empty fields are skipped.
type DispatchContext struct {
	Goals           []string         `json:"goals,omitempty"`
	Constraints     []string         `json:"constraints,omitempty"`
	Assumptions     []string         `json:"assumptions,omitempty"`
	FileAssignments []FileAssignment `json:"file_assignments,omitempty"`
}

// FileAssignment reserves a set of files for one agent so parallel workers
// do not collide on the same paths.
type FileAssignment struct {
	AgentName string   `json:"agent_name"`
	Files     []string `json:"files"`
}

// BatchTask is one element of a batch spawn.
type BatchTask struct {
	AgentName string           `json:"agent_name"`
	Prompt    string           `json:"prompt"`
	Context   *DispatchContext `json:"context,omitempty"`
	TaskRef   *TaskRef         `json:"task_ref,omitempty"`
}

// GatherResult partitions a set of tracked handles by outcome. Pending holds
// the handles that had not resolved when collection stopped.
type GatherResult struct {
	Completed []*RegistryEntry `json:"completed"`
	Failed    []*RegistryEntry `json:"failed"`
	Pending   []string         `json:"pending"`
	TimedOut  bool             `json:"timed_out"`
}

// BatchResult is the outcome of a batch spawn. Results is nil when the batch
// was spawned without waiting.
type BatchResult struct {
	TaskIDs []string      `json:"task_ids"`
	Results *GatherResult `json:"results,omitempty"`
}
