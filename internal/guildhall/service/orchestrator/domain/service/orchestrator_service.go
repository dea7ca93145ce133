package service

import (
	"context"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// OrchestratorService is the application-level service interface for the
// orchestration engine.
//
// It provides:
// - Epic and task lifecycle against the durable ledger
// - Learning capture and recall
// - Handoff write/resume for process interruptions
// - Dispatch, batch and dialogue execution
// - Registry introspection for monitoring surfaces
type OrchestratorService interface {
	// --- Epic Lifecycle ---

	CreateEpic(ctx context.Context, title string, tasks []*entity.Task) (*entity.Epic, error)
	GetActiveEpic(ctx context.Context) (*entity.Epic, error)
	GetEpic(ctx context.Context, id string) (*entity.Epic, error)
	UpdateEpicStatus(ctx context.Context, id string, status entity.EpicStatus) (*entity.Epic, error)
	AddTask(ctx context.Context, epicID string, task *entity.Task) (*entity.Epic, error)
	UpdateTaskStatus(ctx context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error)

	// ArchiveEpic records the outcome, moves the epic to the archive and
	// frees the active slot. Learnings recorded under the epic are pushed
	// to long-term memory asynchronously; a memory outage never fails the
	// archive.
	ArchiveEpic(ctx context.Context, id string, outcome entity.Outcome) error

	// --- Epic Artifacts ---

	WriteSpec(ctx context.Context, epicID, content string) error
	ReadSpec(ctx context.Context, epicID string) (string, error)
	WritePlan(ctx context.Context, epicID, content string) error
	ReadPlan(ctx context.Context, epicID string) (string, error)
	Events(ctx context.Context, epicID string) ([]*entity.Event, error)

	// --- Learnings ---

	AddLearning(ctx context.Context, learning *entity.Learning) error
	ListLearnings(ctx context.Context, kind entity.LearningKind, limit int) ([]*entity.Learning, error)
	RecentLearnings(ctx context.Context, n int) ([]*entity.Learning, error)

	// --- Handoff ---

	// CreateHandoff writes the workspace handoff slot, replacing any
	// previous handoff.
	CreateHandoff(ctx context.Context, handoff *entity.Handoff) error
	// GetHandoff peeks at the slot without clearing it; (nil, nil) when
	// empty.
	GetHandoff(ctx context.Context) (*entity.Handoff, error)
	// ConsumeHandoff returns the handoff and clears the slot, failing
	// with HANDOFF_EMPTY when there is nothing to resume from.
	ConsumeHandoff(ctx context.Context) (*entity.Handoff, error)
	// ClearHandoff empties the slot; a no-op when already empty.
	ClearHandoff(ctx context.Context) error

	// --- Dispatch Execution ---

	// Dispatch runs one agent. Blocking mode returns the terminal
	// execution; background mode returns a tracked handle immediately.
	Dispatch(ctx context.Context, req *entity.DispatchRequest) (*entity.Execution, error)

	// SpawnBatch dispatches several background executions after
	// validating every agent, optionally waiting for the results.
	SpawnBatch(ctx context.Context, tasks []entity.BatchTask, wait bool, timeout time.Duration) (*entity.BatchResult, error)

	// Gather collects the current state of previously spawned handles.
	Gather(ctx context.Context, ids []string, timeout time.Duration, partial bool) (*entity.GatherResult, error)

	GetExecution(ctx context.Context, id string) (*entity.Execution, error)
	ListChildExecutions(ctx context.Context, parentID string) ([]*entity.Execution, error)

	// AdvanceDialogue moves a dialogue execution to its next state,
	// recording message in the history. Disallowed transitions fail with
	// INVALID_TRANSITION.
	AdvanceDialogue(ctx context.Context, executionID string, to entity.DialogueState, message string) (*entity.Execution, error)

	// --- Registry Introspection ---

	GetRegistryEntry(ctx context.Context, id string) (*entity.RegistryEntry, error)
	ListRegistryEntries(ctx context.Context) ([]*entity.RegistryEntry, error)
}
