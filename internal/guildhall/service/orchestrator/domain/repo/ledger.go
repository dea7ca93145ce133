package repo

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// Ledger defines the persistence interface for epics and their artifacts.
// Implementations enforce the workspace invariants at write time: at most
// one active epic, the task cap, the transition tables and dependency
// gating. Reads of a missing or unparseable workspace report an
// uninitialized state (nil, nil) rather than an error; write failures always
// propagate.
type Ledger interface {
	// CreateEpic claims the active slot and persists a new epic with its
	// initial tasks. Fails with ALREADY_ACTIVE when the slot is taken.
	CreateEpic(ctx context.Context, title string, tasks []*entity.Task) (*entity.Epic, error)
	// GetActiveEpic returns the active epic, or (nil, nil) when none.
	GetActiveEpic(ctx context.Context) (*entity.Epic, error)
	// GetEpic retrieves an epic by id, looking at the active slot first
	// and the archive second.
	GetEpic(ctx context.Context, id string) (*entity.Epic, error)
	// UpdateEpicStatus moves the active epic through its lifecycle.
	UpdateEpicStatus(ctx context.Context, id string, status entity.EpicStatus) (*entity.Epic, error)
	// AddTask appends a task to the active epic, honoring the task cap.
	AddTask(ctx context.Context, epicID string, task *entity.Task) (*entity.Epic, error)
	// UpdateTaskStatus moves a task through its lifecycle. Transitions to
	// running fail with DEPENDENCY_UNMET while dependencies are open.
	UpdateTaskStatus(ctx context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error)
	// ArchiveEpic records the outcome, moves the epic's artifacts to the
	// archive and frees the active slot.
	ArchiveEpic(ctx context.Context, id string, outcome entity.Outcome) error

	// WriteSpec and WritePlan store the epic's specification and plan
	// artifacts; the Read variants return them verbatim.
	WriteSpec(ctx context.Context, epicID, content string) error
	ReadSpec(ctx context.Context, epicID string) (string, error)
	WritePlan(ctx context.Context, epicID, content string) error
	ReadPlan(ctx context.Context, epicID string) (string, error)

	// AppendEvent adds a line to the epic's append-only execution log.
	AppendEvent(ctx context.Context, event *entity.Event) error
	// Events returns the epic's execution log in append order.
	Events(ctx context.Context, epicID string) ([]*entity.Event, error)
}

// LearningLog defines the append-only learning store, partitioned by kind.
type LearningLog interface {
	// Append adds one learning to its kind's log.
	Append(ctx context.Context, learning *entity.Learning) error
	// List returns learnings of one kind, newest last, up to limit
	// (0 means all).
	List(ctx context.Context, kind entity.LearningKind, limit int) ([]*entity.Learning, error)
	// Recent returns the n most recent learnings across all kinds.
	Recent(ctx context.Context, n int) ([]*entity.Learning, error)
}

// HandoffSlot defines the workspace's single handoff slot. Put replaces any
// existing handoff; Get returns (nil, nil) when the slot is empty.
type HandoffSlot interface {
	Put(ctx context.Context, handoff *entity.Handoff) error
	Get(ctx context.Context) (*entity.Handoff, error)
	Clear(ctx context.Context) error
}
