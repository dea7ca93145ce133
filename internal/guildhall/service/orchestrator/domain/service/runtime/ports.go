package runtime

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// CatalogResolver resolves agent names against the catalog. Unknown names
// fail with AGENT_NOT_FOUND carrying the namespace's sibling agents so the
// caller can self-correct.
type CatalogResolver interface {
	Resolve(ctx context.Context, name string) (*entity.AgentDescriptor, error)
}

// ExecutionHost is the external runtime that performs an agent's reasoning
// loop. A returned error means the work was not done; host adapters are
// responsible for mapping their own transport quirks onto that contract
// before it reaches the dispatcher.
type ExecutionHost interface {
	CreateChildExecution(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error)
}

// MemoryFinder recalls long-term memories to prime a dispatch payload.
// Lookups are best-effort: a failure is logged and the dispatch proceeds
// without memories.
type MemoryFinder interface {
	Find(ctx context.Context, query string, limit int) ([]*entity.MemoryRecord, error)
}

// TaskLedger is the slice of the ledger the supervisor needs: propagating a
// terminal failure to the owning task and tracing it in the epic's log.
type TaskLedger interface {
	UpdateTaskStatus(ctx context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error)
	AppendEvent(ctx context.Context, event *entity.Event) error
}

// Redispatcher replays a registry entry's dispatch spec on a fresh worker.
// Implemented by the Dispatcher; split out so the supervisor can be tested
// without a live host.
type Redispatcher interface {
	Redispatch(ctx context.Context, entry *entity.RegistryEntry) error
}
