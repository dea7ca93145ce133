package repo

import (
	"context"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// Registry defines the persistence interface for background execution
// entries. Terminal writes are idempotent inside the store so concurrent
// completions race safely: the first wins, later ones are ignored.
type Registry interface {
	// Register stores a new entry.
	Register(ctx context.Context, entry *entity.RegistryEntry) error
	// Heartbeat refreshes an entry's liveness timestamp and, when note is
	// non-empty, replaces the entry's note. Unknown ids and terminal
	// entries are ignored; Heartbeat never fails the worker.
	Heartbeat(ctx context.Context, id, note string, at time.Time) error
	// Complete marks an entry completed with its result. A no-op when the
	// entry is already terminal; the stored entry is returned either way.
	Complete(ctx context.Context, id, result string, at time.Time) (*entity.RegistryEntry, error)
	// Fail marks an entry failed. Same idempotency as Complete.
	Fail(ctx context.Context, id string, execErr *entity.ExecutionError, at time.Time) (*entity.RegistryEntry, error)
	// Get retrieves an entry by id.
	Get(ctx context.Context, id string) (*entity.RegistryEntry, error)
	// List returns all entries in unspecified order.
	List(ctx context.Context) ([]*entity.RegistryEntry, error)
	// Update rewrites a non-terminal entry; used by the supervisor for
	// retry bookkeeping. An entry that is already terminal in the store is
	// left untouched and returned as stored, so a retry racing a
	// completion never resurrects a settled entry.
	Update(ctx context.Context, entry *entity.RegistryEntry) (*entity.RegistryEntry, error)
	// Sweep removes terminal entries whose completion is older than
	// cutoff and reports how many were dropped.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}
