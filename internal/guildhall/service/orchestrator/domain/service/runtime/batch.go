package runtime

import (
	"context"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/repo"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
)

// defaultGatherPoll is the registry polling cadence while collecting.
const defaultGatherPoll = 250 * time.Millisecond

// BatchCoordinator fans out independent background dispatches and collects
// them back in, with timeout and partial-result semantics.
type BatchCoordinator struct {
	dispatcher *Dispatcher
	registry   repo.Registry
	catalog    CatalogResolver

	pollInterval time.Duration
}

// BatchOption mutates coordinator defaults.
type BatchOption func(*BatchCoordinator)

// WithPollInterval sets the gather polling cadence.
func WithPollInterval(d time.Duration) BatchOption {
	return func(b *BatchCoordinator) { b.pollInterval = d }
}

// NewBatchCoordinator wires a coordinator over the dispatcher and registry.
func NewBatchCoordinator(dispatcher *Dispatcher, registry repo.Registry, catalog CatalogResolver, opts ...BatchOption) *BatchCoordinator {
	b := &BatchCoordinator{
		dispatcher:   dispatcher,
		registry:     registry,
		catalog:      catalog,
		pollInterval: defaultGatherPoll,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SpawnBatch dispatches every task in background mode. Every agent is
// resolved before anything is dispatched, so an unknown name rejects the
// whole batch and leaves nothing in flight.
//
// With wait=true the call collects results until all tasks resolve or
// timeout elapses; callers get whatever subset has resolved plus a TimedOut
// flag. With wait=false only the handles come back and collection is the
// caller's job via Gather.
func (b *BatchCoordinator) SpawnBatch(ctx context.Context, tasks []entity.BatchTask, wait bool, timeout time.Duration) (*entity.BatchResult, error) {
	if len(tasks) == 0 {
		return nil, errno.Newf(errno.ErrInvalidArgument, "batch needs at least one task")
	}

	// All-or-nothing validation: a batch that half-spawned is worse than
	// one that never started.
	for i, task := range tasks {
		if task.AgentName == "" || task.Prompt == "" {
			return nil, errno.Newf(errno.ErrInvalidArgument, "batch task %d needs an agent and a prompt", i)
		}
		if _, err := b.catalog.Resolve(ctx, task.AgentName); err != nil {
			return nil, err
		}
	}

	ids := make([]string, 0, len(tasks))
	for _, task := range tasks {
		exec, err := b.dispatcher.Dispatch(ctx, &entity.DispatchRequest{
			AgentName: task.AgentName,
			Prompt:    task.Prompt,
			Context:   task.Context,
			Mode:      entity.ModeBackground,
			TaskRef:   task.TaskRef,
		})
		if err != nil {
			// Validation already passed, so this is a store fault.
			// Earlier tasks are in flight; report them with the error.
			return &entity.BatchResult{TaskIDs: ids}, err
		}
		ids = append(ids, exec.ID)
	}

	logger.InfoX(pkg.ModuleName, "batch spawned %d tasks (wait=%v, timeout=%s)", len(ids), wait, timeout)

	if !wait {
		return &entity.BatchResult{TaskIDs: ids}, nil
	}

	results, err := b.Gather(ctx, ids, timeout, true)
	if err != nil {
		return &entity.BatchResult{TaskIDs: ids}, err
	}
	return &entity.BatchResult{TaskIDs: ids, Results: results}, nil
}

// Gather polls the registry until every handle resolves or timeout elapses.
// With partial=true the timed-out result carries whatever resolved plus the
// still-pending handles; with partial=false a timeout is an error.
// A timeout <= 0 performs a single collection pass.
func (b *BatchCoordinator) Gather(ctx context.Context, ids []string, timeout time.Duration, partial bool) (*entity.GatherResult, error) {
	if len(ids) == 0 {
		return &entity.GatherResult{}, nil
	}

	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		result, err := b.collect(ctx, ids)
		if err != nil {
			return nil, err
		}
		if len(result.Pending) == 0 {
			return result, nil
		}
		if timeout <= 0 {
			return b.timedOut(result, len(ids), partial)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeoutCh:
			// One final look: a task may have resolved during the wait.
			result, err := b.collect(ctx, ids)
			if err != nil {
				return nil, err
			}
			if len(result.Pending) == 0 {
				return result, nil
			}
			return b.timedOut(result, len(ids), partial)
		case <-ticker.C:
		}
	}
}

func (b *BatchCoordinator) timedOut(result *entity.GatherResult, total int, partial bool) (*entity.GatherResult, error) {
	if !partial {
		return nil, errno.Newf(errno.ErrGatherTimeout,
			"gather timed out with %d of %d tasks pending", len(result.Pending), total)
	}
	result.TimedOut = true
	return result, nil
}

// collect takes one snapshot of the handles, partitioned by outcome.
func (b *BatchCoordinator) collect(ctx context.Context, ids []string) (*entity.GatherResult, error) {
	result := &entity.GatherResult{}
	for _, id := range ids {
		entry, err := b.registry.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		switch {
		case entry.Status == entity.ExecutionStatusCompleted:
			result.Completed = append(result.Completed, entry)
		case entry.Status.IsTerminal():
			result.Failed = append(result.Failed, entry)
		default:
			result.Pending = append(result.Pending, id)
		}
	}
	return result, nil
}
