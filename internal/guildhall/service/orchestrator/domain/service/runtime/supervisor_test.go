package runtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/inmemory"
)

type fakeRedispatcher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRedispatcher) Redispatch(_ context.Context, entry *entity.RegistryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, entry.ID)
	return f.err
}

func (f *fakeRedispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type taskUpdate struct {
	epicID, taskID string
	status         entity.TaskStatus
	taskErr        *entity.ExecutionError
}

type fakeTaskLedger struct {
	mu      sync.Mutex
	updates []taskUpdate
	events  []*entity.Event
}

func (f *fakeTaskLedger) UpdateTaskStatus(_ context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, taskUpdate{epicID: epicID, taskID: taskID, status: status, taskErr: taskErr})
	return &entity.Task{ID: taskID, Status: status}, nil
}

func (f *fakeTaskLedger) AppendEvent(_ context.Context, event *entity.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeTaskLedger) lastUpdate() (taskUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.updates) == 0 {
		return taskUpdate{}, false
	}
	return f.updates[len(f.updates)-1], true
}

func registerRunning(t *testing.T, registry *inmemory.RegistryStore, id string, at time.Time, ref *entity.TaskRef) {
	t.Helper()
	require.NoError(t, registry.Register(context.Background(), &entity.RegistryEntry{
		ID:        id,
		AgentName: "scout",
		Status:    entity.ExecutionStatusRunning,
		Spec: entity.DispatchSpec{
			AgentName: "scout",
			Payload:   "map the area",
			TaskRef:   ref,
		},
		StartedAt:     at,
		LastHeartbeat: at,
		UpdatedAt:     at,
	}))
}

func TestSupervisorBoundedRetry(t *testing.T) {
	t.Parallel()

	registry := inmemory.NewRegistryStore()
	redispatch := &fakeRedispatcher{}
	ledger := &fakeTaskLedger{}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0
	s := NewSupervisor(registry, redispatch,
		WithStaleThreshold(30*time.Second),
		WithMaxRetries(2),
		WithRetention(time.Hour),
		WithTaskLedger(ledger),
		WithSupervisorClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	registerRunning(t, registry, "h-1", t0, &entity.TaskRef{EpicID: "1", TaskID: "1.2"})

	// Inside the threshold nothing moves.
	current = t0.Add(10 * time.Second)
	s.Scan(ctx)
	assert.Equal(t, 0, redispatch.count())

	// First full threshold interval: retry one.
	current = t0.Add(31 * time.Second)
	s.Scan(ctx)
	assert.Equal(t, 1, redispatch.count())

	entry, err := registry.Get(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Retries)
	assert.True(t, current.Equal(entry.LastHeartbeat))

	// The retry reset the heartbeat, so an immediate rescan does nothing.
	s.Scan(ctx)
	assert.Equal(t, 1, redispatch.count())

	// Second interval: retry two.
	current = current.Add(31 * time.Second)
	s.Scan(ctx)
	assert.Equal(t, 2, redispatch.count())

	// Third interval: retries exhausted, the entry fails and the owning
	// task is marked failed.
	current = current.Add(31 * time.Second)
	s.Scan(ctx)
	assert.Equal(t, 2, redispatch.count())

	entry, err = registry.Get(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusFailed, entry.Status)
	require.NotNil(t, entry.Error)
	assert.Equal(t, "stale, retries exhausted", entry.Error.Message)

	require.Len(t, ledger.updates, 1)
	assert.Equal(t, "1", ledger.updates[0].epicID)
	assert.Equal(t, "1.2", ledger.updates[0].taskID)
	assert.Equal(t, entity.TaskStatusFailed, ledger.updates[0].status)
	require.NotNil(t, ledger.updates[0].taskErr)
	assert.Equal(t, "stale, retries exhausted", ledger.updates[0].taskErr.Message)

	// Two retry traces plus the terminal failure.
	require.Len(t, ledger.events, 3)
	assert.Equal(t, entity.EventSupervisorRetry, ledger.events[0].Type)
	assert.Equal(t, entity.EventSupervisorRetry, ledger.events[1].Type)
	assert.Equal(t, entity.EventSupervisorFailed, ledger.events[2].Type)

	// Terminal entries are left alone on later scans.
	current = current.Add(31 * time.Second)
	s.Scan(ctx)
	assert.Equal(t, 2, redispatch.count())
	assert.Len(t, ledger.updates, 1)
}

func TestSupervisorRetryLosesToLateCompletion(t *testing.T) {
	t.Parallel()

	registry := inmemory.NewRegistryStore()
	redispatch := &fakeRedispatcher{}
	ledger := &fakeTaskLedger{}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0.Add(31 * time.Second)
	s := NewSupervisor(registry, redispatch,
		WithStaleThreshold(30*time.Second),
		WithMaxRetries(2),
		WithRetention(time.Hour),
		WithTaskLedger(ledger),
		WithSupervisorClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	registerRunning(t, registry, "h-1", t0, &entity.TaskRef{EpicID: "1", TaskID: "1.2"})

	// The worker's completion lands after the scan snapshotted the entry
	// but before the retry bookkeeping is written back.
	snap, err := registry.Get(ctx, "h-1")
	require.NoError(t, err)
	_, err = registry.Complete(ctx, "h-1", "real result", t0.Add(31*time.Second))
	require.NoError(t, err)

	s.reconcile(ctx, snap)

	// The retry is abandoned: no re-dispatch, no task update, and the
	// completed entry keeps its result.
	assert.Equal(t, 0, redispatch.count())
	assert.Empty(t, ledger.updates)

	entry, err := registry.Get(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, entry.Status)
	assert.Equal(t, "real result", entry.Result)
	assert.Zero(t, entry.Retries)
}

func TestSupervisorSkipsHealthyEntries(t *testing.T) {
	t.Parallel()

	registry := inmemory.NewRegistryStore()
	redispatch := &fakeRedispatcher{}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0.Add(20 * time.Second)
	s := NewSupervisor(registry, redispatch,
		WithStaleThreshold(30*time.Second),
		WithRetention(time.Hour),
		WithSupervisorClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	registerRunning(t, registry, "fresh", t0, nil)

	s.Scan(ctx)
	assert.Equal(t, 0, redispatch.count())

	entry, err := registry.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Retries)
}

func TestSupervisorSweepsSettledEntries(t *testing.T) {
	t.Parallel()

	registry := inmemory.NewRegistryStore()
	redispatch := &fakeRedispatcher{}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0
	s := NewSupervisor(registry, redispatch,
		WithStaleThreshold(30*time.Second),
		WithRetention(10*time.Minute),
		WithSupervisorClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	registerRunning(t, registry, "old-done", t0, nil)
	_, err := registry.Complete(ctx, "old-done", "ok", t0)
	require.NoError(t, err)

	// Keep a live entry around to prove the sweep is selective.
	current = t0.Add(20 * time.Minute)
	registerRunning(t, registry, "live", current, nil)

	s.Scan(ctx)

	_, err = registry.Get(ctx, "old-done")
	assert.True(t, errors.Is(err, errno.ErrEntryNotFound))
	_, err = registry.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestSupervisorToleratesRedispatchErrors(t *testing.T) {
	t.Parallel()

	registry := inmemory.NewRegistryStore()
	redispatch := &fakeRedispatcher{err: errors.New("host offline")}

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := t0.Add(31 * time.Second)
	s := NewSupervisor(registry, redispatch,
		WithStaleThreshold(30*time.Second),
		WithMaxRetries(2),
		WithRetention(time.Hour),
		WithSupervisorClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	registerRunning(t, registry, "h-1", t0, nil)

	// The failed re-dispatch still consumes a retry; the next interval
	// tries again.
	s.Scan(ctx)
	assert.Equal(t, 1, redispatch.count())

	entry, err := registry.Get(ctx, "h-1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Retries)
	assert.Equal(t, entity.ExecutionStatusRunning, entry.Status)
}
