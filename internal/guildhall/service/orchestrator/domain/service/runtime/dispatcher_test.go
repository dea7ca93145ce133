package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/inmemory"
)

// hostFunc adapts a closure to the ExecutionHost interface.
type hostFunc func(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error)

func (f hostFunc) CreateChildExecution(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error) {
	return f(ctx, agent, payload)
}

// staticCatalog resolves agents from a fixed map and reports siblings on a
// miss, like the real catalog does.
type staticCatalog map[string]*entity.AgentDescriptor

func (c staticCatalog) Resolve(_ context.Context, name string) (*entity.AgentDescriptor, error) {
	if agent, ok := c[name]; ok {
		return agent, nil
	}
	siblings := make([]string, 0, len(c))
	for n := range c {
		siblings = append(siblings, n)
	}
	sort.Strings(siblings)
	return nil, errno.AgentNotFound(name, "guild", siblings)
}

func testCatalog() staticCatalog {
	return staticCatalog{
		"scribe": {Name: "scribe", Namespace: "guild", SystemPrompt: "You write."},
		"scout":  {Name: "scout", Namespace: "guild", SystemPrompt: "You explore."},
		"sage":   {Name: "sage", Namespace: "guild", SystemPrompt: "You advise."},
	}
}

type fixedMemory []*entity.MemoryRecord

func (m fixedMemory) Find(_ context.Context, _ string, _ int) ([]*entity.MemoryRecord, error) {
	return m, nil
}

type brokenMemory struct{}

func (brokenMemory) Find(_ context.Context, _ string, _ int) ([]*entity.MemoryRecord, error) {
	return nil, errors.New("memory store offline")
}

// rejectingTaskLedger refuses every transition, standing in for a dependency
// gate that is not satisfied.
type rejectingTaskLedger struct {
	err error
}

func (r *rejectingTaskLedger) UpdateTaskStatus(context.Context, string, string, entity.TaskStatus, *entity.ExecutionError) (*entity.Task, error) {
	return nil, r.err
}

func (r *rejectingTaskLedger) AppendEvent(context.Context, *entity.Event) error { return nil }

func newTestDispatcher(host ExecutionHost, opts ...DispatcherOption) (*Dispatcher, *inmemory.RegistryStore, *inmemory.ExecutionStore) {
	registry := inmemory.NewRegistryStore()
	executions := inmemory.NewExecutionStore()
	base := []DispatcherOption{WithHeartbeatInterval(10 * time.Millisecond)}
	d := NewDispatcher(testCatalog(), host, registry, executions, append(base, opts...)...)
	return d, registry, executions
}

func TestDispatchBlockingReturnsTerminalResult(t *testing.T) {
	t.Parallel()

	var seenPayload atomic.Value
	host := hostFunc(func(_ context.Context, agent *entity.AgentDescriptor, payload string) (string, error) {
		seenPayload.Store(payload)
		return "report written by " + agent.Name, nil
	})
	d, _, executions := newTestDispatcher(host)

	exec, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write the quarterly report.",
		Mode:      entity.ModeBlocking,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, exec.Status)
	assert.Equal(t, "report written by scribe", exec.Output)
	require.NotNil(t, exec.StartedAt)
	require.NotNil(t, exec.CompletedAt)

	// The host received the assembled payload, prompt last.
	assert.Contains(t, seenPayload.Load().(string), "Write the quarterly report.")

	stored, err := executions.Get(context.Background(), exec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, stored.Status)
}

func TestDispatchUnknownAgentListsSiblings(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		t.Error("host must not be called for an unknown agent")
		return "", nil
	}))

	_, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "bard",
		Prompt:    "Sing.",
		Mode:      entity.ModeBlocking,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrAgentNotFound))
	assert.Contains(t, err.Error(), "scribe")
	assert.Contains(t, err.Error(), "scout")
}

func TestDispatchValidatesRequest(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "", nil
	}))

	_, err := d.Dispatch(context.Background(), &entity.DispatchRequest{Prompt: "no agent"})
	assert.True(t, errors.Is(err, errno.ErrInvalidArgument))

	_, err = d.Dispatch(context.Background(), &entity.DispatchRequest{AgentName: "scribe"})
	assert.True(t, errors.Is(err, errno.ErrInvalidArgument))

	_, err = d.Dispatch(context.Background(), &entity.DispatchRequest{AgentName: "scribe", Prompt: "x", Mode: "detached"})
	assert.True(t, errors.Is(err, errno.ErrInvalidArgument))
}

func TestDispatchSpawnFailureIsStructured(t *testing.T) {
	t.Parallel()

	host := hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "", errors.New("session process exited before responding")
	})
	d, _, _ := newTestDispatcher(host)

	exec, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write.",
		Mode:      entity.ModeBlocking,
	})
	// Transport failures settle the execution, they do not raise.
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Equal(t, "SPAWN_FAILED", exec.Error.Code)
	assert.Contains(t, exec.Error.Message, "exited before responding")
}

func TestDispatchBlockingTimesOut(t *testing.T) {
	t.Parallel()

	host := hostFunc(func(ctx context.Context, _ *entity.AgentDescriptor, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	d, _, _ := newTestDispatcher(host, WithBlockingTimeout(30*time.Millisecond))

	exec, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write forever.",
		Mode:      entity.ModeBlocking,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusTimedOut, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Equal(t, "TIMED_OUT", exec.Error.Code)
}

func TestDispatchBackgroundRegistersAndSettles(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	host := hostFunc(func(_ context.Context, _ *entity.AgentDescriptor, _ string) (string, error) {
		<-release
		return "scouted", nil
	})
	d, registry, executions := newTestDispatcher(host)
	ctx := context.Background()

	exec, err := d.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Map the area.\nTake notes.",
		Mode:      entity.ModeBackground,
		TaskRef:   &entity.TaskRef{EpicID: "1", TaskID: "1.1"},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusRunning, exec.Status)

	// The handle is tracked before the caller gets it back.
	entry, err := registry.Get(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusRunning, entry.Status)
	assert.Equal(t, "Map the area.", entry.Note)
	assert.Equal(t, exec.Payload, entry.Spec.Payload)
	require.NotNil(t, entry.Spec.TaskRef)
	assert.Equal(t, "1.1", entry.Spec.TaskRef.TaskID)

	// Heartbeats keep flowing while the host works.
	first := entry.LastHeartbeat
	require.Eventually(t, func() bool {
		e, err := registry.Get(ctx, exec.ID)
		return err == nil && e.LastHeartbeat.After(first)
	}, 2*time.Second, 10*time.Millisecond)

	close(release)

	require.Eventually(t, func() bool {
		e, err := registry.Get(ctx, exec.ID)
		return err == nil && e.Status == entity.ExecutionStatusCompleted && e.Result == "scouted"
	}, 2*time.Second, 10*time.Millisecond)

	// The execution record mirrors the settled entry.
	require.Eventually(t, func() bool {
		stored, err := executions.Get(ctx, exec.ID)
		return err == nil && stored.Status == entity.ExecutionStatusCompleted && stored.Output == "scouted"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatchLateResultIsIgnored(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	host := hostFunc(func(_ context.Context, _ *entity.AgentDescriptor, _ string) (string, error) {
		<-release
		return "too late", nil
	})
	d, registry, executions := newTestDispatcher(host)
	ctx := context.Background()

	exec, err := d.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Map the area.",
		Mode:      entity.ModeBackground,
	})
	require.NoError(t, err)

	// The supervisor gives up on the entry before the worker finishes.
	_, err = registry.Fail(ctx, exec.ID, &entity.ExecutionError{Code: "STALE", Message: "stale, retries exhausted"}, time.Now())
	require.NoError(t, err)

	close(release)

	// The late result is dropped; the entry and the mirrored execution
	// keep the failure.
	require.Eventually(t, func() bool {
		stored, err := executions.Get(ctx, exec.ID)
		return err == nil && stored.Status == entity.ExecutionStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	entry, err := registry.Get(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusFailed, entry.Status)
	assert.Empty(t, entry.Result)
}

func TestDispatchDialogueMode(t *testing.T) {
	t.Parallel()

	var seenPayload atomic.Value
	host := hostFunc(func(_ context.Context, _ *entity.AgentDescriptor, payload string) (string, error) {
		seenPayload.Store(payload)
		return "draft attached\nSTATUS: needs_approval", nil
	})
	d, _, _ := newTestDispatcher(host)

	exec, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "sage",
		Prompt:    "Review the plan.",
		Mode:      entity.ModeBlocking,
		Dialogue:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, exec.Dialogue)
	assert.Equal(t, entity.DialogueNeedsInput, exec.Dialogue.State)
	assert.Equal(t, 0, exec.Dialogue.Turn)
	assert.Contains(t, seenPayload.Load().(string), "## Dialogue Mode")
}

func TestDispatchInjectsMemories(t *testing.T) {
	t.Parallel()

	var seenPayload atomic.Value
	host := hostFunc(func(_ context.Context, _ *entity.AgentDescriptor, payload string) (string, error) {
		seenPayload.Store(payload)
		return "ok", nil
	})
	d, _, _ := newTestDispatcher(host, WithMemoryFinder(fixedMemory{
		{Kind: "preference", Text: "reports open with a summary"},
	}))

	_, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write the report.",
		Mode:      entity.ModeBlocking,
	})
	require.NoError(t, err)
	assert.Contains(t, seenPayload.Load().(string), "[preference] reports open with a summary")
}

func TestDispatchSurvivesMemoryOutage(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "ok", nil
	}), WithMemoryFinder(brokenMemory{}))

	exec, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write anyway.",
		Mode:      entity.ModeBlocking,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ExecutionStatusCompleted, exec.Status)
}

func TestDispatchSettlesOwningTask(t *testing.T) {
	t.Parallel()

	ledger := &fakeTaskLedger{}
	host := hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "done", nil
	})
	d, _, _ := newTestDispatcher(host, WithResultLedger(ledger))

	_, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Write.",
		Mode:      entity.ModeBlocking,
		TaskRef:   &entity.TaskRef{EpicID: "1", TaskID: "1.1"},
	})
	require.NoError(t, err)

	// The task went running at dispatch and completed with the execution.
	require.Len(t, ledger.updates, 2)
	assert.Equal(t, entity.TaskStatusRunning, ledger.updates[0].status)
	assert.Equal(t, entity.TaskStatusCompleted, ledger.updates[1].status)

	require.Len(t, ledger.events, 2)
	assert.Equal(t, entity.EventDispatchStarted, ledger.events[0].Type)
	assert.Equal(t, entity.EventDispatchCompleted, ledger.events[1].Type)
}

func TestDispatchBackgroundSettlesOwningTask(t *testing.T) {
	t.Parallel()

	ledger := &fakeTaskLedger{}
	host := hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "done", nil
	})
	d, _, _ := newTestDispatcher(host, WithResultLedger(ledger))

	_, err := d.Dispatch(context.Background(), &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Map.",
		Mode:      entity.ModeBackground,
		TaskRef:   &entity.TaskRef{EpicID: "1", TaskID: "1.1"},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		last, ok := ledger.lastUpdate()
		return ok && last.status == entity.TaskStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDispatchAbortsWhenTaskGateRejects(t *testing.T) {
	t.Parallel()

	gate := &rejectingTaskLedger{err: errno.DependencyUnmet("1.2", []string{"1.1"})}
	host := hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		t.Error("host must not be called when the task gate rejects")
		return "", nil
	})
	d, registry, _ := newTestDispatcher(host, WithResultLedger(gate))
	ctx := context.Background()

	_, err := d.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scribe",
		Prompt:    "Start early.",
		Mode:      entity.ModeBackground,
		TaskRef:   &entity.TaskRef{EpicID: "1", TaskID: "1.2"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrDependencyUnmet))

	entries, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNoteFromPrompt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", noteFromPrompt("short"))
	assert.Equal(t, "first line", noteFromPrompt("first line\nsecond line"))

	long := noteFromPrompt(fmt.Sprintf("%080d-tail", 0))
	assert.Len(t, long, 80)
}
