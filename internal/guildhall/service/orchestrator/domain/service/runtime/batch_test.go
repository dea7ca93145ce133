package runtime

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/inmemory"
)

func newTestBatch(host ExecutionHost) (*BatchCoordinator, *inmemory.RegistryStore) {
	d, registry, _ := newTestDispatcher(host)
	b := NewBatchCoordinator(d, registry, testCatalog(), WithPollInterval(10*time.Millisecond))
	return b, registry
}

func TestSpawnBatchValidatesAllAgentsFirst(t *testing.T) {
	t.Parallel()

	var hostCalls atomic.Int32
	b, registry := newTestBatch(hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		hostCalls.Add(1)
		return "ok", nil
	}))
	ctx := context.Background()

	_, err := b.SpawnBatch(ctx, []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
		{AgentName: "bard", Prompt: "sing"},
		{AgentName: "scout", Prompt: "map"},
	}, false, 0)

	// One unknown agent rejects the whole batch before anything spawns.
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrAgentNotFound))
	assert.Equal(t, int32(0), hostCalls.Load())

	entries, err := registry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpawnBatchNoWaitReturnsHandles(t *testing.T) {
	t.Parallel()

	b, registry := newTestBatch(hostFunc(func(_ context.Context, agent *entity.AgentDescriptor, _ string) (string, error) {
		return "done-" + agent.Name, nil
	}))
	ctx := context.Background()

	result, err := b.SpawnBatch(ctx, []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
		{AgentName: "scout", Prompt: "map"},
	}, false, 0)
	require.NoError(t, err)
	require.Len(t, result.TaskIDs, 2)
	assert.Nil(t, result.Results)

	// Every handle is tracked; collection is the caller's job.
	for _, id := range result.TaskIDs {
		_, err := registry.Get(ctx, id)
		assert.NoError(t, err)
	}

	gathered, err := b.Gather(ctx, result.TaskIDs, 2*time.Second, true)
	require.NoError(t, err)
	assert.False(t, gathered.TimedOut)
	assert.Len(t, gathered.Completed, 2)
	assert.Empty(t, gathered.Pending)
}

func TestSpawnBatchWaitCollectsAll(t *testing.T) {
	t.Parallel()

	b, _ := newTestBatch(hostFunc(func(_ context.Context, agent *entity.AgentDescriptor, _ string) (string, error) {
		return "done-" + agent.Name, nil
	}))

	result, err := b.SpawnBatch(context.Background(), []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
		{AgentName: "scout", Prompt: "map"},
		{AgentName: "sage", Prompt: "advise"},
	}, true, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, result.Results)
	assert.False(t, result.Results.TimedOut)
	assert.Len(t, result.Results.Completed, 3)
	assert.Empty(t, result.Results.Failed)
	assert.Empty(t, result.Results.Pending)

	outputs := make(map[string]string, 3)
	for _, entry := range result.Results.Completed {
		outputs[entry.AgentName] = entry.Result
	}
	assert.Equal(t, "done-scout", outputs["scout"])
}

func TestBatchPartialCollection(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	b, _ := newTestBatch(hostFunc(func(_ context.Context, agent *entity.AgentDescriptor, _ string) (string, error) {
		if agent.Name == "scout" {
			<-release
		}
		return "done-" + agent.Name, nil
	}))
	ctx := context.Background()

	result, err := b.SpawnBatch(ctx, []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
		{AgentName: "scout", Prompt: "map"},   // never resolves within the timeout
		{AgentName: "sage", Prompt: "advise"},
	}, true, 200*time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, result.Results)

	// Callers can act on the partial set.
	assert.True(t, result.Results.TimedOut)
	assert.Len(t, result.Results.Completed, 2)
	assert.Equal(t, []string{result.TaskIDs[1]}, result.Results.Pending)

	// The standalone primitive with partial=false reports the timeout as
	// an error instead.
	_, err = b.Gather(ctx, result.TaskIDs, 50*time.Millisecond, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrGatherTimeout))
}

func TestBatchFailuresArePartitioned(t *testing.T) {
	t.Parallel()

	b, _ := newTestBatch(hostFunc(func(_ context.Context, agent *entity.AgentDescriptor, _ string) (string, error) {
		if agent.Name == "scout" {
			return "", errors.New("terrain impassable")
		}
		return "done-" + agent.Name, nil
	}))

	result, err := b.SpawnBatch(context.Background(), []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
		{AgentName: "scout", Prompt: "map"},
	}, true, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, result.Results)
	assert.False(t, result.Results.TimedOut)
	require.Len(t, result.Results.Completed, 1)
	require.Len(t, result.Results.Failed, 1)

	failed := result.Results.Failed[0]
	assert.Equal(t, "scout", failed.AgentName)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "SPAWN_FAILED", failed.Error.Code)
}

func TestGatherSinglePassWithZeroTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	b, _ := newTestBatch(hostFunc(func(_ context.Context, _ *entity.AgentDescriptor, _ string) (string, error) {
		<-release
		return "ok", nil
	}))
	ctx := context.Background()

	result, err := b.SpawnBatch(ctx, []entity.BatchTask{
		{AgentName: "scribe", Prompt: "write"},
	}, false, 0)
	require.NoError(t, err)

	gathered, err := b.Gather(ctx, result.TaskIDs, 0, true)
	require.NoError(t, err)
	assert.True(t, gathered.TimedOut)
	assert.Equal(t, result.TaskIDs, gathered.Pending)
}

func TestGatherUnknownHandle(t *testing.T) {
	t.Parallel()

	b, _ := newTestBatch(hostFunc(func(context.Context, *entity.AgentDescriptor, string) (string, error) {
		return "ok", nil
	}))

	_, err := b.Gather(context.Background(), []string{"no-such-handle"}, 0, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrEntryNotFound))
}
