package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service/runtime"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/inmemory"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/ledgerfs"
)

// hostFunc adapts a closure to the ExecutionHost interface.
type hostFunc func(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error)

func (f hostFunc) CreateChildExecution(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error) {
	return f(ctx, agent, payload)
}

type staticCatalog map[string]*entity.AgentDescriptor

func (c staticCatalog) Resolve(ctx context.Context, name string) (*entity.AgentDescriptor, error) {
	if agent, ok := c[name]; ok {
		return agent, nil
	}
	return nil, errno.AgentNotFound(name, "guild", nil)
}

// memoryRecorder captures stored records and recalls nothing.
type memoryRecorder struct {
	mu      sync.Mutex
	records []*entity.MemoryRecord
}

func (m *memoryRecorder) Find(ctx context.Context, query string, limit int) ([]*entity.MemoryRecord, error) {
	return nil, nil
}

func (m *memoryRecorder) Store(ctx context.Context, record *entity.MemoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *memoryRecorder) stored() []*entity.MemoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.MemoryRecord, len(m.records))
	copy(out, m.records)
	return out
}

func newTestService(t *testing.T, host runtime.ExecutionHost) (OrchestratorService, *memoryRecorder) {
	t.Helper()

	store, err := ledgerfs.Open(t.TempDir())
	require.NoError(t, err)

	registry := inmemory.NewRegistryStore()
	executions := inmemory.NewExecutionStore()
	memory := &memoryRecorder{}
	catalog := staticCatalog{
		"scout": {Name: "scout", Namespace: "guild"},
		"sage":  {Name: "sage", Namespace: "guild"},
	}

	dispatcher := runtime.NewDispatcher(catalog, host, registry, executions,
		runtime.WithResultLedger(store),
		runtime.WithHeartbeatInterval(10*time.Millisecond),
	)
	batch := runtime.NewBatchCoordinator(dispatcher, registry, catalog,
		runtime.WithPollInterval(10*time.Millisecond))

	svc := NewOrchestratorService(store, store, store, registry, executions, dispatcher, batch, memory)
	return svc, memory
}

func echoHost(output string) hostFunc {
	return func(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error) {
		return output, nil
	}
}

func TestEpicTaskFlowEndToEnd(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("area mapped"))
	ctx := context.Background()

	epic, err := svc.CreateEpic(ctx, "demo", []*entity.Task{
		{Title: "Map the area"},
		{Title: "Write the report", DependsOn: []string{"1.1"}},
	})
	require.NoError(t, err)
	require.Equal(t, "1", epic.ID)
	require.Equal(t, "1.1", epic.Tasks[0].ID)
	require.Equal(t, "1.2", epic.Tasks[1].ID)

	// 1.2 cannot run while 1.1 is open.
	_, err = svc.UpdateTaskStatus(ctx, epic.ID, "1.2", entity.TaskStatusRunning, nil)
	require.ErrorIs(t, err, errno.ErrDependencyUnmet)

	exec, err := svc.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Map the area.",
		Mode:      entity.ModeBlocking,
		TaskRef:   &entity.TaskRef{EpicID: epic.ID, TaskID: "1.1"},
	})
	require.NoError(t, err)
	require.Equal(t, entity.ExecutionStatusCompleted, exec.Status)
	require.Equal(t, "area mapped", exec.Output)

	epic, err = svc.GetEpic(ctx, epic.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusCompleted, epic.Task("1.1").Status)

	// The completed dependency opens the gate.
	task, err := svc.UpdateTaskStatus(ctx, epic.ID, "1.2", entity.TaskStatusRunning, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.TaskStatusRunning, task.Status)

	events, err := svc.Events(ctx, epic.ID)
	require.NoError(t, err)
	var types []entity.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, entity.EventDispatchStarted)
	assert.Contains(t, types, entity.EventDispatchCompleted)
}

func TestArchiveEpicPushesLearningsToMemory(t *testing.T) {
	t.Parallel()

	svc, memory := newTestService(t, echoHost("done"))
	ctx := context.Background()

	epic, err := svc.CreateEpic(ctx, "survey", []*entity.Task{{Title: "Look around"}})
	require.NoError(t, err)

	require.NoError(t, svc.AddLearning(ctx, &entity.Learning{
		Kind:   entity.LearningDecision,
		Text:   "scouts report before sundown",
		EpicID: epic.ID,
	}))
	require.NoError(t, svc.AddLearning(ctx, &entity.Learning{
		Kind: entity.LearningPattern,
		Text: "unrelated workspace note",
	}))

	require.NoError(t, svc.ArchiveEpic(ctx, epic.ID, entity.OutcomeSucceeded))

	active, err := svc.GetActiveEpic(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	// The push runs behind the archive; only the epic's own learnings move.
	require.Eventually(t, func() bool {
		return len(memory.stored()) == 1
	}, time.Second, 10*time.Millisecond)
	record := memory.stored()[0]
	assert.Equal(t, "scouts report before sundown", record.Text)
	assert.Equal(t, string(entity.LearningDecision), record.Kind)
	assert.Equal(t, "epic:"+epic.ID, record.Source)
}

func TestHandoffLifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("done"))
	ctx := context.Background()

	epic, err := svc.CreateEpic(ctx, "long haul", []*entity.Task{{Title: "Dig"}})
	require.NoError(t, err)

	require.NoError(t, svc.CreateHandoff(ctx, &entity.Handoff{
		EpicID:  epic.ID,
		Summary: "halfway through the dig",
		Resume:  "continue from the east wall",
	}))

	// A second write replaces the first; the slot holds one handoff.
	require.NoError(t, svc.CreateHandoff(ctx, &entity.Handoff{
		EpicID:  epic.ID,
		Summary: "east wall cleared",
		Resume:  "start on the north wall",
	}))

	peeked, err := svc.GetHandoff(ctx)
	require.NoError(t, err)
	require.NotNil(t, peeked)
	assert.Equal(t, "east wall cleared", peeked.Summary)

	handoff, err := svc.ConsumeHandoff(ctx)
	require.NoError(t, err)
	assert.Equal(t, "east wall cleared", handoff.Summary)
	assert.Equal(t, "start on the north wall", handoff.Resume)

	// Consuming clears the slot exactly once.
	_, err = svc.ConsumeHandoff(ctx)
	require.ErrorIs(t, err, errno.ErrHandoffEmpty)

	peeked, err = svc.GetHandoff(ctx)
	require.NoError(t, err)
	assert.Nil(t, peeked)

	events, err := svc.Events(ctx, epic.ID)
	require.NoError(t, err)
	var types []entity.EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Contains(t, types, entity.EventHandoffCreated)
	assert.Contains(t, types, entity.EventHandoffConsumed)
}

func TestAdvanceDialogue(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("draft plan attached"))
	ctx := context.Background()

	exec, err := svc.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "sage",
		Prompt:    "Draft the expedition plan.",
		Mode:      entity.ModeBlocking,
		Dialogue:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, exec.Dialogue)
	require.Equal(t, entity.DialogueNeedsInput, exec.Dialogue.State)
	require.Equal(t, 0, exec.Dialogue.Turn)

	exec, err = svc.AdvanceDialogue(ctx, exec.ID, entity.DialogueNeedsApproval, "plan ready for review")
	require.NoError(t, err)
	assert.Equal(t, entity.DialogueNeedsApproval, exec.Dialogue.State)
	assert.Equal(t, 1, exec.Dialogue.Turn)
	require.Len(t, exec.Dialogue.History, 1)
	assert.Equal(t, "plan ready for review", exec.Dialogue.History[0].Content)
	assert.False(t, exec.Dialogue.State.IsFinal())

	// needs_approval cannot jump straight to completed.
	_, err = svc.AdvanceDialogue(ctx, exec.ID, entity.DialogueCompleted, "")
	require.ErrorIs(t, err, errno.ErrInvalidTransition)

	exec, err = svc.AdvanceDialogue(ctx, exec.ID, entity.DialogueApproved, "looks good")
	require.NoError(t, err)
	assert.Equal(t, entity.DialogueApproved, exec.Dialogue.State)
	assert.Equal(t, 2, exec.Dialogue.Turn)
	assert.True(t, exec.Dialogue.State.IsFinal())

	// The advance is durable, not just on the returned copy.
	stored, err := svc.GetExecution(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DialogueApproved, stored.Dialogue.State)
	assert.Equal(t, 2, stored.Dialogue.Turn)
}

func TestAdvanceDialogueRejectsNonDialogueExecutions(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("done"))
	ctx := context.Background()

	exec, err := svc.Dispatch(ctx, &entity.DispatchRequest{
		AgentName: "scout",
		Prompt:    "Map the area.",
		Mode:      entity.ModeBlocking,
	})
	require.NoError(t, err)

	_, err = svc.AdvanceDialogue(ctx, exec.ID, entity.DialogueNeedsApproval, "")
	require.ErrorIs(t, err, errno.ErrInvalidArgument)

	_, err = svc.AdvanceDialogue(ctx, "no-such-execution", entity.DialogueNeedsApproval, "")
	require.ErrorIs(t, err, errno.ErrExecutionNotFound)
}

func TestSpecAndPlanSurviveArchiving(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("done"))
	ctx := context.Background()

	epic, err := svc.CreateEpic(ctx, "charter", []*entity.Task{{Title: "Write charter"}})
	require.NoError(t, err)

	require.NoError(t, svc.WriteSpec(ctx, epic.ID, "# Charter\nScope the guild."))
	require.NoError(t, svc.WritePlan(ctx, epic.ID, "1. Interview members"))

	require.NoError(t, svc.ArchiveEpic(ctx, epic.ID, entity.OutcomePartial))

	spec, err := svc.ReadSpec(ctx, epic.ID)
	require.NoError(t, err)
	assert.Equal(t, "# Charter\nScope the guild.", spec)

	plan, err := svc.ReadPlan(ctx, epic.ID)
	require.NoError(t, err)
	assert.Equal(t, "1. Interview members", plan)

	archived, err := svc.GetEpic(ctx, epic.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomePartial, archived.Outcome)
}

func TestBatchThroughService(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, echoHost("done"))
	ctx := context.Background()

	result, err := svc.SpawnBatch(ctx, []entity.BatchTask{
		{AgentName: "scout", Prompt: "Map the north."},
		{AgentName: "sage", Prompt: "Research the ruins."},
	}, true, 2*time.Second)
	require.NoError(t, err)
	require.Len(t, result.TaskIDs, 2)
	require.NotNil(t, result.Results)
	assert.Len(t, result.Results.Completed, 2)
	assert.False(t, result.Results.TimedOut)

	entries, err := svc.ListRegistryEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entry, err := svc.GetRegistryEntry(ctx, result.TaskIDs[0])
	require.NoError(t, err)
	assert.True(t, entry.Status.IsTerminal())
}
