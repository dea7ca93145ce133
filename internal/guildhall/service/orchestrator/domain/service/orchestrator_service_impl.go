package service

import (
	"context"
	"time"

	"github.com/bytedance/gg/gptr"
	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/repo"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service/runtime"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
	"github.com/mverel/guildmaster/pkg/utils/safego"
)

// archiveRecallWindow bounds how many recent learnings are scanned for the
// archived epic when pushing them to long-term memory.
const archiveRecallWindow = 100

// orchestratorServiceImpl implements the OrchestratorService interface.
type orchestratorServiceImpl struct {
	ledger     repo.Ledger
	learnings  repo.LearningLog
	handoffs   repo.HandoffSlot
	registry   repo.Registry
	executions repo.ExecutionRepository
	dispatcher *runtime.Dispatcher
	batch      *runtime.BatchCoordinator
	memory     MemoryService

	now func() time.Time
}

func NewOrchestratorService(ledger repo.Ledger,
	learnings repo.LearningLog,
	handoffs repo.HandoffSlot,
	registry repo.Registry,
	executions repo.ExecutionRepository,
	dispatcher *runtime.Dispatcher,
	batch *runtime.BatchCoordinator,
	memory MemoryService) OrchestratorService {
	return &orchestratorServiceImpl{
		ledger:     ledger,
		learnings:  learnings,
		handoffs:   handoffs,
		registry:   registry,
		executions: executions,
		dispatcher: dispatcher,
		batch:      batch,
		memory:     memory,
		now:        time.Now,
	}
}

func (o *orchestratorServiceImpl) CreateEpic(ctx context.Context, title string, tasks []*entity.Task) (*entity.Epic, error) {
	return o.ledger.CreateEpic(ctx, title, tasks)
}

func (o *orchestratorServiceImpl) GetActiveEpic(ctx context.Context) (*entity.Epic, error) {
	return o.ledger.GetActiveEpic(ctx)
}

func (o *orchestratorServiceImpl) GetEpic(ctx context.Context, id string) (*entity.Epic, error) {
	return o.ledger.GetEpic(ctx, id)
}

func (o *orchestratorServiceImpl) UpdateEpicStatus(ctx context.Context, id string, status entity.EpicStatus) (*entity.Epic, error) {
	return o.ledger.UpdateEpicStatus(ctx, id, status)
}

func (o *orchestratorServiceImpl) AddTask(ctx context.Context, epicID string, task *entity.Task) (*entity.Epic, error) {
	return o.ledger.AddTask(ctx, epicID, task)
}

func (o *orchestratorServiceImpl) UpdateTaskStatus(ctx context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error) {
	return o.ledger.UpdateTaskStatus(ctx, epicID, taskID, status, taskErr)
}

func (o *orchestratorServiceImpl) ArchiveEpic(ctx context.Context, id string, outcome entity.Outcome) error {
	if err := o.ledger.ArchiveEpic(ctx, id, outcome); err != nil {
		return err
	}
	o.pushLearningsToMemory(ctx, id)
	return nil
}

// pushLearningsToMemory copies the archived epic's learnings into long-term
// memory in the background. The archive already succeeded; memory is
// best-effort.
func (o *orchestratorServiceImpl) pushLearningsToMemory(ctx context.Context, epicID string) {
	if o.memory == nil {
		return
	}

	bg := context.WithoutCancel(ctx)
	safego.Go(bg, func() {
		recent, err := o.learnings.Recent(bg, archiveRecallWindow)
		if err != nil {
			logger.WarnX(pkg.ModuleName, "could not read learnings for archived epic %s: %v", epicID, err)
			return
		}
		stored := 0
		for _, l := range recent {
			if l.EpicID != epicID {
				continue
			}
			record := &entity.MemoryRecord{
				Kind:      string(l.Kind),
				Text:      l.Text,
				Source:    "epic:" + epicID,
				CreatedAt: l.CreatedAt,
			}
			if err := o.memory.Store(bg, record); err != nil {
				logger.WarnX(pkg.ModuleName, "could not store learning %s in memory: %v", l.ID, err)
				continue
			}
			stored++
		}
		if stored > 0 {
			logger.InfoX(pkg.ModuleName, "archived epic %s: %d learnings stored in memory", epicID, stored)
		}
	})
}

func (o *orchestratorServiceImpl) WriteSpec(ctx context.Context, epicID, content string) error {
	return o.ledger.WriteSpec(ctx, epicID, content)
}

func (o *orchestratorServiceImpl) ReadSpec(ctx context.Context, epicID string) (string, error) {
	return o.ledger.ReadSpec(ctx, epicID)
}

func (o *orchestratorServiceImpl) WritePlan(ctx context.Context, epicID, content string) error {
	return o.ledger.WritePlan(ctx, epicID, content)
}

func (o *orchestratorServiceImpl) ReadPlan(ctx context.Context, epicID string) (string, error) {
	return o.ledger.ReadPlan(ctx, epicID)
}

func (o *orchestratorServiceImpl) Events(ctx context.Context, epicID string) ([]*entity.Event, error) {
	return o.ledger.Events(ctx, epicID)
}

func (o *orchestratorServiceImpl) AddLearning(ctx context.Context, learning *entity.Learning) error {
	return o.learnings.Append(ctx, learning)
}

func (o *orchestratorServiceImpl) ListLearnings(ctx context.Context, kind entity.LearningKind, limit int) ([]*entity.Learning, error) {
	return o.learnings.List(ctx, kind, limit)
}

func (o *orchestratorServiceImpl) RecentLearnings(ctx context.Context, n int) ([]*entity.Learning, error) {
	return o.learnings.Recent(ctx, n)
}

func (o *orchestratorServiceImpl) CreateHandoff(ctx context.Context, handoff *entity.Handoff) error {
	if err := o.handoffs.Put(ctx, handoff); err != nil {
		return err
	}
	o.traceHandoff(ctx, handoff, entity.EventHandoffCreated)
	return nil
}

func (o *orchestratorServiceImpl) GetHandoff(ctx context.Context) (*entity.Handoff, error) {
	return o.handoffs.Get(ctx)
}

func (o *orchestratorServiceImpl) ConsumeHandoff(ctx context.Context) (*entity.Handoff, error) {
	handoff, err := o.handoffs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if handoff == nil {
		return nil, errno.ErrHandoffEmpty
	}
	if err := o.handoffs.Clear(ctx); err != nil {
		return nil, err
	}
	o.traceHandoff(ctx, handoff, entity.EventHandoffConsumed)
	return handoff, nil
}

func (o *orchestratorServiceImpl) ClearHandoff(ctx context.Context) error {
	return o.handoffs.Clear(ctx)
}

// traceHandoff logs handoff activity to the owning epic's execution log.
// Handoffs without an epic leave no trace; a trace failure never fails the
// handoff itself.
func (o *orchestratorServiceImpl) traceHandoff(ctx context.Context, handoff *entity.Handoff, eventType entity.EventType) {
	if handoff.EpicID == "" {
		return
	}
	event := &entity.Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		EpicID: handoff.EpicID,
		At:     o.now(),
		Detail: map[string]string{"handoff": handoff.ID},
	}
	if err := o.ledger.AppendEvent(ctx, event); err != nil {
		logger.WarnX(pkg.ModuleName, "could not trace %s for handoff %s: %v", eventType, handoff.ID, err)
	}
}

func (o *orchestratorServiceImpl) Dispatch(ctx context.Context, req *entity.DispatchRequest) (*entity.Execution, error) {
	return o.dispatcher.Dispatch(ctx, req)
}

func (o *orchestratorServiceImpl) SpawnBatch(ctx context.Context, tasks []entity.BatchTask, wait bool, timeout time.Duration) (*entity.BatchResult, error) {
	return o.batch.SpawnBatch(ctx, tasks, wait, timeout)
}

func (o *orchestratorServiceImpl) Gather(ctx context.Context, ids []string, timeout time.Duration, partial bool) (*entity.GatherResult, error) {
	return o.batch.Gather(ctx, ids, timeout, partial)
}

func (o *orchestratorServiceImpl) GetExecution(ctx context.Context, id string) (*entity.Execution, error) {
	return o.executions.Get(ctx, id)
}

func (o *orchestratorServiceImpl) ListChildExecutions(ctx context.Context, parentID string) ([]*entity.Execution, error) {
	return o.executions.ListByParent(ctx, parentID)
}

func (o *orchestratorServiceImpl) AdvanceDialogue(ctx context.Context, executionID string, to entity.DialogueState, message string) (*entity.Execution, error) {
	exec, err := o.executions.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec.Dialogue == nil {
		return nil, errno.Newf(errno.ErrInvalidArgument, "execution %s is not running in dialogue mode", executionID)
	}

	next, err := entity.AdvanceDialogue(*exec.Dialogue, to)
	if err != nil {
		return nil, errno.InvalidTransition("dialogue", executionID, string(exec.Dialogue.State), string(to))
	}
	if message != "" {
		next.History = append(next.History, entity.DialogueMessage{
			Role:    "orchestrator",
			Content: message,
			At:      o.now(),
		})
	}

	exec.Dialogue = gptr.Of(next)
	if err := o.executions.Save(ctx, exec); err != nil {
		return nil, err
	}
	logger.InfoX(pkg.ModuleName, "dialogue %s moved to %s (turn %d)", executionID, next.State, next.Turn)
	return exec, nil
}

func (o *orchestratorServiceImpl) GetRegistryEntry(ctx context.Context, id string) (*entity.RegistryEntry, error) {
	return o.registry.Get(ctx, id)
}

func (o *orchestratorServiceImpl) ListRegistryEntries(ctx context.Context) ([]*entity.RegistryEntry, error) {
	return o.registry.List(ctx)
}
