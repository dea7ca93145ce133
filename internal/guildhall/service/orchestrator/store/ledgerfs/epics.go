package ledgerfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/gg/gptr"
	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
)

// CreateEpic claims the active slot, assigns the next epic id and persists
// the epic with its initial tasks.
//
// The flow is:
//  1. create the ACTIVE marker with O_EXCL; an existing marker means
//     another epic holds the slot, regardless of which process wrote it
//  2. assign ids from the index sequence and validate the task graph
//  3. persist epic.json, the index, and the marker content
//
// Any failure after step 1 releases the marker again.
func (s *Store) CreateEpic(ctx context.Context, title string, tasks []*entity.Task) (*entity.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		return nil, errno.Newf(errno.ErrInvalidArgument, "epic title must not be empty")
	}
	if len(tasks) > s.maxTasks {
		return nil, errno.Newf(errno.ErrEpicFull, "epic cannot hold more than %d tasks, got %d", s.maxTasks, len(tasks))
	}

	marker, err := os.OpenFile(s.activePath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, errno.Newf(errno.ErrAlreadyActive, "epic %s is already active in this workspace", s.readActiveID())
		}
		return nil, fmt.Errorf("claim active slot: %w", err)
	}
	marker.Close()

	release := func() { _ = os.Remove(s.activePath()) }

	idx := s.readIndex()
	seq := idx.LastEpicSeq + 1
	now := s.now()

	epic := &entity.Epic{
		ID:        fmt.Sprintf("%d", seq),
		Title:     title,
		Status:    entity.EpicStatusDraft,
		Tasks:     tasks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, t := range epic.Tasks {
		t.ID = fmt.Sprintf("%s.%d", epic.ID, i+1)
		t.Status = entity.TaskStatusPending
		t.CreatedAt = now
		t.UpdatedAt = now
	}
	if err := validateTaskGraph(epic.Tasks); err != nil {
		release()
		return nil, err
	}

	if err := s.saveEpic(epic); err != nil {
		release()
		return nil, err
	}
	if err := os.WriteFile(s.activePath(), []byte(epic.ID+"\n"), 0o644); err != nil {
		release()
		return nil, fmt.Errorf("write active marker: %w", err)
	}
	idx.ActiveEpicID = epic.ID
	idx.Phase = string(epic.Status)
	idx.LastEpicSeq = seq
	if err := s.writeIndex(idx); err != nil {
		release()
		return nil, err
	}

	if err := s.appendEventLocked(&entity.Event{
		ID:     uuid.New().String(),
		Type:   entity.EventEpicCreated,
		EpicID: epic.ID,
		At:     now,
		Detail: map[string]string{"title": title, "tasks": fmt.Sprintf("%d", len(epic.Tasks))},
	}); err != nil {
		return nil, err
	}
	return epic, nil
}

// GetActiveEpic returns the epic holding the active slot, or (nil, nil) when
// the slot is free or its artifacts are unreadable.
func (s *Store) GetActiveEpic(ctx context.Context) (*entity.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeEpicLocked(), nil
}

func (s *Store) activeEpicLocked() *entity.Epic {
	id := s.readActiveID()
	if id == "" {
		return nil
	}
	epic, ok := s.loadEpicFrom(s.epicDir(id))
	if !ok {
		logger.Warn("[Ledger] active marker points at %s but its epic artifact is unreadable, treating workspace as uninitialized", id)
		return nil
	}
	return epic
}

// GetEpic retrieves an epic by id from the active slot or the archive.
func (s *Store) GetEpic(ctx context.Context, id string) (*entity.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epic, ok := s.loadEpicFrom(s.epicDir(id)); ok {
		return epic, nil
	}
	if epic, ok := s.loadEpicFrom(s.archivedDir(id)); ok {
		return epic, nil
	}
	return nil, errno.Newf(errno.ErrEpicNotFound, "epic %s not found", id)
}

// UpdateEpicStatus moves the active epic through its lifecycle and mirrors
// the new phase into the index.
func (s *Store) UpdateEpicStatus(ctx context.Context, id string, status entity.EpicStatus) (*entity.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, err := s.requireActive(id)
	if err != nil {
		return nil, err
	}
	if err := entity.ValidateEpicTransition(epic.Status, status); err != nil {
		return nil, errno.InvalidTransition("epic", epic.ID, string(epic.Status), string(status))
	}

	from := epic.Status
	epic.Status = status
	epic.UpdatedAt = s.now()
	if err := s.saveEpic(epic); err != nil {
		return nil, err
	}

	idx := s.readIndex()
	idx.Phase = string(status)
	if err := s.writeIndex(idx); err != nil {
		return nil, err
	}

	if err := s.appendEventLocked(&entity.Event{
		ID:     uuid.New().String(),
		Type:   entity.EventEpicStatusChanged,
		EpicID: epic.ID,
		At:     epic.UpdatedAt,
		Detail: map[string]string{"from": string(from), "to": string(status)},
	}); err != nil {
		return nil, err
	}
	return epic, nil
}

// AddTask appends a task to the active epic.
func (s *Store) AddTask(ctx context.Context, epicID string, task *entity.Task) (*entity.Epic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, err := s.requireActive(epicID)
	if err != nil {
		return nil, err
	}
	if len(epic.Tasks) >= s.maxTasks {
		return nil, errno.Newf(errno.ErrEpicFull, "epic %s already holds %d tasks (max %d)", epic.ID, len(epic.Tasks), s.maxTasks)
	}

	now := s.now()
	task.ID = epic.NextTaskID()
	task.Status = entity.TaskStatusPending
	task.CreatedAt = now
	task.UpdatedAt = now
	epic.Tasks = append(epic.Tasks, task)
	if err := validateTaskGraph(epic.Tasks); err != nil {
		epic.Tasks = epic.Tasks[:len(epic.Tasks)-1]
		return nil, err
	}

	epic.UpdatedAt = now
	if err := s.saveEpic(epic); err != nil {
		return nil, err
	}

	if err := s.appendEventLocked(&entity.Event{
		ID:     uuid.New().String(),
		Type:   entity.EventTaskAdded,
		EpicID: epic.ID,
		TaskID: task.ID,
		At:     now,
		Detail: map[string]string{"title": task.Title},
	}); err != nil {
		return nil, err
	}
	return epic, nil
}

// UpdateTaskStatus moves a task through its lifecycle. Transitions to
// running are gated on every dependency being completed.
func (s *Store) UpdateTaskStatus(ctx context.Context, epicID, taskID string, status entity.TaskStatus, taskErr *entity.ExecutionError) (*entity.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	epic, err := s.requireActive(epicID)
	if err != nil {
		return nil, err
	}
	task := epic.Task(taskID)
	if task == nil {
		return nil, errno.Newf(errno.ErrTaskNotFound, "task %s not found in epic %s", taskID, epic.ID)
	}
	if err := entity.ValidateTaskTransition(task.Status, status); err != nil {
		return nil, errno.InvalidTransition("task", task.ID, string(task.Status), string(status))
	}
	if status == entity.TaskStatusRunning {
		if unmet := epic.UnmetDependencies(task); len(unmet) > 0 {
			return nil, errno.DependencyUnmet(task.ID, unmet)
		}
	}

	now := s.now()
	from := task.Status
	task.Status = status
	task.UpdatedAt = now
	switch {
	case status == entity.TaskStatusRunning:
		if task.StartedAt == nil {
			task.StartedAt = gptr.Of(now)
		}
		task.Error = nil
	case status.IsTerminal():
		task.CompletedAt = gptr.Of(now)
	}
	if status == entity.TaskStatusFailed {
		task.Error = taskErr
	}

	epic.UpdatedAt = now
	if err := s.saveEpic(epic); err != nil {
		return nil, err
	}

	detail := map[string]string{"from": string(from), "to": string(status)}
	if taskErr != nil {
		detail["error"] = taskErr.Error()
	}
	if err := s.appendEventLocked(&entity.Event{
		ID:     uuid.New().String(),
		Type:   entity.EventTaskStatusChanged,
		EpicID: epic.ID,
		TaskID: task.ID,
		At:     now,
		Detail: detail,
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// ArchiveEpic records the outcome, moves the epic directory into the
// archive and frees the active slot. The spec and plan artifacts move
// verbatim.
func (s *Store) ArchiveEpic(ctx context.Context, id string, outcome entity.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !outcome.Valid() {
		return errno.Newf(errno.ErrInvalidArgument, "unknown outcome %q", outcome)
	}
	epic, err := s.requireActive(id)
	if err != nil {
		return err
	}

	now := s.now()
	epic.Outcome = outcome
	epic.ArchivedAt = gptr.Of(now)
	epic.UpdatedAt = now
	if err := s.saveEpic(epic); err != nil {
		return err
	}
	if err := s.appendEventLocked(&entity.Event{
		ID:     uuid.New().String(),
		Type:   entity.EventEpicArchived,
		EpicID: epic.ID,
		At:     now,
		Detail: map[string]string{"outcome": string(outcome)},
	}); err != nil {
		return err
	}

	if err := os.Rename(s.epicDir(epic.ID), s.archivedDir(epic.ID)); err != nil {
		return fmt.Errorf("move epic %s to archive: %w", epic.ID, err)
	}
	if err := os.Remove(s.activePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release active slot: %w", err)
	}

	idx := s.readIndex()
	idx.ActiveEpicID = ""
	idx.Phase = ""
	return s.writeIndex(idx)
}

// requireActive resolves the active epic and checks the caller named it.
func (s *Store) requireActive(id string) (*entity.Epic, error) {
	epic := s.activeEpicLocked()
	if epic == nil {
		return nil, errno.ErrNoActiveEpic
	}
	if id != "" && id != epic.ID {
		return nil, errno.Newf(errno.ErrEpicNotFound, "epic %s is not the active epic (%s is)", id, epic.ID)
	}
	return epic, nil
}

func (s *Store) loadEpicFrom(dir string) (*entity.Epic, bool) {
	var epic entity.Epic
	ok, err := readJSON(filepath.Join(dir, epicFile), &epic)
	if err != nil || !ok {
		return nil, false
	}
	return &epic, true
}

func (s *Store) saveEpic(e *entity.Epic) error {
	return writeJSONAtomic(filepath.Join(s.epicDir(e.ID), epicFile), e)
}

// validateTaskGraph checks dependency references and rejects cycles with a
// depth-first walk.
func validateTaskGraph(tasks []*entity.Task) error {
	byID := make(map[string]*entity.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				return errno.Newf(errno.ErrInvalidArgument, "task %s depends on itself", t.ID)
			}
			if _, ok := byID[dep]; !ok {
				return errno.Newf(errno.ErrInvalidArgument, "task %s depends on unknown task %s", t.ID, dep)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(tasks))
	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, dep := range byID[id].DependsOn {
			switch color[dep] {
			case gray:
				return false
			case white:
				if !visit(dep) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for _, t := range tasks {
		if color[t.ID] == white {
			if !visit(t.ID) {
				return errno.Newf(errno.ErrInvalidArgument, "task dependencies contain a cycle through %s", t.ID)
			}
		}
	}
	return nil
}
