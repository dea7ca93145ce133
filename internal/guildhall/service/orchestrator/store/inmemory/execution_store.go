package inmemory

import (
	"context"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

// ExecutionStore keeps execution handles in process memory. Handles are
// process-local; durable liveness lives in the registry.
type ExecutionStore struct {
	mu         sync.RWMutex
	executions map[string]*entity.Execution
}

func NewExecutionStore() *ExecutionStore {
	return &ExecutionStore{
		executions: make(map[string]*entity.Execution),
	}
}

func (s *ExecutionStore) Save(_ context.Context, execution *entity.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := &entity.Execution{}
	if err := copier.Copy(stored, execution); err != nil {
		return err
	}
	s.executions[execution.ID] = stored
	return nil
}

func (s *ExecutionStore) Get(_ context.Context, id string) (*entity.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	execution, ok := s.executions[id]
	if !ok {
		return nil, errno.Newf(errno.ErrExecutionNotFound, "execution %q not found", id)
	}
	out := &entity.Execution{}
	if err := copier.Copy(out, execution); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ExecutionStore) ListByParent(_ context.Context, parentID string) ([]*entity.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Execution
	for _, execution := range s.executions {
		if execution.ParentID != parentID {
			continue
		}
		snap := &entity.Execution{}
		if err := copier.Copy(snap, execution); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *ExecutionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.executions, id)
	return nil
}
