package repo

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// ExecutionRepository defines the persistence interface for execution
// handles. Save is an upsert.
type ExecutionRepository interface {
	// Save stores or replaces an execution.
	Save(ctx context.Context, execution *entity.Execution) error
	// Get retrieves an execution by id.
	Get(ctx context.Context, id string) (*entity.Execution, error)
	// ListByParent returns the children of an execution.
	ListByParent(ctx context.Context, parentID string) ([]*entity.Execution, error)
	// Delete removes an execution by id.
	Delete(ctx context.Context, id string) error
}
