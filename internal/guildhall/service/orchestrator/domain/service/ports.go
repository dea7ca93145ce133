package service

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// MemoryService is the long-term memory collaborator. The orchestrator only
// ever uses it best-effort: recall primes dispatch payloads, Store receives
// learnings after an epic archives. Failures are logged and never block
// orchestration.
type MemoryService interface {
	Find(ctx context.Context, query string, limit int) ([]*entity.MemoryRecord, error)
	Store(ctx context.Context, record *entity.MemoryRecord) error
}
