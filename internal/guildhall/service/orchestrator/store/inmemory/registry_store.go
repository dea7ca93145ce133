package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/gg/gptr"
	"github.com/jinzhu/copier"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

// RegistryStore keeps registry entries in process memory. Reads hand out
// deep copies so callers cannot mutate stored state behind the lock.
type RegistryStore struct {
	mu      sync.RWMutex
	entries map[string]*entity.RegistryEntry
}

func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		entries: make(map[string]*entity.RegistryEntry),
	}
}

func (s *RegistryStore) Register(_ context.Context, entry *entity.RegistryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := &entity.RegistryEntry{}
	if err := copier.Copy(stored, entry); err != nil {
		return err
	}
	s.entries[entry.ID] = stored
	return nil
}

func (s *RegistryStore) Heartbeat(_ context.Context, id, note string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || entry.Status.IsTerminal() {
		return nil
	}
	entry.LastHeartbeat = at
	entry.UpdatedAt = at
	if note != "" {
		entry.Note = note
	}
	return nil
}

func (s *RegistryStore) Complete(_ context.Context, id, result string, at time.Time) (*entity.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", id)
	}
	if !entry.Status.IsTerminal() {
		entry.Status = entity.ExecutionStatusCompleted
		entry.Result = result
		entry.Error = nil
		entry.UpdatedAt = at
		entry.CompletedAt = gptr.Of(at)
	}
	return snapshot(entry)
}

func (s *RegistryStore) Fail(_ context.Context, id string, execErr *entity.ExecutionError, at time.Time) (*entity.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", id)
	}
	if !entry.Status.IsTerminal() {
		entry.Status = entity.ExecutionStatusFailed
		entry.Error = execErr
		entry.UpdatedAt = at
		entry.CompletedAt = gptr.Of(at)
	}
	return snapshot(entry)
}

func (s *RegistryStore) Get(_ context.Context, id string) (*entity.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[id]
	if !ok {
		return nil, errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", id)
	}
	return snapshot(entry)
}

func (s *RegistryStore) List(_ context.Context) ([]*entity.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*entity.RegistryEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		snap, err := snapshot(entry)
		if err != nil {
			return nil, err
		}
		entries = append(entries, snap)
	}
	return entries, nil
}

func (s *RegistryStore) Update(_ context.Context, entry *entity.RegistryEntry) (*entity.RegistryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[entry.ID]
	if !ok {
		return nil, errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", entry.ID)
	}
	// Terminal entries are immutable: a caller writing back a stale
	// snapshot must not resurrect a settled entry.
	if current.Status.IsTerminal() {
		return snapshot(current)
	}
	stored := &entity.RegistryEntry{}
	if err := copier.Copy(stored, entry); err != nil {
		return nil, err
	}
	s.entries[entry.ID] = stored
	return snapshot(stored)
}

func (s *RegistryStore) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	swept := 0
	for id, entry := range s.entries {
		if entry.Status.IsTerminal() && entry.CompletedAt != nil && entry.CompletedAt.Before(cutoff) {
			delete(s.entries, id)
			swept++
		}
	}
	return swept, nil
}

func snapshot(entry *entity.RegistryEntry) (*entity.RegistryEntry, error) {
	out := &entity.RegistryEntry{}
	if err := copier.Copy(out, entry); err != nil {
		return nil, err
	}
	return out, nil
}
