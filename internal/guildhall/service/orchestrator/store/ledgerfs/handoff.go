package ledgerfs

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

// Put writes the handoff slot, replacing whatever was there. Last writer
// wins.
func (s *Store) Put(ctx context.Context, handoff *entity.Handoff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handoff.Summary == "" {
		return errno.Newf(errno.ErrInvalidArgument, "handoff summary must not be empty")
	}
	if handoff.ID == "" {
		handoff.ID = uuid.New().String()
	}
	if handoff.CreatedAt.IsZero() {
		handoff.CreatedAt = s.now()
	}
	return writeJSONAtomic(s.handoffPath(), handoff)
}

// Get returns the current handoff, or (nil, nil) when the slot is empty or
// unreadable.
func (s *Store) Get(ctx context.Context) (*entity.Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var h entity.Handoff
	ok, err := readJSON(s.handoffPath(), &h)
	if err != nil || !ok {
		return nil, nil
	}
	return &h, nil
}

// Clear empties the handoff slot. Clearing an empty slot is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.handoffPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
