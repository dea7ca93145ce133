package ledgerfs

import (
	"context"
	"path/filepath"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// AppendEvent adds one line to the owning epic's execution log.
func (s *Store) AppendEvent(ctx context.Context, event *entity.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEventLocked(event)
}

func (s *Store) appendEventLocked(event *entity.Event) error {
	dir, err := s.findEpicDir(event.EpicID)
	if err != nil {
		return err
	}
	return appendJSONL(filepath.Join(dir, eventsFile), event)
}

// Events returns an epic's execution log in append order. Unparseable lines
// are skipped.
func (s *Store) Events(ctx context.Context, epicID string) ([]*entity.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.findEpicDir(epicID)
	if err != nil {
		return nil, err
	}

	var events []*entity.Event
	err = readJSONL(filepath.Join(dir, eventsFile),
		func() interface{} { return &entity.Event{} },
		func(v interface{}) { events = append(events, v.(*entity.Event)) })
	if err != nil {
		return nil, err
	}
	return events, nil
}
