package ledgerfs

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/logger"
)

// Append adds one learning to its kind's append-only log and refreshes the
// recent-learnings tail in the index.
func (s *Store) Append(ctx context.Context, learning *entity.Learning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !learning.Kind.Valid() {
		return errno.Newf(errno.ErrInvalidArgument, "unknown learning kind %q", learning.Kind)
	}
	if learning.Text == "" {
		return errno.Newf(errno.ErrInvalidArgument, "learning text must not be empty")
	}
	if learning.ID == "" {
		learning.ID = uuid.New().String()
	}
	if learning.CreatedAt.IsZero() {
		learning.CreatedAt = s.now()
	}

	if err := appendJSONL(s.learningPath(learning.Kind), learning); err != nil {
		return err
	}

	idx := s.readIndex()
	idx.RecentLearnings = append(idx.RecentLearnings, learning)
	if len(idx.RecentLearnings) > learningsTail {
		idx.RecentLearnings = idx.RecentLearnings[len(idx.RecentLearnings)-learningsTail:]
	}
	if err := s.writeIndex(idx); err != nil {
		return err
	}

	if learning.EpicID != "" {
		if err := s.appendEventLocked(&entity.Event{
			ID:     uuid.New().String(),
			Type:   entity.EventLearningAdded,
			EpicID: learning.EpicID,
			TaskID: learning.TaskID,
			At:     learning.CreatedAt,
			Detail: map[string]string{"kind": string(learning.Kind)},
		}); err != nil {
			// The learning itself is committed; the event is a trace.
			logger.Warn("[Ledger] learning %s recorded but its event was not: %v", learning.ID, err)
		}
	}
	return nil
}

// List returns learnings of one kind in append order, trimmed to the last
// limit entries when limit > 0.
func (s *Store) List(ctx context.Context, kind entity.LearningKind, limit int) ([]*entity.Learning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.Valid() {
		return nil, errno.Newf(errno.ErrInvalidArgument, "unknown learning kind %q", kind)
	}

	var out []*entity.Learning
	err := readJSONL(s.learningPath(kind),
		func() interface{} { return &entity.Learning{} },
		func(v interface{}) { out = append(out, v.(*entity.Learning)) })
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Recent merges all kinds and returns the n most recent learnings, oldest
// first.
func (s *Store) Recent(ctx context.Context, n int) ([]*entity.Learning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*entity.Learning
	for _, kind := range []entity.LearningKind{
		entity.LearningPattern, entity.LearningAntiPattern, entity.LearningDecision, entity.LearningPreference,
	} {
		err := readJSONL(s.learningPath(kind),
			func() interface{} { return &entity.Learning{} },
			func(v interface{}) { all = append(all, v.(*entity.Learning)) })
		if err != nil {
			return nil, err
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}
