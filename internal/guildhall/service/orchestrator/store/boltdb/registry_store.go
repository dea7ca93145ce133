package boltdb

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/bytedance/gg/gptr"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/pkg/utils/json"
)

// RegistryStore is a BoltDB-backed store for background execution entries.
// Terminal writes happen inside one update transaction, so the
// first-terminal-write-wins rule holds across processes sharing the file.
type RegistryStore struct {
	db *bolt.DB
}

// NewRegistryStore creates a new RegistryStore.
func NewRegistryStore(db *DB) *RegistryStore {
	return &RegistryStore{db: db.Bolt()}
}

func (s *RegistryStore) Register(ctx context.Context, entry *entity.RegistryEntry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal registry entry: %w", err)
		}
		return b.Put([]byte(entry.ID), data)
	})
}

// Heartbeat refreshes the liveness timestamp and, when note is non-empty,
// the entry's note. Unknown ids and terminal entries are silently ignored so
// workers can signal without caring about races with completion.
func (s *RegistryStore) Heartbeat(ctx context.Context, id, note string, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		data := b.Get([]byte(id))
		if data == nil {
			return nil
		}
		var entry entity.RegistryEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal registry entry %q: %w", id, err)
		}
		if entry.Status.IsTerminal() {
			return nil
		}
		entry.LastHeartbeat = at
		entry.UpdatedAt = at
		if note != "" {
			entry.Note = note
		}
		return s.put(b, &entry)
	})
}

func (s *RegistryStore) Complete(ctx context.Context, id, result string, at time.Time) (*entity.RegistryEntry, error) {
	return s.finish(id, func(entry *entity.RegistryEntry) {
		entry.Status = entity.ExecutionStatusCompleted
		entry.Result = result
		entry.Error = nil
		entry.UpdatedAt = at
		entry.CompletedAt = gptr.Of(at)
	})
}

func (s *RegistryStore) Fail(ctx context.Context, id string, execErr *entity.ExecutionError, at time.Time) (*entity.RegistryEntry, error) {
	return s.finish(id, func(entry *entity.RegistryEntry) {
		entry.Status = entity.ExecutionStatusFailed
		entry.Error = execErr
		entry.UpdatedAt = at
		entry.CompletedAt = gptr.Of(at)
	})
}

// finish applies a terminal mutation unless the entry is already terminal.
func (s *RegistryStore) finish(id string, mutate func(*entity.RegistryEntry)) (*entity.RegistryEntry, error) {
	var entry entity.RegistryEntry
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		data := b.Get([]byte(id))
		if data == nil {
			return errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", id)
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return fmt.Errorf("failed to unmarshal registry entry %q: %w", id, err)
		}
		if entry.Status.IsTerminal() {
			return nil
		}
		mutate(&entry)
		return s.put(b, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RegistryStore) Get(ctx context.Context, id string) (*entity.RegistryEntry, error) {
	var entry entity.RegistryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		data := b.Get([]byte(id))
		if data == nil {
			return errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", id)
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *RegistryStore) List(ctx context.Context) ([]*entity.RegistryEntry, error) {
	var entries []*entity.RegistryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		return b.ForEach(func(k, v []byte) error {
			var e entity.RegistryEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to unmarshal registry entry: %w", err)
			}
			entries = append(entries, &e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list registry entries: %w", err)
	}
	return entries, nil
}

// Update rewrites a non-terminal entry. The terminal check runs inside the
// same write transaction as the put: a caller writing back a stale snapshot
// gets the settled entry instead of resurrecting it.
func (s *RegistryStore) Update(ctx context.Context, entry *entity.RegistryEntry) (*entity.RegistryEntry, error) {
	var stored entity.RegistryEntry
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)
		data := b.Get([]byte(entry.ID))
		if data == nil {
			return errno.Newf(errno.ErrEntryNotFound, "registry entry %q not found", entry.ID)
		}
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to unmarshal registry entry %q: %w", entry.ID, err)
		}
		if stored.Status.IsTerminal() {
			return nil
		}
		stored = *entry
		return s.put(b, entry)
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Sweep drops terminal entries completed before cutoff.
func (s *RegistryStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	swept := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRegistryStore)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e entity.RegistryEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return nil
			}
			if e.Status.IsTerminal() && e.CompletedAt != nil && e.CompletedAt.Before(cutoff) {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep registry: %w", err)
	}
	return swept, nil
}

func (s *RegistryStore) put(b *bolt.Bucket, entry *entity.RegistryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal registry entry: %w", err)
	}
	return b.Put([]byte(entry.ID), data)
}
