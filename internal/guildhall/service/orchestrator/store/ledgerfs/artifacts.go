package ledgerfs

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
)

// WriteSpec stores the specification artifact of an epic in the active slot.
func (s *Store) WriteSpec(ctx context.Context, epicID, content string) error {
	return s.writeArtifact(epicID, specFile, content)
}

// ReadSpec returns the specification artifact verbatim. A missing artifact
// on an existing epic reads as empty.
func (s *Store) ReadSpec(ctx context.Context, epicID string) (string, error) {
	return s.readArtifact(epicID, specFile)
}

// WritePlan stores the plan artifact of an epic in the active slot.
func (s *Store) WritePlan(ctx context.Context, epicID, content string) error {
	return s.writeArtifact(epicID, planFile, content)
}

// ReadPlan returns the plan artifact verbatim.
func (s *Store) ReadPlan(ctx context.Context, epicID string) (string, error) {
	return s.readArtifact(epicID, planFile)
}

func (s *Store) writeArtifact(epicID, name, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loadEpicFrom(s.epicDir(epicID)); !ok {
		return errno.Newf(errno.ErrEpicNotFound, "epic %s is not in the active slot", epicID)
	}
	return writeFileAtomic(filepath.Join(s.epicDir(epicID), name), []byte(content))
}

func (s *Store) readArtifact(epicID, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, err := s.findEpicDir(epicID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// findEpicDir resolves the directory holding an epic's artifacts, active
// slot first.
func (s *Store) findEpicDir(epicID string) (string, error) {
	if _, ok := s.loadEpicFrom(s.epicDir(epicID)); ok {
		return s.epicDir(epicID), nil
	}
	if _, ok := s.loadEpicFrom(s.archivedDir(epicID)); ok {
		return s.archivedDir(epicID), nil
	}
	return "", errno.Newf(errno.ErrEpicNotFound, "epic %s not found", epicID)
}
