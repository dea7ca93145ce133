// Package ledgerfs implements the workspace ledger on the local filesystem.
//
// Layout under the workspace root:
//
//	index.json            active-epic pointer, phase, recent learnings tail
//	ACTIVE                exclusive marker claiming the active slot
//	epics/<id>/           epic.json, spec.md, plan.md, events.jsonl
//	archive/<id>/         same artifacts, frozen
//	learnings/<kind>.jsonl
//	handoff.json          the single handoff slot
//
// Every JSON artifact is written through a temp file and rename. In-process
// access is serialized by a mutex; the single-active-epic invariant holds
// across processes because the ACTIVE marker is created with O_EXCL.
package ledgerfs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

const (
	indexFile   = "index.json"
	activeFile  = "ACTIVE"
	handoffFile = "handoff.json"
	epicsDir    = "epics"
	archiveDir  = "archive"
	learningDir = "learnings"

	epicFile   = "epic.json"
	specFile   = "spec.md"
	planFile   = "plan.md"
	eventsFile = "events.jsonl"

	// learningsTail is how many recent learnings the index keeps for
	// status display and payload injection.
	learningsTail = 10
)

// Store is the filesystem ledger.
type Store struct {
	root     string
	maxTasks int

	mu  sync.Mutex
	now func() time.Time
}

// Option tunes a Store.
type Option func(*Store)

// WithMaxTasks overrides the per-epic task cap.
func WithMaxTasks(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTasks = n
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open prepares a Store rooted at dir, creating the directory tree.
func Open(dir string, opts ...Option) (*Store, error) {
	s := &Store{
		root:     dir,
		maxTasks: entity.DefaultMaxTasks,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, sub := range []string{"", epicsDir, archiveDir, learningDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Root returns the workspace directory.
func (s *Store) Root() string { return s.root }

func (s *Store) indexPath() string   { return filepath.Join(s.root, indexFile) }
func (s *Store) activePath() string  { return filepath.Join(s.root, activeFile) }
func (s *Store) handoffPath() string { return filepath.Join(s.root, handoffFile) }

func (s *Store) epicDir(id string) string     { return filepath.Join(s.root, epicsDir, id) }
func (s *Store) archivedDir(id string) string { return filepath.Join(s.root, archiveDir, id) }

func (s *Store) learningPath(kind entity.LearningKind) string {
	return filepath.Join(s.root, learningDir, string(kind)+".jsonl")
}

// workspaceIndex is the root index artifact.
type workspaceIndex struct {
	// ActiveEpicID points at the epic holding the active slot.
	ActiveEpicID string `json:"active_epic_id,omitempty"`
	// Phase mirrors the active epic's status for cheap status reads.
	Phase string `json:"phase,omitempty"`
	// LastEpicSeq is the workspace's epic id sequence.
	LastEpicSeq int `json:"last_epic_seq"`
	// RecentLearnings is the tail of the learning logs, newest last.
	RecentLearnings []*entity.Learning `json:"recent_learnings,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// readIndex loads the index, returning a zero value when the artifact is
// missing or malformed.
func (s *Store) readIndex() workspaceIndex {
	var idx workspaceIndex
	if ok, _ := readJSON(s.indexPath(), &idx); !ok {
		return workspaceIndex{}
	}
	return idx
}

func (s *Store) writeIndex(idx workspaceIndex) error {
	idx.UpdatedAt = s.now()
	return writeJSONAtomic(s.indexPath(), idx)
}

// readActiveID returns the epic id in the ACTIVE marker, or "".
func (s *Store) readActiveID() string {
	data, err := os.ReadFile(s.activePath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
