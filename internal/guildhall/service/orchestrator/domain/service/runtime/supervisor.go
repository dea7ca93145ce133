package runtime

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/repo"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg"
	"github.com/mverel/guildmaster/pkg/logger"
)

const (
	// defaultStaleThreshold is how long an entry may go without a
	// heartbeat before the supervisor intervenes.
	defaultStaleThreshold = 30 * time.Second

	// defaultScanInterval is the reconciliation cadence.
	defaultScanInterval = 10 * time.Second

	// defaultMaxRetries bounds re-dispatches per entry.
	defaultMaxRetries = 2

	// defaultRetention is how long settled entries stay visible before
	// the sweep drops them.
	defaultRetention = 30 * time.Minute
)

// Supervisor reconciles the task registry: entries whose heartbeat has gone
// stale are re-dispatched a bounded number of times, then failed with the
// failure propagated to the owning ledger task.
//
// The scan is silent on the success path. Each entry is reconciled
// independently, so one stuck entry never blocks evaluation of the others.
type Supervisor struct {
	registry   repo.Registry
	dispatcher Redispatcher
	ledger     TaskLedger

	staleThreshold time.Duration
	scanInterval   time.Duration
	retention      time.Duration
	maxRetries     int
	now            func() time.Time
}

// SupervisorOption mutates supervisor defaults.
type SupervisorOption func(*Supervisor)

// WithStaleThreshold sets the heartbeat staleness cutoff.
func WithStaleThreshold(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.staleThreshold = d }
}

// WithScanInterval sets the reconciliation cadence.
func WithScanInterval(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.scanInterval = d }
}

// WithMaxRetries bounds re-dispatches per entry.
func WithMaxRetries(n int) SupervisorOption {
	return func(s *Supervisor) { s.maxRetries = n }
}

// WithRetention sets how long settled entries survive the sweep.
func WithRetention(d time.Duration) SupervisorOption {
	return func(s *Supervisor) { s.retention = d }
}

// WithTaskLedger plugs in failure propagation to the owning task.
func WithTaskLedger(l TaskLedger) SupervisorOption {
	return func(s *Supervisor) { s.ledger = l }
}

// WithSupervisorClock injects a clock for tests.
func WithSupervisorClock(now func() time.Time) SupervisorOption {
	return func(s *Supervisor) { s.now = now }
}

// NewSupervisor wires a supervisor over the registry and dispatcher.
func NewSupervisor(registry repo.Registry, dispatcher Redispatcher, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		registry:       registry,
		dispatcher:     dispatcher,
		staleThreshold: defaultStaleThreshold,
		scanInterval:   defaultScanInterval,
		retention:      defaultRetention,
		maxRetries:     defaultMaxRetries,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans periodically until the context is canceled.
func (s *Supervisor) Run(ctx context.Context) {
	logger.InfoX(pkg.ModuleName, "supervisor started (stale threshold %s, scan every %s, max retries %d)",
		s.staleThreshold, s.scanInterval, s.maxRetries)

	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoX(pkg.ModuleName, "supervisor stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs one reconciliation pass over all registry entries and then
// sweeps settled entries past the retention window. Exported so callers can
// force a pass; the periodic loop calls it on every tick.
func (s *Supervisor) Scan(ctx context.Context) {
	entries, err := s.registry.List(ctx)
	if err != nil {
		logger.WarnX(pkg.ModuleName, "supervisor could not list registry entries: %v", err)
		return
	}

	now := s.now()
	for _, entry := range entries {
		if !entry.Stale(now, s.staleThreshold) {
			continue
		}
		s.reconcile(ctx, entry)
	}

	if swept, err := s.registry.Sweep(ctx, now.Add(-s.retention)); err != nil {
		logger.WarnX(pkg.ModuleName, "registry sweep failed: %v", err)
	} else if swept > 0 {
		logger.InfoX(pkg.ModuleName, "swept %d settled registry entries", swept)
	}
}

// reconcile handles one stale entry: bounded re-dispatch, then terminal
// failure.
func (s *Supervisor) reconcile(ctx context.Context, entry *entity.RegistryEntry) {
	now := s.now()

	entry.Retries++
	if entry.Retries <= s.maxRetries {
		entry.StartedAt = now
		entry.LastHeartbeat = now
		entry.UpdatedAt = now
		stored, err := s.registry.Update(ctx, entry)
		if err != nil {
			logger.WarnX(pkg.ModuleName, "could not record retry of %s: %v", entry.ID, err)
			return
		}
		if stored.Status.IsTerminal() {
			// A late result settled the entry between the scan snapshot and
			// the retry write; the work actually finished.
			return
		}
		logger.WarnX(pkg.ModuleName, "entry %s went stale, re-dispatching to %s (retry %d/%d)",
			entry.ID, entry.Spec.AgentName, entry.Retries, s.maxRetries)
		if err := s.dispatcher.Redispatch(ctx, entry); err != nil {
			logger.WarnX(pkg.ModuleName, "re-dispatch of %s failed: %v", entry.ID, err)
		}
		s.trace(ctx, entry, entity.EventSupervisorRetry, map[string]string{
			"agent": entry.Spec.AgentName,
			"retry": strconv.Itoa(entry.Retries),
		})
		return
	}

	execErr := &entity.ExecutionError{Code: "STALE", Message: "stale, retries exhausted"}
	stored, err := s.registry.Fail(ctx, entry.ID, execErr, now)
	if err != nil {
		logger.WarnX(pkg.ModuleName, "could not fail stale entry %s: %v", entry.ID, err)
		return
	}
	if stored.Status != entity.ExecutionStatusFailed {
		// A late result settled the entry first; the work actually finished.
		return
	}

	logger.WarnX(pkg.ModuleName, "entry %s failed after %d retries: %s", entry.ID, s.maxRetries, execErr.Message)
	s.propagateFailure(ctx, stored, execErr)
}

// propagateFailure marks the owning ledger task failed and traces the event.
func (s *Supervisor) propagateFailure(ctx context.Context, entry *entity.RegistryEntry, execErr *entity.ExecutionError) {
	if s.ledger == nil || entry.Spec.TaskRef == nil {
		return
	}
	ref := entry.Spec.TaskRef
	if _, err := s.ledger.UpdateTaskStatus(ctx, ref.EpicID, ref.TaskID, entity.TaskStatusFailed, execErr); err != nil {
		logger.WarnX(pkg.ModuleName, "could not propagate failure of %s to task %s: %v", entry.ID, ref.TaskID, err)
		return
	}
	s.trace(ctx, entry, entity.EventSupervisorFailed, map[string]string{
		"reason": execErr.Message,
	})
}

// trace appends a supervisor event to the owning epic's log, when there is
// one.
func (s *Supervisor) trace(ctx context.Context, entry *entity.RegistryEntry, eventType entity.EventType, detail map[string]string) {
	if s.ledger == nil || entry.Spec.TaskRef == nil {
		return
	}
	if detail == nil {
		detail = map[string]string{}
	}
	detail["entry"] = entry.ID
	event := &entity.Event{
		ID:     uuid.New().String(),
		Type:   eventType,
		EpicID: entry.Spec.TaskRef.EpicID,
		TaskID: entry.Spec.TaskRef.TaskID,
		At:     s.now(),
		Detail: detail,
	}
	if err := s.ledger.AppendEvent(ctx, event); err != nil {
		logger.WarnX(pkg.ModuleName, "could not trace %s for entry %s: %v", eventType, entry.ID, err)
	}
}
