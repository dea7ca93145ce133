// Package orchestrator wires the task orchestration engine: the durable
// workspace ledger, the dispatch runtime, the background-work registry with
// its supervisor, and the batch coordinator.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/repo"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service/runtime"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg"
	boltdbStore "github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/boltdb"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/inmemory"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/store/ledgerfs"
	"github.com/mverel/guildmaster/pkg/logger"
	"github.com/mverel/guildmaster/pkg/utils/safego"
)

// Config holds the configuration for the Orchestrator module.
// Follows K8S-style: Config → Complete() → New(ctx, deps).
type Config struct {
	// WorkspaceDir is the root of the workspace ledger (default: "data/workspace").
	WorkspaceDir string `json:"workspace_dir,omitempty"`

	// MaxTasks caps tasks per epic (default: 7).
	MaxTasks int `json:"max_tasks,omitempty"`

	// BlockingTimeout bounds a blocking dispatch (default: 10m).
	BlockingTimeout time.Duration `json:"blocking_timeout,omitempty"`

	// HeartbeatInterval is the background worker heartbeat cadence (default: 5s).
	HeartbeatInterval time.Duration `json:"heartbeat_interval,omitempty"`

	// StaleThreshold is how long an entry may go without a heartbeat before
	// the supervisor intervenes (default: 30s).
	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`

	// ScanInterval is the supervisor's scan cadence (default: 10s).
	ScanInterval time.Duration `json:"scan_interval,omitempty"`

	// MaxRetries is how many times a stale entry is re-dispatched before it
	// fails for good (default: 2).
	MaxRetries int `json:"max_retries,omitempty"`

	// Retention is how long settled registry entries are kept before the
	// sweep drops them (default: 30m).
	Retention time.Duration `json:"retention,omitempty"`

	// GatherPollInterval is the batch coordinator's registry poll cadence
	// (default: 250ms).
	GatherPollInterval time.Duration `json:"gather_poll_interval,omitempty"`

	// --- Storage ---

	// StoreType selects the registry backend: "inmemory" or "boltdb".
	// Default: "inmemory". The ledger is always filesystem-backed.
	StoreType string `json:"store_type,omitempty"`

	// BoltDBPath is the file path for BoltDB storage (when StoreType="boltdb").
	// Default: "data/guildhall.db".
	BoltDBPath string `json:"boltdb_path,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = "data/workspace"
	}
	if c.MaxTasks <= 0 {
		c.MaxTasks = entity.DefaultMaxTasks
	}
	if c.BlockingTimeout <= 0 {
		c.BlockingTimeout = 10 * time.Minute
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = 5 * time.Second
	}
	if c.StaleThreshold <= 0 {
		c.StaleThreshold = 30 * time.Second
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = 10 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.Retention <= 0 {
		c.Retention = 30 * time.Minute
	}
	if c.GatherPollInterval <= 0 {
		c.GatherPollInterval = 250 * time.Millisecond
	}
	if c.StoreType == "" {
		c.StoreType = "inmemory"
	}
	if c.BoltDBPath == "" {
		c.BoltDBPath = "data/guildhall.db"
	}
	return CompletedConfig{c}
}

// Dependencies holds the external collaborators required by the
// Orchestrator module.
type Dependencies struct {
	// Catalog resolves agent names to descriptors.
	Catalog runtime.CatalogResolver
	// Host runs the actual agent work.
	Host runtime.ExecutionHost
	// Memory is long-term memory, optional; without it dispatches carry no
	// recalled memories and archived learnings stay in the ledger only.
	Memory service.MemoryService
}

// Module is the top-level Orchestrator module.
//
// It exposes:
//   - Service: epic/task lifecycle, learnings, handoffs, dispatch, batch
//   - Supervisor: the stale-entry reconciler, started via Start
type Module struct {
	Service    service.OrchestratorService
	Supervisor *runtime.Supervisor

	boltDB *boltdbStore.DB // nil when using inmemory store
}

// Start launches the supervisor loop. It returns immediately; the loop stops
// when ctx is canceled.
func (m *Module) Start(ctx context.Context) {
	safego.Go(ctx, func() {
		m.Supervisor.Run(ctx)
	})
}

// Close releases resources held by the module (e.g., BoltDB handle).
func (m *Module) Close() error {
	if m.boltDB != nil {
		return m.boltDB.Close()
	}
	return nil
}

// New creates and initializes the Orchestrator module from a completed
// config. Execution handles live in memory in both storage modes; the
// ledger and, with the boltdb backend, the registry survive restarts.
func (c CompletedConfig) New(_ context.Context, deps Dependencies) (*Module, error) {
	logger.InfoX(pkg.ModuleName, "creating Orchestrator module...")

	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog dependency is required")
	}
	if deps.Host == nil {
		return nil, fmt.Errorf("execution host dependency is required")
	}

	ledger, err := ledgerfs.Open(c.WorkspaceDir, ledgerfs.WithMaxTasks(c.MaxTasks))
	if err != nil {
		return nil, fmt.Errorf("open workspace ledger at %s: %w", c.WorkspaceDir, err)
	}

	var (
		registry repo.Registry
		boltDB   *boltdbStore.DB
	)
	switch c.StoreType {
	case "boltdb":
		boltDB, err = boltdbStore.Open(c.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open boltdb at %s: %w", c.BoltDBPath, err)
		}
		registry = boltdbStore.NewRegistryStore(boltDB)
		logger.InfoX(pkg.ModuleName, "using BoltDB registry at %s", c.BoltDBPath)
	default:
		registry = inmemory.NewRegistryStore()
		logger.InfoX(pkg.ModuleName, "using in-memory registry")
	}
	executions := inmemory.NewExecutionStore()

	dispatcherOpts := []runtime.DispatcherOption{
		runtime.WithBlockingTimeout(c.BlockingTimeout),
		runtime.WithHeartbeatInterval(c.HeartbeatInterval),
		runtime.WithResultLedger(ledger),
	}
	if deps.Memory != nil {
		dispatcherOpts = append(dispatcherOpts, runtime.WithMemoryFinder(deps.Memory))
	}
	dispatcher := runtime.NewDispatcher(deps.Catalog, deps.Host, registry, executions, dispatcherOpts...)

	supervisor := runtime.NewSupervisor(registry, dispatcher,
		runtime.WithTaskLedger(ledger),
		runtime.WithStaleThreshold(c.StaleThreshold),
		runtime.WithScanInterval(c.ScanInterval),
		runtime.WithMaxRetries(c.MaxRetries),
		runtime.WithRetention(c.Retention),
	)

	batch := runtime.NewBatchCoordinator(dispatcher, registry, deps.Catalog,
		runtime.WithPollInterval(c.GatherPollInterval))

	svc := service.NewOrchestratorService(ledger, ledger, ledger, registry, executions, dispatcher, batch, deps.Memory)

	logger.InfoX(pkg.ModuleName, "Orchestrator module initialized (workspace=%s, registry=%s, stale_threshold=%s, max_retries=%d)",
		c.WorkspaceDir, c.StoreType, c.StaleThreshold, c.MaxRetries)

	return &Module{
		Service:    svc,
		Supervisor: supervisor,
		boltDB:     boltDB,
	}, nil
}
