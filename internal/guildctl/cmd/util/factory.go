package util

import (
	"context"
	"fmt"

	"github.com/mverel/guildmaster/internal/guildhall/service/catalog"
	"github.com/mverel/guildmaster/internal/guildhall/service/host"
	"github.com/mverel/guildmaster/internal/guildhall/service/memory"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
)

// EngineOptions selects the workspace a guildctl invocation operates on.
// Values come from the root command's persistent flags.
type EngineOptions struct {
	WorkspaceDir string
	AgentsDir    string
	StoreType    string
	BoltDBPath   string
	MemoryPath   string
	NoMemory     bool
}

// NewEngineOptions returns options pointing at the conventional ./data
// layout. The registry defaults to boltdb, unlike the server: a CLI
// invocation exits after every command, so handles must live in a file to
// mean anything across invocations.
func NewEngineOptions() *EngineOptions {
	return &EngineOptions{
		WorkspaceDir: "data/workspace",
		AgentsDir:    "data/agents",
		StoreType:    "boltdb",
		BoltDBPath:   "data/guildhall.db",
		MemoryPath:   "data/memory.db",
	}
}

// Factory assembles the in-process engine guildctl subcommands run against.
//
// guildctl embeds the engine rather than calling the HTTP surface: the
// monitoring API is read-only, so mutating commands open the workspace
// directly. The BoltDB file lock rejects an invocation while a server holds
// the same registry.
type Factory interface {
	// Engine opens the workspace and wires an orchestrator around it. The
	// caller must Close the engine before the process exits so the registry
	// lock and the memory store are released.
	Engine(ctx context.Context) (*Engine, error)
}

// Engine bundles the modules a single guildctl invocation talks to.
type Engine struct {
	Service service.OrchestratorService

	runCancel context.CancelFunc

	orchestrator *orchestrator.Module
	memory       *memory.Module
	catalog      *catalog.Module
}

// Start launches the supervisor so waited dispatches get heartbeat
// monitoring and stale-entry recovery. Read-only commands skip it: a scan
// would re-dispatch stale entries left behind by a dead server.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.runCancel = context.WithCancel(ctx)
	e.orchestrator.Start(ctx)
}

// Close stops the supervisor and releases every store the engine holds.
func (e *Engine) Close() error {
	if e.runCancel != nil {
		e.runCancel()
	}
	err := e.orchestrator.Close()
	if e.memory != nil {
		if merr := e.memory.Close(); err == nil {
			err = merr
		}
	}
	if cerr := e.catalog.Close(); err == nil {
		err = cerr
	}
	return err
}

type defaultFactory struct {
	opts *EngineOptions
}

// NewDefaultFactory returns a Factory that opens the workspace named by
// opts on every Engine call.
func NewDefaultFactory(opts *EngineOptions) Factory {
	return &defaultFactory{opts: opts}
}

func (f *defaultFactory) Engine(ctx context.Context) (*Engine, error) {
	// The watcher is pointless for a one-shot process.
	catalogCfg := catalog.Config{Dir: f.opts.AgentsDir, DisableWatch: true}
	catalogModule, err := catalogCfg.Complete().New(ctx)
	if err != nil {
		return nil, fmt.Errorf("open agent catalog at %s: %w", f.opts.AgentsDir, err)
	}

	var (
		memoryModule *memory.Module
		memorySvc    service.MemoryService
	)
	if !f.opts.NoMemory {
		memoryCfg := memory.Config{Path: f.opts.MemoryPath}
		memoryModule, err = memoryCfg.Complete().New(ctx)
		if err != nil {
			_ = catalogModule.Close()
			return nil, fmt.Errorf("open memory store at %s: %w", f.opts.MemoryPath, err)
		}
		memorySvc = memoryModule.Service
	}

	orchCfg := orchestrator.Config{
		WorkspaceDir: f.opts.WorkspaceDir,
		StoreType:    f.opts.StoreType,
		BoltDBPath:   f.opts.BoltDBPath,
	}
	module, err := orchCfg.Complete().New(ctx, orchestrator.Dependencies{
		Catalog: catalogModule.Catalog,
		Host:    host.NewLoopback(),
		Memory:  memorySvc,
	})
	if err != nil {
		if memoryModule != nil {
			_ = memoryModule.Close()
		}
		_ = catalogModule.Close()
		return nil, err
	}

	return &Engine{
		Service:      module.Service,
		orchestrator: module,
		memory:       memoryModule,
		catalog:      catalogModule,
	}, nil
}
