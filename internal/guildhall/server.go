package guildhall

import (
	"context"
	"fmt"
	"log"

	"github.com/mverel/guildmaster/internal/guildhall/config"
	"github.com/mverel/guildmaster/internal/guildhall/handler/middleware"
	"github.com/mverel/guildmaster/internal/guildhall/service/catalog"
	"github.com/mverel/guildmaster/internal/guildhall/service/host"
	"github.com/mverel/guildmaster/internal/guildhall/service/memory"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator"
	orchservice "github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
	genericapiserver "github.com/mverel/guildmaster/internal/pkg/server"
	"github.com/mverel/guildmaster/pkg/http/shutdown"
	"github.com/mverel/guildmaster/pkg/http/shutdown/posixsignal"
	"github.com/mverel/guildmaster/pkg/logger"
)

type engineServer struct {
	gs               *shutdown.GracefulShutdown
	genericAPIServer *genericapiserver.GenericAPIServer

	catalogModule      *catalog.Module
	memoryModule       *memory.Module
	orchestratorModule *orchestrator.Module

	// runCtx stops the supervisor loop when the server shuts down.
	runCtx    context.Context
	runCancel context.CancelFunc

	authToken string
}

type preparedEngineServer struct {
	*engineServer
}

func createEngineServer(cfg *config.Config) (*engineServer, error) {
	gs := shutdown.New()
	gs.AddShutdownManager(posixsignal.NewPosixSignalManager())

	genericConfig, err := buildGenericConfig(cfg)
	if err != nil {
		return nil, err
	}
	genericServer, err := genericConfig.Complete().New()
	if err != nil {
		return nil, err
	}

	// Initialize Catalog module (K8S-style: Config → Complete → New).
	catalogCfg := &catalog.Config{
		Dir:              cfg.CatalogOptions.Dir,
		DefaultNamespace: cfg.CatalogOptions.DefaultNamespace,
		DisableWatch:     cfg.CatalogOptions.DisableWatch,
	}
	catalogModule, err := catalogCfg.Complete().New(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to create Catalog module: %w", err)
	}
	logger.Info("[Guildhall] Catalog module initialized successfully")

	// Initialize Memory module. Optional: without it dispatches carry no
	// recalled memories and archived learnings stay in the ledger only.
	var (
		memoryModule *memory.Module
		memorySvc    orchservice.MemoryService
	)
	if cfg.MemoryOptions.Enabled {
		memoryCfg := &memory.Config{
			Path:       cfg.MemoryOptions.Path,
			DisableFTS: cfg.MemoryOptions.DisableFTS,
		}
		memoryModule, err = memoryCfg.Complete().New(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create Memory module: %w", err)
		}
		memorySvc = memoryModule.Service
		logger.Info("[Guildhall] Memory module initialized successfully")
	} else {
		logger.Info("[Guildhall] Memory module disabled (memory.enabled=false)")
	}

	// The loopback host completes dispatches locally. It is the only in-tree
	// execution host; remote hosts plug in through the same interface.
	var hostOpts []host.LoopbackOption
	if cfg.OrchestratorOptions.LoopbackDelay > 0 {
		hostOpts = append(hostOpts, host.WithDelay(cfg.OrchestratorOptions.LoopbackDelay))
	}
	execHost := host.NewLoopback(hostOpts...)

	// Initialize Orchestrator module (K8S-style: Config → Complete → New).
	orchCfg := &orchestrator.Config{
		WorkspaceDir:       cfg.WorkspaceOptions.Dir,
		MaxTasks:           cfg.WorkspaceOptions.MaxTasks,
		BlockingTimeout:    cfg.OrchestratorOptions.BlockingTimeout,
		HeartbeatInterval:  cfg.OrchestratorOptions.HeartbeatInterval,
		StaleThreshold:     cfg.OrchestratorOptions.StaleThreshold,
		ScanInterval:       cfg.OrchestratorOptions.ScanInterval,
		MaxRetries:         cfg.OrchestratorOptions.MaxRetries,
		Retention:          cfg.OrchestratorOptions.Retention,
		GatherPollInterval: cfg.OrchestratorOptions.GatherPollInterval,
		StoreType:          cfg.OrchestratorOptions.StoreType,
		BoltDBPath:         cfg.OrchestratorOptions.BoltDBPath,
	}
	orchestratorModule, err := orchCfg.Complete().New(context.Background(), orchestrator.Dependencies{
		Catalog: catalogModule.Catalog,
		Host:    execHost,
		Memory:  memorySvc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Orchestrator module: %w", err)
	}
	logger.Info("[Guildhall] Orchestrator module initialized successfully")

	runCtx, runCancel := context.WithCancel(context.Background())

	server := &engineServer{
		gs:                 gs,
		genericAPIServer:   genericServer,
		catalogModule:      catalogModule,
		memoryModule:       memoryModule,
		orchestratorModule: orchestratorModule,
		runCtx:             runCtx,
		runCancel:          runCancel,
		authToken:          cfg.GenericServerRunOptions.AuthToken,
	}

	return server, nil
}

func (s *engineServer) PrepareRun() preparedEngineServer {
	initRouter(s.genericAPIServer.Engine, &routerDeps{
		orchestrator: s.orchestratorModule.Service,
		authConfig:   &middleware.AuthConfig{Enabled: true, Token: s.authToken},
	})

	s.resumeFromHandoff()

	s.gs.AddShutdownCallback(shutdown.Func(func(string) error {
		// Stop the supervisor loop first so nothing re-dispatches while the
		// stores close underneath it.
		s.runCancel()
		if s.orchestratorModule != nil {
			if err := s.orchestratorModule.Close(); err != nil {
				logger.Warn("[Guildhall] orchestrator close failed: %v", err)
			}
		}
		if s.memoryModule != nil {
			if err := s.memoryModule.Close(); err != nil {
				logger.Warn("[Guildhall] memory close failed: %v", err)
			}
		}
		if s.catalogModule != nil {
			s.catalogModule.Close()
		}
		s.genericAPIServer.Close()
		return nil
	}))
	return preparedEngineServer{s}
}

// resumeFromHandoff consumes a handoff left by the previous session, if any,
// and logs its resume context so the new session starts from it.
func (s *engineServer) resumeFromHandoff() {
	svc := s.orchestratorModule.Service

	handoff, err := svc.GetHandoff(context.Background())
	if err != nil || handoff == nil {
		return
	}
	if _, err := svc.ConsumeHandoff(context.Background()); err != nil {
		logger.Warn("[Guildhall] handoff %s could not be consumed: %v", handoff.ID, err)
		return
	}

	logger.Info("[Guildhall] resuming from handoff %s: %s", handoff.ID, handoff.Summary)
	if handoff.Resume != "" {
		logger.Info("[Guildhall] resume instruction: %s", handoff.Resume)
	}
	for _, item := range handoff.OpenItems {
		logger.Info("[Guildhall] open item: %s", item)
	}
}

func (s preparedEngineServer) Run() error {
	s.orchestratorModule.Start(s.runCtx)

	// start shutdown managers
	if err := s.gs.Start(); err != nil {
		log.Fatalf("start shutdown manager failed: %s", err.Error())
	}

	return s.genericAPIServer.Run()
}

func buildGenericConfig(cfg *config.Config) (genericConfig *genericapiserver.Config, lastErr error) {
	genericConfig = genericapiserver.NewConfig()
	if lastErr = cfg.GenericServerRunOptions.ApplyTo(genericConfig); lastErr != nil {
		return
	}

	return
}
