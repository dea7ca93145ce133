package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/mverel/guildmaster/pkg/logger"
)

// moduleName tags catalog log entries.
const moduleName = "catalog"

// Config holds the configuration for the Catalog module.
// Follows K8S-style: Config → Complete() → New(ctx).
type Config struct {
	// Dir is the agent definition directory (default: "data/agents").
	Dir string `json:"dir,omitempty"`

	// DefaultNamespace is assigned to definitions at the directory root
	// (default: "core").
	DefaultNamespace string `json:"default_namespace,omitempty"`

	// DisableWatch turns off the definition-file watcher; the catalog then
	// only changes on explicit Reload.
	DisableWatch bool `json:"disable_watch,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.Dir == "" {
		c.Dir = "data/agents"
	}
	if c.DefaultNamespace == "" {
		c.DefaultNamespace = DefaultNamespace
	}
	return CompletedConfig{c}
}

// Module is the top-level Catalog module.
type Module struct {
	Catalog *Catalog
}

// Close stops the definition-file watcher.
func (m *Module) Close() error {
	return m.Catalog.Close()
}

// New creates and initializes the Catalog module from a completed config.
// A missing directory is created empty rather than failing startup, so a
// fresh workspace boots and reports AGENT_NOT_FOUND until definitions land.
func (c CompletedConfig) New(_ context.Context) (*Module, error) {
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory %s: %w", c.Dir, err)
	}

	cat := Load(c.Dir, WithDefaultNamespace(c.DefaultNamespace))
	if c.DisableWatch {
		logger.InfoX(moduleName, "catalog watcher disabled")
	} else {
		cat.Watch()
	}

	return &Module{Catalog: cat}, nil
}
