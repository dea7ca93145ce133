package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Register SQLite3 driver

	"github.com/mverel/guildmaster/internal/guildhall/service/memory/store"
	"github.com/mverel/guildmaster/pkg/logger"
)

// moduleName tags memory log entries.
const moduleName = "memory"

// Config holds the configuration for the Memory module.
// Follows K8S-style: Config → Complete() → New(ctx).
type Config struct {
	// Path is the SQLite database file (default: "data/memory.db").
	Path string `json:"path,omitempty"`

	// DisableFTS skips the FTS5 index; search then always uses substring
	// matching.
	DisableFTS bool `json:"disable_fts,omitempty"`
}

// CompletedConfig is the validated and completed configuration.
type CompletedConfig struct {
	*Config
}

// Complete validates and fills defaults.
func (c *Config) Complete() CompletedConfig {
	if c.Path == "" {
		c.Path = "data/memory.db"
	}
	return CompletedConfig{c}
}

// Module is the top-level Memory module.
type Module struct {
	Service *Service

	db *sql.DB
}

// Close releases the database handle.
func (m *Module) Close() error {
	return m.db.Close()
}

// New creates and initializes the Memory module from a completed config.
func (c CompletedConfig) New(_ context.Context) (*Module, error) {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", c.Path+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schemaResult, err := store.EnsureSchema(db, !c.DisableFTS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if schemaResult.FTSError != "" {
		logger.WarnX(moduleName, "FTS5 unavailable, using substring search: %s", schemaResult.FTSError)
	}

	logger.InfoX(moduleName, "memory store opened at %s (fts=%v)", c.Path, schemaResult.FTSAvailable)

	return &Module{
		Service: &Service{
			db:           db,
			ftsAvailable: schemaResult.FTSAvailable,
			now:          time.Now,
		},
		db: db,
	}, nil
}
