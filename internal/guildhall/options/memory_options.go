package options

import (
	"fmt"

	"github.com/spf13/pflag"
)

// MemoryOptions configures the long-term memory service. Memory is
// optional: with it disabled, dispatches carry no recalled memories and
// archived learnings stay in the ledger only.
type MemoryOptions struct {
	// Enabled controls whether the memory service is wired in. (default: true)
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path is the SQLite database file. (default: data/memory.db)
	Path string `json:"path" mapstructure:"path"`
	// DisableFTS skips the FTS5 index and uses substring search. (default: false)
	DisableFTS bool `json:"disable-fts" mapstructure:"disable-fts"`
}

// NewMemoryOptions returns the default memory options.
func NewMemoryOptions() *MemoryOptions {
	return &MemoryOptions{
		Enabled: true,
		Path:    "data/memory.db",
	}
}

// Validate checks MemoryOptions fields.
func (o *MemoryOptions) Validate() []error {
	var errs []error

	if o.Enabled && o.Path == "" {
		errs = append(errs, fmt.Errorf("memory path is required when memory is enabled"))
	}

	return errs
}

// AddFlags adds flags for the memory options.
func (o *MemoryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Enabled, "memory.enabled", o.Enabled, "Wire in the long-term memory service.")
	fs.StringVar(&o.Path, "memory.path", o.Path, "SQLite database file for long-term memory.")
	fs.BoolVar(&o.DisableFTS, "memory.disable-fts", o.DisableFTS, "Use substring search instead of the FTS5 index.")
}
