package options

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// WorkspaceOptions locates the durable workspace ledger.
type WorkspaceOptions struct {
	// Dir is the root directory of the workspace ledger. (default: data/workspace)
	Dir string `json:"dir" mapstructure:"dir"`
	// MaxTasks caps the number of tasks an epic may hold. (default: 7)
	MaxTasks int `json:"max-tasks" mapstructure:"max-tasks"`
}

// NewWorkspaceOptions returns the default workspace options.
func NewWorkspaceOptions() *WorkspaceOptions {
	return &WorkspaceOptions{
		Dir:      "data/workspace",
		MaxTasks: entity.DefaultMaxTasks,
	}
}

// Validate checks WorkspaceOptions fields.
func (o *WorkspaceOptions) Validate() []error {
	var errs []error

	if o.Dir == "" {
		errs = append(errs, fmt.Errorf("workspace dir is required"))
	}
	if o.MaxTasks < 1 {
		errs = append(errs, fmt.Errorf("workspace max-tasks %d must be at least 1", o.MaxTasks))
	}

	return errs
}

// AddFlags adds flags for the workspace options.
func (o *WorkspaceOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "workspace.dir", o.Dir, "Root directory of the workspace ledger.")
	fs.IntVar(&o.MaxTasks, "workspace.max-tasks", o.MaxTasks, "Maximum number of tasks per epic.")
}
