// Package options assembles the guildhall server's option groups: workspace,
// orchestrator, catalog, memory, serving and log. Each group binds its own
// flags and config keys; the app skeleton loads them from flags, config file
// and environment in that order.
package options

import (
	genericoptions "github.com/mverel/guildmaster/internal/pkg/options"
	"github.com/mverel/guildmaster/pkg/utils/cliflag"
	"github.com/mverel/guildmaster/pkg/utils/json"
)

// Options is the full set of guildhall server options.
type Options struct {
	WorkspaceOptions        *WorkspaceOptions                `json:"workspace"    mapstructure:"workspace"`
	OrchestratorOptions     *OrchestratorOptions             `json:"orchestrator" mapstructure:"orchestrator"`
	CatalogOptions          *CatalogOptions                  `json:"catalog"      mapstructure:"catalog"`
	MemoryOptions           *MemoryOptions                   `json:"memory"       mapstructure:"memory"`
	GenericServerRunOptions *genericoptions.ServerRunOptions `json:"server"       mapstructure:"server"`
	LogOptions              *genericoptions.LogOptions       `json:"log"          mapstructure:"log"`
}

// NewOptions returns Options with every group at its defaults.
func NewOptions() *Options {
	return &Options{
		WorkspaceOptions:        NewWorkspaceOptions(),
		OrchestratorOptions:     NewOrchestratorOptions(),
		CatalogOptions:          NewCatalogOptions(),
		MemoryOptions:           NewMemoryOptions(),
		GenericServerRunOptions: genericoptions.NewServerRunOptions(),
		LogOptions:              genericoptions.NewLogOptions(),
	}
}

// Flags returns the option groups as named flag sets.
func (o *Options) Flags() (fss cliflag.NamedFlagSets) {
	o.WorkspaceOptions.AddFlags(fss.FlagSet("workspace"))
	o.OrchestratorOptions.AddFlags(fss.FlagSet("orchestrator"))
	o.CatalogOptions.AddFlags(fss.FlagSet("catalog"))
	o.MemoryOptions.AddFlags(fss.FlagSet("memory"))
	o.GenericServerRunOptions.AddFlags(fss.FlagSet("server"))
	o.LogOptions.AddFlags(fss.FlagSet("log"))
	return fss
}

// Validate collects validation failures from every group.
func (o *Options) Validate() []error {
	var errs []error

	errs = append(errs, o.WorkspaceOptions.Validate()...)
	errs = append(errs, o.OrchestratorOptions.Validate()...)
	errs = append(errs, o.CatalogOptions.Validate()...)
	errs = append(errs, o.MemoryOptions.Validate()...)
	errs = append(errs, o.GenericServerRunOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)

	return errs
}

// Complete fills defaults that depend on other options. Nothing to derive
// today; the groups default themselves.
func (o *Options) Complete() error {
	return nil
}

func (o *Options) String() string {
	data, _ := json.Marshal(o)

	return string(data)
}
