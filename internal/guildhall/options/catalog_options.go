package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// CatalogOptions locates the agent catalog.
type CatalogOptions struct {
	// Dir is the directory holding agent definition files. (default: data/agents)
	Dir string `json:"dir" mapstructure:"dir"`
	// DefaultNamespace is where unqualified agent names resolve. (default: core)
	DefaultNamespace string `json:"default-namespace" mapstructure:"default-namespace"`
	// DisableWatch turns off hot reloading of definitions. (default: false)
	DisableWatch bool `json:"disable-watch" mapstructure:"disable-watch"`
}

// NewCatalogOptions returns the default catalog options.
func NewCatalogOptions() *CatalogOptions {
	return &CatalogOptions{
		Dir:              "data/agents",
		DefaultNamespace: "core",
	}
}

// Validate checks CatalogOptions fields.
func (o *CatalogOptions) Validate() []error {
	var errs []error

	if o.Dir == "" {
		errs = append(errs, fmt.Errorf("catalog dir is required"))
	}
	if o.DefaultNamespace == "" {
		errs = append(errs, fmt.Errorf("catalog default namespace is required"))
	}
	if strings.ContainsRune(o.DefaultNamespace, '/') {
		errs = append(errs, fmt.Errorf("catalog default namespace %q must not contain '/'", o.DefaultNamespace))
	}

	return errs
}

// AddFlags adds flags for the catalog options.
func (o *CatalogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Dir, "catalog.dir", o.Dir, "Directory holding agent definition files.")
	fs.StringVar(&o.DefaultNamespace, "catalog.default-namespace", o.DefaultNamespace, "Namespace unqualified agent names resolve in.")
	fs.BoolVar(&o.DisableWatch, "catalog.disable-watch", o.DisableWatch, "Disable hot reloading of agent definitions.")
}
