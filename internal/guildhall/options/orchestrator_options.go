package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// OrchestratorOptions tunes the dispatch runtime: blocking waits, worker
// heartbeats, the supervisor's staleness policy and the registry backend.
type OrchestratorOptions struct {
	// BlockingTimeout bounds a blocking dispatch. (default: 10m)
	BlockingTimeout time.Duration `json:"blocking-timeout" mapstructure:"blocking-timeout"`
	// HeartbeatInterval is the background worker heartbeat cadence. (default: 5s)
	HeartbeatInterval time.Duration `json:"heartbeat-interval" mapstructure:"heartbeat-interval"`
	// StaleThreshold is how long an entry may go without a heartbeat before
	// the supervisor intervenes. (default: 30s)
	StaleThreshold time.Duration `json:"stale-threshold" mapstructure:"stale-threshold"`
	// ScanInterval is the supervisor's scan cadence. (default: 10s)
	ScanInterval time.Duration `json:"scan-interval" mapstructure:"scan-interval"`
	// MaxRetries is how many times a stale entry is re-dispatched before it
	// fails for good. (default: 2)
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`
	// Retention is how long settled registry entries survive the sweep.
	// (default: 30m)
	Retention time.Duration `json:"retention" mapstructure:"retention"`
	// GatherPollInterval is the batch coordinator's poll cadence. (default: 250ms)
	GatherPollInterval time.Duration `json:"gather-poll-interval" mapstructure:"gather-poll-interval"`
	// StoreType selects the registry backend: "inmemory" or "boltdb".
	// (default: boltdb, so background work survives restarts)
	StoreType string `json:"store-type" mapstructure:"store-type"`
	// BoltDBPath is the BoltDB file used when StoreType is "boltdb".
	// (default: data/guildhall.db)
	BoltDBPath string `json:"boltdb-path" mapstructure:"boltdb-path"`
	// LoopbackDelay makes the loopback host take this long per execution,
	// for demos and load shaping. (default: 0)
	LoopbackDelay time.Duration `json:"loopback-delay" mapstructure:"loopback-delay"`
}

// NewOrchestratorOptions returns the default orchestrator options.
func NewOrchestratorOptions() *OrchestratorOptions {
	return &OrchestratorOptions{
		BlockingTimeout:    10 * time.Minute,
		HeartbeatInterval:  5 * time.Second,
		StaleThreshold:     30 * time.Second,
		ScanInterval:       10 * time.Second,
		MaxRetries:         2,
		Retention:          30 * time.Minute,
		GatherPollInterval: 250 * time.Millisecond,
		StoreType:          "boltdb",
		BoltDBPath:         "data/guildhall.db",
	}
}

// Validate checks OrchestratorOptions fields.
func (o *OrchestratorOptions) Validate() []error {
	var errs []error

	switch o.StoreType {
	case "inmemory", "boltdb":
	default:
		errs = append(errs, fmt.Errorf("invalid store type %q, must be 'inmemory' or 'boltdb'", o.StoreType))
	}
	if o.StoreType == "boltdb" && o.BoltDBPath == "" {
		errs = append(errs, fmt.Errorf("boltdb-path is required for the boltdb store"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max-retries %d must not be negative", o.MaxRetries))
	}
	if o.StaleThreshold <= 0 {
		errs = append(errs, fmt.Errorf("stale-threshold must be positive"))
	}
	if o.ScanInterval <= 0 {
		errs = append(errs, fmt.Errorf("scan-interval must be positive"))
	}

	return errs
}

// AddFlags adds flags for the orchestrator options.
func (o *OrchestratorOptions) AddFlags(fs *pflag.FlagSet) {
	fs.DurationVar(&o.BlockingTimeout, "orchestrator.blocking-timeout", o.BlockingTimeout, "Upper bound on a blocking dispatch.")
	fs.DurationVar(&o.HeartbeatInterval, "orchestrator.heartbeat-interval", o.HeartbeatInterval, "Background worker heartbeat cadence.")
	fs.DurationVar(&o.StaleThreshold, "orchestrator.stale-threshold", o.StaleThreshold, "Silence after which a background entry counts as stale.")
	fs.DurationVar(&o.ScanInterval, "orchestrator.scan-interval", o.ScanInterval, "Supervisor scan cadence.")
	fs.IntVar(&o.MaxRetries, "orchestrator.max-retries", o.MaxRetries, "Re-dispatches of a stale entry before it fails for good.")
	fs.DurationVar(&o.Retention, "orchestrator.retention", o.Retention, "How long settled registry entries survive the sweep.")
	fs.DurationVar(&o.GatherPollInterval, "orchestrator.gather-poll-interval", o.GatherPollInterval, "Batch gather poll cadence.")
	fs.StringVar(&o.StoreType, "orchestrator.store-type", o.StoreType, "Registry backend: 'inmemory' or 'boltdb'.")
	fs.StringVar(&o.BoltDBPath, "orchestrator.boltdb-path", o.BoltDBPath, "BoltDB file for the boltdb registry backend.")
	fs.DurationVar(&o.LoopbackDelay, "orchestrator.loopback-delay", o.LoopbackDelay, "Artificial delay per loopback host execution.")
}
