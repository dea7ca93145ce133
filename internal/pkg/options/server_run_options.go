package options

import (
	"fmt"
	"net"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/mverel/guildmaster/internal/pkg/server"
)

// ServerRunOptions configures the HTTP monitoring surface.
type ServerRunOptions struct {
	// Mode sets the gin run mode: debug, test or release. (default: release)
	Mode string `json:"mode" mapstructure:"mode"`
	// Healthz controls installation of the /healthz readiness route. (default: true)
	Healthz bool `json:"healthz" mapstructure:"healthz"`
	// BindAddress is the IP the server listens on. (default: 127.0.0.1)
	BindAddress string `json:"bind-address" mapstructure:"bind-address"`
	// BindPort is the port the server listens on. (default: 11777)
	BindPort int `json:"bind-port" mapstructure:"bind-port"`
	// AuthToken enables bearer authentication when non-empty. Loopback
	// clients are exempt.
	AuthToken string `json:"auth-token" mapstructure:"auth-token"`
}

// NewServerRunOptions returns the default serving options.
func NewServerRunOptions() *ServerRunOptions {
	return &ServerRunOptions{
		Mode:        gin.ReleaseMode,
		Healthz:     true,
		BindAddress: "127.0.0.1",
		BindPort:    11777,
	}
}

// ApplyTo fills the generic server Config from the options.
func (o *ServerRunOptions) ApplyTo(c *server.Config) error {
	c.Mode = o.Mode
	c.Healthz = o.Healthz
	c.InsecureServing = &server.InsecureServingInfo{
		Address: net.JoinHostPort(o.BindAddress, fmt.Sprintf("%d", o.BindPort)),
	}
	return nil
}

// Validate checks ServerRunOptions fields.
func (o *ServerRunOptions) Validate() []error {
	var errs []error

	switch o.Mode {
	case gin.DebugMode, gin.TestMode, gin.ReleaseMode:
	default:
		errs = append(errs, fmt.Errorf("invalid server mode %q", o.Mode))
	}
	if o.BindPort < 1 || o.BindPort > 65535 {
		errs = append(errs, fmt.Errorf("bind port %d must be between 1 and 65535", o.BindPort))
	}
	if net.ParseIP(o.BindAddress) == nil {
		errs = append(errs, fmt.Errorf("invalid bind address %q", o.BindAddress))
	}

	return errs
}

// AddFlags adds flags for the serving options.
func (o *ServerRunOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Mode, "server.mode", o.Mode, "Server mode: debug, test or release.")
	fs.BoolVar(&o.Healthz, "server.healthz", o.Healthz, "Install the /healthz route.")
	fs.StringVar(&o.BindAddress, "server.bind-address", o.BindAddress, "IP address the monitoring API listens on.")
	fs.IntVar(&o.BindPort, "server.bind-port", o.BindPort, "Port the monitoring API listens on.")
	fs.StringVar(&o.AuthToken, "server.auth-token", o.AuthToken, "Bearer token required on non-loopback requests; empty disables auth.")
}
