package server

import (
	"github.com/gin-gonic/gin"
)

// Config holds the configuration of a GenericAPIServer.
type Config struct {
	Mode            string
	Healthz         bool
	InsecureServing *InsecureServingInfo
}

// InsecureServingInfo holds the plain HTTP listen address.
type InsecureServingInfo struct {
	Address string
}

// NewConfig returns a Config with sane defaults.
func NewConfig() *Config {
	return &Config{
		Mode:    gin.ReleaseMode,
		Healthz: true,
	}
}

// CompletedConfig is a Config that has been through Complete.
type CompletedConfig struct {
	*Config
}

// Complete fills in any fields that must have valid data.
func (c *Config) Complete() CompletedConfig {
	if c.InsecureServing == nil {
		c.InsecureServing = &InsecureServingInfo{Address: "127.0.0.1:11777"}
	}
	return CompletedConfig{c}
}

// New builds the GenericAPIServer from a completed config.
func (c CompletedConfig) New() (*GenericAPIServer, error) {
	gin.SetMode(c.Mode)

	s := &GenericAPIServer{
		Engine:          gin.New(),
		healthz:         c.Healthz,
		insecureServing: c.InsecureServing,
	}
	s.setup()
	s.installAPIs()

	return s, nil
}
