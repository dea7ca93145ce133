package config

import (
	"github.com/mverel/guildmaster/internal/guildhall/options"
)

// Config is the running configuration structure of the guildhall server.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration instance from
// completed options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
