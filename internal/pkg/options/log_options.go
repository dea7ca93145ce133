package options

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// LogOptions configures process logging.
type LogOptions struct {
	// Level is the minimum level to emit. (default: info)
	Level string `json:"level" mapstructure:"level"`
	// Dir is the directory log files are written to. (default: logs)
	Dir string `json:"dir" mapstructure:"dir"`
}

// NewLogOptions returns the default log options.
func NewLogOptions() *LogOptions {
	return &LogOptions{
		Level: "info",
		Dir:   "logs",
	}
}

// Validate checks LogOptions fields.
func (o *LogOptions) Validate() []error {
	var errs []error

	if _, err := logrus.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", o.Level))
	}

	return errs
}

// AddFlags adds flags for the log options.
func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn or error.")
	fs.StringVar(&o.Dir, "log.dir", o.Dir, "Directory log files are written to.")
}
