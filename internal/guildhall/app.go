// Package guildhall hosts the task orchestration engine behind a small
// monitoring API: option parsing, module assembly and the serving loop.
package guildhall

import (
	"path/filepath"

	"github.com/mverel/guildmaster/internal/guildhall/config"
	"github.com/mverel/guildmaster/internal/guildhall/options"
	"github.com/mverel/guildmaster/pkg/app"
	"github.com/mverel/guildmaster/pkg/logger"
)

const (
	AppName = "guildhall"
)

// NewApp builds the guildhall server application.
func NewApp(basename string) *app.App {
	opts := options.NewOptions()
	application := app.NewApp("guildhall",
		basename,
		app.WithOptions(opts),
		app.WithDescription(`The guildhall runs the guild's task orchestration engine:
the workspace ledger, the agent catalog, long-term memory, the dispatch
runtime with its supervisor, and a read-only monitoring API.`),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.Options) app.RunFunc {
	return func(basename string) error {
		logger.SetLevel(opts.LogOptions.Level)
		if err := logger.InitLog(filepath.Join(opts.LogOptions.Dir, basename+".log")); err != nil {
			return err
		}
		defer logger.FlushLog()

		cfg, err := config.CreateConfigFromOptions(opts)
		if err != nil {
			return err
		}

		return Run(cfg)
	}
}
