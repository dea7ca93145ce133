package guildhall

import (
	"github.com/mverel/guildmaster/internal/guildhall/config"
)

// Run assembles the engine from the configuration and serves until shutdown.
func Run(cfg *config.Config) error {
	server, err := createEngineServer(cfg)
	if err != nil {
		return err
	}

	return server.PrepareRun().Run()
}
