package cmd

import (
	"github.com/spf13/pflag"

	"github.com/mverel/guildmaster/internal/guildctl/cmd/util"
)

var globalEngineOptions = util.NewEngineOptions()

func addGlobalFlags(flags *pflag.FlagSet) {
	flags.StringVar(&globalEngineOptions.WorkspaceDir,
		"workspace",
		globalEngineOptions.WorkspaceDir,
		"Root directory of the workspace ledger")
	flags.StringVar(&globalEngineOptions.AgentsDir,
		"agents-dir",
		globalEngineOptions.AgentsDir,
		"Directory holding agent definition files")
	flags.StringVar(&globalEngineOptions.StoreType,
		"store-type",
		globalEngineOptions.StoreType,
		"Registry backend: boltdb or inmemory")
	flags.StringVar(&globalEngineOptions.BoltDBPath,
		"boltdb-path",
		globalEngineOptions.BoltDBPath,
		"File path of the BoltDB registry (when --store-type=boltdb)")
	flags.StringVar(&globalEngineOptions.MemoryPath,
		"memory-path",
		globalEngineOptions.MemoryPath,
		"File path of the long-term memory store")
	flags.BoolVar(&globalEngineOptions.NoMemory,
		"no-memory",
		globalEngineOptions.NoMemory,
		"Run without long-term memory")
}

// GetEngineOptions returns the engine wiring parsed from the global flags.
func GetEngineOptions() *util.EngineOptions {
	return globalEngineOptions
}
