package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/mverel/guildmaster/internal/guildctl/cmd"
)

func main() {
	rand.New(rand.NewSource(time.Now().UnixNano()))

	command := cmd.NewDefaultGuildCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
