package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/mverel/guildmaster/internal/guildhall"
)

func main() {
	guildhall.NewApp("guildhall").Run()
}
