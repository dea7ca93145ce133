// Package posixsignal provides a shutdown manager that triggers on SIGINT or
// SIGTERM and exits the process once the callbacks complete.
package posixsignal

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mverel/guildmaster/pkg/http/shutdown"
)

// Name is the manager name reported to callbacks.
const Name = "PosixSignalManager"

// PosixSignalManager implements shutdown.Manager.
type PosixSignalManager struct {
	signals []os.Signal
}

// NewPosixSignalManager watches the given signals, defaulting to SIGINT and
// SIGTERM.
func NewPosixSignalManager(sig ...os.Signal) *PosixSignalManager {
	if len(sig) == 0 {
		sig = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	return &PosixSignalManager{signals: sig}
}

func (m *PosixSignalManager) GetName() string { return Name }

// Start blocks on the signal channel in a goroutine; on delivery it runs the
// shutdown callbacks and exits.
func (m *PosixSignalManager) Start(gs shutdown.GSInterface) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, m.signals...)

	go func() {
		<-ch
		gs.StartShutdown(m)
		os.Exit(0)
	}()

	return nil
}
