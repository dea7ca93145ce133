// Package shutdown coordinates graceful shutdown: managers watch for a
// trigger (for example a POSIX signal) and run the registered callbacks.
package shutdown

import (
	"sync"

	"github.com/mverel/guildmaster/pkg/logger"
)

// Callback runs when a shutdown is triggered. The argument names the manager
// that fired.
type Callback interface {
	OnShutdown(manager string) error
}

// Func adapts a plain function to the Callback interface.
type Func func(manager string) error

func (f Func) OnShutdown(manager string) error { return f(manager) }

// Manager watches for a shutdown trigger and reports back through
// GSInterface.StartShutdown.
type Manager interface {
	GetName() string
	Start(gs GSInterface) error
}

// GSInterface is the surface managers call back into.
type GSInterface interface {
	StartShutdown(m Manager)
}

// GracefulShutdown holds the registered managers and callbacks.
type GracefulShutdown struct {
	callbacks []Callback
	managers  []Manager
}

// New returns an empty GracefulShutdown.
func New() *GracefulShutdown {
	return &GracefulShutdown{}
}

// Start starts all registered managers.
func (gs *GracefulShutdown) Start() error {
	for _, m := range gs.managers {
		if err := m.Start(gs); err != nil {
			return err
		}
	}
	return nil
}

// AddShutdownManager registers a manager.
func (gs *GracefulShutdown) AddShutdownManager(m Manager) {
	gs.managers = append(gs.managers, m)
}

// AddShutdownCallback registers a callback to run on shutdown.
func (gs *GracefulShutdown) AddShutdownCallback(cb Callback) {
	gs.callbacks = append(gs.callbacks, cb)
}

// StartShutdown runs all callbacks concurrently and waits for them.
func (gs *GracefulShutdown) StartShutdown(m Manager) {
	logger.Info("[Shutdown] shutdown triggered by manager %s", m.GetName())

	var wg sync.WaitGroup
	for _, cb := range gs.callbacks {
		wg.Add(1)
		go func(cb Callback) {
			defer wg.Done()
			if err := cb.OnShutdown(m.GetName()); err != nil {
				logger.Error("[Shutdown] callback failed: %v", err)
			}
		}(cb)
	}
	wg.Wait()
}
