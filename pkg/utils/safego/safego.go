// Package safego launches goroutines that log panics instead of crashing the
// process. Background work must go through Go rather than a bare go statement.
package safego

import (
	"context"
	"runtime/debug"

	"github.com/mverel/guildmaster/pkg/logger"
)

// Go runs fn on a new goroutine and recovers any panic. The context is
// accepted for call-site symmetry; fn is responsible for honoring it.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("[safego] goroutine panic recovered: %v\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}
