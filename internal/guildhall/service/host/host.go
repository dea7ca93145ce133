// Package host holds execution host adapters. An adapter owns everything
// specific to its transport, including the quirks of its error surface: by
// the time a result reaches the orchestrator, a returned error always means
// the work was not done.
package host

import (
	"context"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// moduleName tags host log entries.
const moduleName = "host"

// Host runs one agent's work to completion and returns its raw output.
// Implementations classify their transport's response-path quirks through
// ClassifyResult before returning.
type Host interface {
	CreateChildExecution(ctx context.Context, agent *entity.AgentDescriptor, payload string) (string, error)
}
