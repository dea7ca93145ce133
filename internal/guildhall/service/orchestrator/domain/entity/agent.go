package entity

import (
	"time"
)

// AgentDescriptor describes one catalog agent: the front matter of an agent
// definition file plus its markdown body. Descriptors are immutable; catalog
// reloads swap whole snapshots.
type AgentDescriptor struct {
	// Name is the agent's short name, unique within its namespace.
	Name string `json:"name"`

	// Namespace groups related agents; it is derived from the definition
	// file's directory.
	Namespace string `json:"namespace"`

	// Description is shown in listings and in not-found suggestions.
	Description string `json:"description,omitempty"`

	// Model names the execution model the host should use, if pinned.
	Model string `json:"model,omitempty"`

	// Tools lists the tool names the agent is allowed to use.
	Tools []string `json:"tools,omitempty"`

	// Temperature overrides the host default when set.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTurns caps the agent's internal loop when set.
	MaxTurns *int `json:"max_turns,omitempty"`

	// SystemPrompt is the markdown body of the definition file.
	SystemPrompt string `json:"system_prompt"`

	// Source is the definition file the descriptor was loaded from.
	Source string `json:"source,omitempty"`

	// LoadedAt is when the descriptor entered the catalog.
	LoadedAt time.Time `json:"loaded_at"`
}

// Qualified returns the namespace-qualified agent name.
func (a *AgentDescriptor) Qualified() string {
	if a.Namespace == "" {
		return a.Name
	}
	return a.Namespace + "/" + a.Name
}

// EffectiveMaxTurns resolves the per-agent cap against a default.
func (a *AgentDescriptor) EffectiveMaxTurns(def int) int {
	if a.MaxTurns != nil && *a.MaxTurns > 0 {
		return *a.MaxTurns
	}
	return def
}
