// Package pkg holds shared constants for the orchestrator module.
package pkg

// ModuleName tags orchestrator log entries.
const ModuleName = "orchestrator"
