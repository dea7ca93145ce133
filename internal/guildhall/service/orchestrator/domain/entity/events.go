package entity

import (
	"time"
)

// EventType classifies entries in an epic's execution log.
type EventType string

const (
	EventEpicCreated       EventType = "epic_created"
	EventEpicStatusChanged EventType = "epic_status_changed"
	EventEpicArchived      EventType = "epic_archived"
	EventTaskAdded         EventType = "task_added"
	EventTaskStatusChanged EventType = "task_status_changed"
	EventDispatchStarted   EventType = "dispatch_started"
	EventDispatchCompleted EventType = "dispatch_completed"
	EventDispatchFailed    EventType = "dispatch_failed"
	EventSupervisorRetry   EventType = "supervisor_retry"
	EventSupervisorFailed  EventType = "supervisor_failed"
	EventLearningAdded     EventType = "learning_added"
	EventHandoffCreated    EventType = "handoff_created"
	EventHandoffConsumed   EventType = "handoff_consumed"
)

// Event is one line of an epic's append-only execution log.
type Event struct {
	ID     string            `json:"id"`
	Type   EventType         `json:"type"`
	EpicID string            `json:"epic_id"`
	TaskID string            `json:"task_id,omitempty"`
	At     time.Time         `json:"at"`
	Detail map[string]string `json:"detail,omitempty"`
}
