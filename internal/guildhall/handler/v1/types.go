package v1

import (
	"time"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/entity"
)

// EpicResponse is the external view of an epic and its tasks.
type EpicResponse struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Status     string         `json:"status"`
	Outcome    string         `json:"outcome,omitempty"`
	Tasks      []TaskResponse `json:"tasks"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
	ArchivedAt string         `json:"archived_at,omitempty"`
}

// TaskResponse is the external view of a single task.
type TaskResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	DependsOn []string `json:"depends_on,omitempty"`
	AgentName string   `json:"agent_name,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// RegistryEntryResponse is the external view of a registry entry.
type RegistryEntryResponse struct {
	ID            string `json:"id"`
	AgentName     string `json:"agent_name"`
	Note          string `json:"note,omitempty"`
	Status        string `json:"status"`
	Retries       int    `json:"retries"`
	Result        string `json:"result,omitempty"`
	Error         string `json:"error,omitempty"`
	StartedAt     string `json:"started_at"`
	LastHeartbeat string `json:"last_heartbeat"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

func toEpicResponse(e *entity.Epic) EpicResponse {
	resp := EpicResponse{
		ID:        e.ID,
		Title:     e.Title,
		Status:    string(e.Status),
		Outcome:   string(e.Outcome),
		Tasks:     make([]TaskResponse, 0, len(e.Tasks)),
		CreatedAt: FormatTime(e.CreatedAt),
		UpdatedAt: FormatTime(e.UpdatedAt),
	}
	if e.ArchivedAt != nil {
		resp.ArchivedAt = FormatTime(*e.ArchivedAt)
	}
	for _, t := range e.Tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(t))
	}
	return resp
}

func toTaskResponse(t *entity.Task) TaskResponse {
	resp := TaskResponse{
		ID:        t.ID,
		Title:     t.Title,
		Status:    string(t.Status),
		DependsOn: t.DependsOn,
		AgentName: t.AgentName,
	}
	if t.Error != nil {
		resp.Error = t.Error.Error()
	}
	return resp
}

func toRegistryEntryResponse(e *entity.RegistryEntry) RegistryEntryResponse {
	resp := RegistryEntryResponse{
		ID:            e.ID,
		AgentName:     e.AgentName,
		Note:          e.Note,
		Status:        string(e.Status),
		Retries:       e.Retries,
		Result:        e.Result,
		StartedAt:     FormatTime(e.StartedAt),
		LastHeartbeat: FormatTime(e.LastHeartbeat),
	}
	if e.Error != nil {
		resp.Error = e.Error.Error()
	}
	if e.CompletedAt != nil {
		resp.CompletedAt = FormatTime(*e.CompletedAt)
	}
	return resp
}

// --- Common ---

const timeFormat = time.RFC3339

// FormatTime formats a time value for API responses.
func FormatTime(t time.Time) string {
	return t.Format(timeFormat)
}
