package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/pkg/core"
	"github.com/mverel/guildmaster/pkg/errorx"
)

// RegistryHandler serves the read-only registry endpoints.
type RegistryHandler struct {
	svc service.OrchestratorService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(svc service.OrchestratorService) *RegistryHandler {
	return &RegistryHandler{svc: svc}
}

// List handles GET /v1/registry.
func (h *RegistryHandler) List(c *gin.Context) {
	entries, err := h.svc.ListRegistryEntries(c.Request.Context())
	if err != nil {
		core.WriteResponse(c, errorx.WrapC(err, ErrRegistryList, "list registry entries"), nil)
		return
	}

	resp := make([]RegistryEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toRegistryEntryResponse(e))
	}
	core.WriteResponse(c, nil, gin.H{"data": resp})
}

// Get handles GET /v1/registry/:id.
func (h *RegistryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	entry, err := h.svc.GetRegistryEntry(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errno.ErrEntryNotFound) {
			core.WriteResponse(c, errorx.WrapC(err, ErrEntryNotFound, "registry entry %q not found", id), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrEntryRead, "read registry entry %q", id), nil)
		return
	}
	core.WriteResponse(c, nil, toRegistryEntryResponse(entry))
}
