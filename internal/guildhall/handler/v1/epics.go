package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/pkg/errno"
	"github.com/mverel/guildmaster/internal/pkg/core"
	"github.com/mverel/guildmaster/pkg/errorx"
)

// EpicHandler serves the read-only epic endpoints.
type EpicHandler struct {
	svc service.OrchestratorService
}

// NewEpicHandler creates a new EpicHandler.
func NewEpicHandler(svc service.OrchestratorService) *EpicHandler {
	return &EpicHandler{svc: svc}
}

// Active handles GET /v1/epics/active.
func (h *EpicHandler) Active(c *gin.Context) {
	epic, err := h.svc.GetActiveEpic(c.Request.Context())
	if err != nil {
		if errors.Is(err, errno.ErrNoActiveEpic) {
			core.WriteResponse(c, errorx.WrapC(err, ErrNoActiveEpic, "no active epic"), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrEpicRead, "read active epic"), nil)
		return
	}
	if epic == nil {
		core.WriteResponse(c, errorx.WrapC(errno.ErrNoActiveEpic, ErrNoActiveEpic, "no active epic"), nil)
		return
	}
	core.WriteResponse(c, nil, toEpicResponse(epic))
}

// Get handles GET /v1/epics/:id. Archived epics resolve too.
func (h *EpicHandler) Get(c *gin.Context) {
	id := c.Param("id")
	epic, err := h.svc.GetEpic(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errno.ErrEpicNotFound) {
			core.WriteResponse(c, errorx.WrapC(err, ErrEpicNotFound, "epic %q not found", id), nil)
			return
		}
		core.WriteResponse(c, errorx.WrapC(err, ErrEpicRead, "read epic %q", id), nil)
		return
	}
	core.WriteResponse(c, nil, toEpicResponse(epic))
}
