// Package core writes uniform API responses: data on success, a coded error
// body otherwise.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mverel/guildmaster/pkg/errorx"
	"github.com/mverel/guildmaster/pkg/logger"
)

// ErrResponse is the error body returned to clients. Reference is omitted
// unless the coder provides one.
type ErrResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// WriteResponse writes data with HTTP 200 when err is nil; otherwise it maps
// err through the errorx coder registry.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		logger.Warn("[Core] request failed: %v", err)
		coder := errorx.ParseCoder(err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   coder.String(),
			Reference: coder.Reference(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}
