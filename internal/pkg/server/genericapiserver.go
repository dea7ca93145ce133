// Package server provides the generic HTTP server the guildhall monitoring
// API runs on: a gin engine plus lifecycle routes and graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mverel/guildmaster/internal/pkg/core"
	"github.com/mverel/guildmaster/pkg/logger"
	"github.com/mverel/guildmaster/pkg/version"
)

// GenericAPIServer wraps a gin engine with an HTTP listener.
type GenericAPIServer struct {
	*gin.Engine

	healthz         bool
	insecureServing *InsecureServingInfo
	insecureServer  *http.Server
}

func (s *GenericAPIServer) setup() {
	gin.DebugPrintRouteFunc = func(httpMethod, absolutePath, handlerName string, nuHandlers int) {
		logger.Debug("[GenericAPIServer] %-6s %-30s --> %s (%d handlers)", httpMethod, absolutePath, handlerName, nuHandlers)
	}
}

func (s *GenericAPIServer) installAPIs() {
	if s.healthz {
		s.GET("/healthz", func(c *gin.Context) {
			core.WriteResponse(c, nil, map[string]string{"status": "ok"})
		})
	}

	s.GET("/version", func(c *gin.Context) {
		core.WriteResponse(c, nil, version.Get())
	})
}

// Run starts serving and blocks until the listener stops.
func (s *GenericAPIServer) Run() error {
	s.insecureServer = &http.Server{
		Addr:    s.insecureServing.Address,
		Handler: s,
	}

	logger.Info("[GenericAPIServer] serving on %s", s.insecureServing.Address)
	if err := s.insecureServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the listener down, allowing in-flight requests 10 seconds to
// complete.
func (s *GenericAPIServer) Close() {
	if s.insecureServer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.insecureServer.Shutdown(ctx); err != nil {
		logger.Warn("[GenericAPIServer] shutdown failed: %v", err)
	}
}
