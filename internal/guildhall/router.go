package guildhall

import (
	"github.com/gin-gonic/gin"

	"github.com/mverel/guildmaster/internal/guildhall/handler/middleware"
	v1 "github.com/mverel/guildmaster/internal/guildhall/handler/v1"
	"github.com/mverel/guildmaster/internal/guildhall/service/orchestrator/domain/service"
)

// routerDeps holds the dependencies needed for route registration.
type routerDeps struct {
	orchestrator service.OrchestratorService
	authConfig   *middleware.AuthConfig
}

func initRouter(g *gin.Engine, deps *routerDeps) {
	installMiddleware(g, deps)
	installController(g, deps)
}

func installMiddleware(g *gin.Engine, deps *routerDeps) {
	g.Use(gin.Recovery())
	g.Use(middleware.CORS())

	if deps.authConfig != nil {
		g.Use(middleware.BearerAuth(deps.authConfig))
	}
}

func installController(g *gin.Engine, deps *routerDeps) {
	epicHandler := v1.NewEpicHandler(deps.orchestrator)
	registryHandler := v1.NewRegistryHandler(deps.orchestrator)

	// --- /v1 route group, read-only ---
	apiV1 := g.Group("/v1")
	{
		apiV1.GET("/epics/active", epicHandler.Active)
		apiV1.GET("/epics/:id", epicHandler.Get)

		apiV1.GET("/registry", registryHandler.List)
		apiV1.GET("/registry/:id", registryHandler.Get)
	}
}
