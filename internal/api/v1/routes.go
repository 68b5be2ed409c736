package v1

import (
	"github.com/gin-gonic/gin"

	"pagewatch/internal/api/v1/live"
	"pagewatch/internal/api/v1/pages"
	"pagewatch/internal/api/v1/websites"
	"pagewatch/internal/core"
	"pagewatch/internal/events"
	"pagewatch/internal/storage"
)

// SetupRoutes configures API routes.
func SetupRoutes(routerGroup *gin.RouterGroup, engine *core.Engine, storage *storage.Storage, broker *events.Broker) {
	// Initialize handlers
	websitesHandler := websites.NewHandler(storage, engine)
	pagesHandler := pages.NewHandler(storage, engine)
	liveHandler := live.NewHandler(broker)

	// Websites management
	websitesGroup := routerGroup.Group("/websites")
	{
		websitesGroup.GET("", websitesHandler.List)
		websitesGroup.POST("", websitesHandler.Create)
		websitesGroup.GET("/:id", websitesHandler.Get)
		websitesGroup.PATCH("/:id", websitesHandler.Update)
		websitesGroup.DELETE("/:id", websitesHandler.Delete)
		websitesGroup.GET("/:id/pages", websitesHandler.Pages)
		websitesGroup.POST("/:id/pages", websitesHandler.CreatePage)
		websitesGroup.GET("/:id/checks", websitesHandler.Checks)
	}

	// Pages management
	pagesGroup := routerGroup.Group("/pages")
	{
		pagesGroup.GET("/:id", pagesHandler.Get)
		pagesGroup.PATCH("/:id", pagesHandler.Update)
		pagesGroup.DELETE("/:id", pagesHandler.Delete)
		pagesGroup.POST("/:id/check", pagesHandler.Check)
		pagesGroup.GET("/:id/checks", pagesHandler.Checks)
	}

	// Live check feed
	routerGroup.GET("/live", liveHandler.Stream)
}
