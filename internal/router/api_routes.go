package router

import (
	"cruce-web/internal/handler"
	"cruce-web/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAPIRoutes(router fiber.Router, deps Dependencies) {
	// Initialize handlers
	cruceHandler := handler.NewCruceHandler(deps.CruceService)
	instanceHandler := handler.NewInstanceHandler(deps.CruceService, deps.Finder, deps.Config.DiscoveryTimeout)
	exportJobHandler := handler.NewExportJobHandler(deps.ExportJobs)

	protected := router.Group("", middleware.AuthMiddleware(deps.Config))

	// Instances
	instances := protected.Group("/instances")
	instances.Get("/", instanceHandler.List)
	instances.Get("/discover", instanceHandler.Discover)

	// Cruce report
	cruce := protected.Group("/cruce")
	cruce.Get("/", cruceHandler.Query)
	cruce.Get("/sql", cruceHandler.PreviewSQL)
	cruce.Post("/import", cruceHandler.Import)
	cruce.Get("/view", cruceHandler.View)
	cruce.Post("/recompute", cruceHandler.Recompute)
	cruce.Get("/export", cruceHandler.Export)

	// Export jobs
	jobs := cruce.Group("/export/jobs")
	jobs.Post("/", exportJobHandler.Create)
	jobs.Get("/:id", exportJobHandler.Status)
	jobs.Get("/:id/download", exportJobHandler.Download)
}
