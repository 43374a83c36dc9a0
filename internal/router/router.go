package router

import (
	"cruce-web/internal/config"
	"cruce-web/internal/handler"
	"cruce-web/internal/models"
	"cruce-web/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the services the routes are wired to.
// ExportJobs is nil when Redis is unavailable.
type Dependencies struct {
	Config       *config.Config
	CruceService *service.CruceService
	ExportJobs   *service.ExportJobService
	Finder       handler.InstanceFinder
}

func Setup(app *fiber.App, deps Dependencies) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    deps.Config.AppName,
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Web routes (HTML)
	web := app.Group("")
	setupWebRoutes(web, deps)

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, deps)
}

func setupWebRoutes(router fiber.Router, deps Dependencies) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.Render("cruce/index", fiber.Map{
			"Title":       "Cruce",
			"AppName":     deps.Config.AppName,
			"Instances":   deps.CruceService.Instances(),
			"DateOption":  int(models.DefaultDateOption),
			"AuthEnabled": deps.Config.AuthEnabled,
		})
	})
}
