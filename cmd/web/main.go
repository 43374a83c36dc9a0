package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cruce-web/internal/config"
	"cruce-web/internal/database"
	"cruce-web/internal/discovery"
	"cruce-web/internal/queries"
	"cruce-web/internal/repository"
	"cruce-web/internal/router"
	"cruce-web/internal/service"
	"cruce-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/hibiken/asynq"
)

func main() {
	log := utils.GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	utils.SetLogLevel(cfg.LogLevel)
	if !cfg.MinQuantityPinned {
		log.Warnf("CRUCE_MIN_QUANTITY is not set, transfers with quantity above %d are reported", cfg.MinQuantity)
	}

	// Connection pools are opened lazily per instance
	registry := database.NewRegistry(cfg)
	defer registry.Close()

	source := queries.NewTemplateSource(cfg.TemplatePath)
	if _, err := source.Template(); err != nil {
		log.Fatalf("Failed to load query template: %v", err)
	}
	builder := repository.NewQueryBuilder(source, cfg.MinQuantity)

	// Initialize Redis (optional - for caching and background jobs)
	var cache service.TableCache
	var exportJobs *service.ExportJobService
	redisClient, err := database.NewRedis(context.Background(), cfg)
	if err != nil {
		log.Warnf("Failed to connect to Redis: %v", err)
		log.Warn("Application will continue without Redis (imports cached in memory, export jobs disabled)")
		cache = service.NewMemoryTableCache()
	} else {
		defer redisClient.Close()
		cache = service.NewRedisTableCache(redisClient)
	}

	cruceService := service.NewCruceService(cfg, registry, builder, cache)

	if redisClient != nil {
		asynqClient := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
		defer asynqClient.Close()
		store := service.NewRedisJobStore(redisClient, cfg.CacheTTL)
		exportJobs = service.NewExportJobService(cruceService, store, asynqClient, cfg.ExportPath, cfg.QueryTimeout)
	}

	// Initialize template engine
	engine := html.New("./views", ".html")
	engine.Reload(cfg.AppEnv == "development")

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        engine,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Setup routes
	router.Setup(app, router.Dependencies{
		Config:       cfg,
		CruceService: cruceService,
		ExportJobs:   exportJobs,
		Finder:       discovery.Discoverer{Addr: discovery.BroadcastAddr},
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := fmt.Sprintf(":%s", cfg.AppPort)
	log.WithField("instances", len(cfg.Instances)).Infof("Server starting on %s", port)
	if err := app.Listen(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Info("Server exited")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := utils.StatusFor(err)
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		message = e.Message
	}

	// Check if request expects JSON
	if c.Accepts("application/json") != "" {
		return c.Status(code).JSON(utils.Response{
			Success: false,
			Message: message,
			Error:   err.Error(),
		})
	}

	// Return HTML error page
	return c.Status(code).Render("error", fiber.Map{
		"Code":    code,
		"Message": message,
	})
}
