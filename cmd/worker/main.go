package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cruce-web/internal/config"
	"cruce-web/internal/database"
	"cruce-web/internal/queries"
	"cruce-web/internal/repository"
	"cruce-web/internal/service"
	"cruce-web/internal/utils"
	"cruce-web/internal/worker"

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

	registry := database.NewRegistry(cfg)
	defer registry.Close()

	// Initialize Redis
	redisClient, err := database.NewRedis(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	source := queries.NewTemplateSource(cfg.TemplatePath)
	if _, err := source.Template(); err != nil {
		log.Fatalf("Failed to load query template: %v", err)
	}
	builder := repository.NewQueryBuilder(source, cfg.MinQuantity)
	cruceService := service.NewCruceService(cfg, registry, builder, service.NewRedisTableCache(redisClient))

	// The worker never enqueues, so the job service gets no queue
	store := service.NewRedisJobStore(redisClient, cfg.CacheTTL)
	exportJobs := service.NewExportJobService(cruceService, store, nil, cfg.ExportPath, cfg.QueryTimeout)

	// Create Asynq server
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithError(err).WithField("task", task.Type()).Error("Task failed")
			}),
			Logger: log,
		},
	)

	// Register task handlers
	mux := asynq.NewServeMux()
	worker.RegisterHandlers(mux, exportJobs)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("Gracefully shutting down worker...")
		srv.Shutdown()
	}()

	// Start worker
	log.Infof("Worker starting with concurrency: %d", cfg.WorkerConcurrency)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	log.Info("Worker exited")
}
