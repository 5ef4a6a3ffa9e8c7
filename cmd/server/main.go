package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/stemsplit/api/internal/config"
	"github.com/stemsplit/api/internal/handler"
	"github.com/stemsplit/api/internal/middleware"
	"github.com/stemsplit/api/internal/separator"
	"github.com/stemsplit/api/internal/service"
	"github.com/stemsplit/api/internal/store"
	"github.com/stemsplit/api/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Upload and output directories must exist before anything writes to them
	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	// Pick the store backend: in-memory by default, Redis when configured
	var (
		st          store.Store = store.NewMemoryStore()
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis not available: %v", err)
		}
		st = store.NewRedisStore(redisClient)
		log.Println("Info: using Redis store")
	} else {
		log.Println("Info: using in-memory store")
	}

	validate := validator.New()

	// Services
	trackService := service.NewTrackService(st)
	jobService := service.NewJobService(st, trackService, validate)
	uploadService := service.NewUploadService(cfg.Storage.UploadDir, cfg.Storage.AllowedExtensions)

	// Worker supervisor
	supervisor := separator.New(jobService, cfg.Separator, cfg.Storage.OutputDir)

	// Handlers
	uploadHandler := handler.NewUploadHandler(uploadService, jobService, cfg.Storage.MaxUploadBytes)
	separationHandler := handler.NewSeparationHandler(jobService, trackService, uploadService, supervisor)
	mediaHandler := handler.NewMediaHandler(trackService)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1024*1024,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Range",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"store":     storeBackend(cfg),
				"separator": cfg.Separator.Binary,
			},
		})
	})

	api := app.Group("/api")
	api.Post("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour), uploadHandler.Upload)
	api.Post("/separate/:id", rateLimiter.SeparateLimit(cfg.RateLimit.SeparatePerHour), separationHandler.Separate)
	api.Post("/reset/:id", separationHandler.Reset)
	api.Get("/audio/:id", separationHandler.Status)
	api.Get("/download/track/:id/:trackType", mediaHandler.Download)
	api.Get("/stream/:id/:trackType", mediaHandler.Stream)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func storeBackend(cfg *config.Config) string {
	if cfg.Redis.Enabled {
		return "redis"
	}
	return "memory"
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return response.Error(c, code, response.CodeServiceError, message, nil)
}
