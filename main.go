package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"contacts/internal/app"
	"contacts/internal/config"
	"contacts/internal/database"
	"contacts/internal/logging"
	"contacts/internal/services"
	"contacts/pkg/objectstore"
	"contacts/pkg/rabbitmq"
	"contacts/pkg/redisstore"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Log.Mode, cfg.Log.File)
	defer logger.Sync()

	ctx := context.Background()

	// --- Database ---
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// --- Verification notifier ---
	var notifier services.VerificationNotifier = services.NewLogNotifier(cfg.AppBaseURL, logger.Named("notifier"))
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:    cfg.RabbitMQURL,
			Queues: []string{services.VerificationQueue},
		})
		if err != nil {
			logger.Fatal("failed to initialize RabbitMQ client", zap.Error(err))
		}
		defer mqClient.Close()
		notifier = services.NewQueueNotifier(cfg.AppBaseURL, mqClient)
	}

	// --- Rate limiter storage ---
	var limiterStorage fiber.Storage
	if cfg.Redis.Addr != "" {
		store, err := redisstore.New(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Fatal("failed to initialize redis storage", zap.Error(err))
		}
		defer store.Close()
		limiterStorage = store
	}

	// --- Avatar store ---
	avatars, err := objectstore.NewClient(ctx, objectstore.Config{
		Bucket:    cfg.Avatar.Bucket,
		AccessKey: cfg.Avatar.AccessKey,
		SecretKey: cfg.Avatar.SecretKey,
		Region:    cfg.Avatar.Region,
		Endpoint:  cfg.Avatar.Endpoint,
		PublicURL: cfg.Avatar.PublicURL,
	})
	if err != nil {
		logger.Fatal("failed to initialize avatar store", zap.Error(err))
	}

	server := app.New(cfg, app.Deps{
		DB:             db,
		Log:            logger,
		Notifier:       notifier,
		Avatars:        avatars,
		LimiterStorage: limiterStorage,
	})

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		if err := server.Listen(cfg.AppPort); err != nil {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	logger.Info("shutting down server")

	if err := server.Shutdown(); err != nil {
		logger.Error("error during fiber shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
}
