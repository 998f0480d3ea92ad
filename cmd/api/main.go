package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"poovi/internal/api"
	"poovi/internal/auth"
	"poovi/internal/billing"
	"poovi/internal/config"
	"poovi/internal/database"
	"poovi/internal/portfolio"
	"poovi/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	renderer, err := portfolio.NewRenderer()
	if err != nil {
		log.Fatalf("init renderer: %v", err)
	}

	billingClient := billing.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	if !billingClient.Configured() {
		logger.Warn("razorpay credentials missing, billing order endpoint disabled")
	}

	deps := api.Deps{
		Config:   cfg,
		Renderer: renderer,
		Billing:  billingClient,
		Logger:   logger,
	}

	switch cfg.Store.Backend {
	case "file":
		deps.Store = portfolio.NewFileStore(cfg.Store.FilePath)
		logger.Info("portfolio store ready", slog.String("backend", "file"), slog.String("path", cfg.Store.FilePath))

	case "postgres":
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		if err := db.AutoMigrate(&database.User{}, &database.Profile{}, &database.Portfolio{}); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
		logger.Info("database migrated")

		deps.DB = db
		deps.Store = portfolio.NewGormStore(db)

		authService, err := auth.NewAuthServiceFromFiles(
			cfg.Auth.PrivateKeyFile,
			cfg.Auth.PublicKeyFile,
			time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
			time.Duration(cfg.Auth.RefreshTTLHours)*time.Hour,
		)
		if err != nil {
			log.Fatalf("init auth service: %v", err)
		}
		deps.AuthService = authService

		redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		deps.RedisClient = redisClient

		deps.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})

		storageClient, err := storage.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("init storage client: %v", err)
		}
		deps.StorageClient = storageClient
		logger.Info("portfolio store ready", slog.String("backend", "postgres"))

	default:
		log.Fatalf("unknown store backend: %q", cfg.Store.Backend)
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, deps)

	address := fmt.Sprintf(":%d", cfg.API.Port)
	logger.Info("api listening", slog.String("address", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
