package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prazwal-bns/imageprompt-api/internal/api"
	"github.com/prazwal-bns/imageprompt-api/internal/config"
	"github.com/prazwal-bns/imageprompt-api/internal/logger"
	"github.com/prazwal-bns/imageprompt-api/internal/ratelimit"
	"github.com/prazwal-bns/imageprompt-api/internal/repository"
	"github.com/prazwal-bns/imageprompt-api/internal/service"
	"github.com/prazwal-bns/imageprompt-api/internal/storage"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	// Initialize blob storage
	blobs, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if s3, ok := blobs.(*storage.S3Storage); ok {
		if err := s3.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure storage bucket: %v", err)
		}
	}

	// Rate-limit counters: in-memory by default, Redis when configured
	// so multiple processes share one window.
	var counters ratelimit.CounterStore = ratelimit.NewMemoryStore()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		counters = ratelimit.NewRedisStore(client, "throttle:")
		log.Info("Rate-limit counters backed by Redis")
	}
	loginLimiter := ratelimit.NewLimiter(counters)
	apiLimiter := ratelimit.NewLimiter(counters)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokenRepo, loginLimiter, service.ThrottlePolicy{
		MaxAttempts: cfg.RateLimit.Login.MaxAttempts,
		Decay:       cfg.RateLimit.Login.Decay,
	})

	captioner := service.NewOpenAICaptioner(&service.CaptionerConfig{
		Model:   cfg.Captioner.Model,
		APIKey:  cfg.Captioner.APIKey,
		BaseURL: cfg.Captioner.BaseURL,
		Timeout: cfg.Captioner.Timeout,
	})

	generationService := service.NewGenerationService(generationRepo, blobs, captioner, service.GenerationConfig{
		MaxUploadBytes: cfg.Upload.MaxSizeBytes,
		CaptionTimeout: cfg.Captioner.Timeout,
	})

	// Setup router
	router := api.SetupRouter(authService, generationService, apiLimiter, cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting API server: port=%d, mode=%s", cfg.Server.Port, cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
