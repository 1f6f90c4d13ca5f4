package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/digisaathi/server/internal/ai"
	"github.com/digisaathi/server/internal/api"
	"github.com/digisaathi/server/internal/auth"
	"github.com/digisaathi/server/internal/database"
	"github.com/digisaathi/server/internal/ocr"
	"github.com/digisaathi/server/internal/storage"
	"github.com/digisaathi/server/pkg/config"
	"github.com/digisaathi/server/pkg/crypto"
	"github.com/digisaathi/server/pkg/queue"
	"github.com/digisaathi/server/pkg/util"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting DigiSaathi server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Schema is kept in sync at startup; reruns are no-ops
	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, document extraction disabled", "error", err)
		redisClient = nil
	}

	// Asynq client for background job enqueuing
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = queue.NewClient(&cfg.Redis)
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	generator, err := ai.NewGeminiClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout())
	if err != nil {
		logger.Error("failed to create AI client, set AI_API_KEY", "error", err)
		os.Exit(1)
	}

	ocrService := ocr.NewService(ocr.NewTesseractEngine(cfg.OCR.LanguageList()))

	// Encryptor for extracted document text at rest
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}
	if cfg.Encryption.Key == "" {
		logger.Warn("ENCRYPTION_KEY not set, using generated key - extracted text will be unreadable after restart")
	}

	// Object store for uploaded documents
	var objectStore storage.ObjectStore
	if cfg.Storage.AccessKey != "" {
		objectStore, err = storage.NewS3Store(context.Background(), &cfg.Storage)
		if err != nil {
			logger.Error("failed to create object store", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("STORAGE_ACCESS_KEY not set, using in-memory object store - uploads will be lost on restart")
		objectStore = storage.NewMemoryStore()
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:            db,
		Redis:         redisClient,
		Logger:        logger,
		JWTService:    jwtService,
		AuthService:   authService,
		Generator:     generator,
		OCRService:    ocrService,
		ObjectStore:   objectStore,
		Encryptor:     encryptor,
		AsynqClient:   asynqClient,
		RateLimitReqs: cfg.RateLimit.Requests,
		RateLimitSecs: cfg.RateLimit.WindowSeconds,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // chat turns wait on the model
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if asynqClient != nil {
		asynqClient.Close()
	}

	if redisClient != nil {
		redisClient.Close()
	}

	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
