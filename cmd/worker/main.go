package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/digisaathi/server/internal/database"
	"github.com/digisaathi/server/internal/documents"
	"github.com/digisaathi/server/internal/ocr"
	"github.com/digisaathi/server/internal/storage"
	"github.com/digisaathi/server/internal/tasks"
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

	logger.Info("starting DigiSaathi worker")

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Encryptor must use the same key as the server or extracted text
	// written here cannot be read back
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		logger.Error("failed to create encryptor", "error", err)
		os.Exit(1)
	}

	// Object store holding the uploaded documents
	var objectStore storage.ObjectStore
	if cfg.Storage.AccessKey != "" {
		objectStore, err = storage.NewS3Store(context.Background(), &cfg.Storage)
		if err != nil {
			logger.Error("failed to create object store", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("STORAGE_ACCESS_KEY not set, using in-memory object store")
		objectStore = storage.NewMemoryStore()
	}

	docService := documents.NewService(db, objectStore, encryptor, logger)
	ocrService := ocr.NewService(ocr.NewTesseractEngine(cfg.OCR.LanguageList()))

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 10)

	// Create task handler
	handler := tasks.NewHandler(db, logger, docService, ocrService, encryptor)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Handle shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker...")
		srv.Shutdown()
		cancel()
	}()

	logger.Info("worker started, waiting for tasks...")

	// Start the server
	if err := srv.Run(mux); err != nil {
		logger.Error("worker error", "error", err)
	}

	// Wait for context cancellation
	<-ctx.Done()

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("worker stopped")
}
