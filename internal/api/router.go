package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/digisaathi/server/internal/ai"
	"github.com/digisaathi/server/internal/api/handlers"
	"github.com/digisaathi/server/internal/api/middleware"
	"github.com/digisaathi/server/internal/auth"
	"github.com/digisaathi/server/internal/chat"
	"github.com/digisaathi/server/internal/documents"
	"github.com/digisaathi/server/internal/ocr"
	"github.com/digisaathi/server/internal/storage"
	"github.com/digisaathi/server/pkg/crypto"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	Generator      ai.Generator
	OCRService     *ocr.Service
	ObjectStore    storage.ObjectStore
	Encryptor      *crypto.Encryptor
	AsynqClient    *asynq.Client
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow localhost in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize services
	chatService := chat.NewService(cfg.DB, cfg.Generator, cfg.Logger)
	docService := documents.NewService(cfg.DB, cfg.ObjectStore, cfg.Encryptor, cfg.Logger)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	userHandler := handlers.NewUserHandler(cfg.AuthService)
	chatHandler := handlers.NewChatHandler(chatService, cfg.AuthService)
	ocrHandler := handlers.NewOCRHandler(cfg.OCRService)
	documentHandler := handlers.NewDocumentHandler(docService, cfg.AsynqClient, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints
		r.Post("/users", userHandler.Create)
		r.Post("/auth/login", userHandler.Login)
		r.Post("/auth/logout", userHandler.Logout)
		r.Get("/health", healthHandler.Health)
		r.Get("/ready", healthHandler.Ready)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))

			r.Get("/users/me", userHandler.Me)

			// Each chat turn costs a model call, so cap per-user throughput
			// tighter than the global limit.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByUser(20, 60))
				r.Post("/chat", chatHandler.Chat)
			})
			r.Get("/chat/history", chatHandler.History)

			r.Post("/ocr/upload", ocrHandler.Upload)

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", documentHandler.List)
				r.Post("/", documentHandler.Upload)
				r.Get("/{id}", documentHandler.Get)
			})
		})
	})

	return &Router{r}
}
