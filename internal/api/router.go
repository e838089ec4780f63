package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/api/middleware"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/config"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/handlers"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/hub"
	"github.com/IndhujaSadayappan/byts-phase2-sub000/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, cfg *config.Config, db store.DataStore, redisStore *store.RedisStore, broadcastHub *hub.Hub) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024))
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the portal SPA may be served from another origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Byts-Session"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(db, redisStore, broadcastHub)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/api/health", h.Health)
	r.Get("/api/stats", h.Stats)

	// Registry operations (request/response, outside the channel)
	r.Post("/api/session/init", h.InitSession)
	r.Get("/api/questions", h.ListQuestions)
	r.Post("/api/questions", h.CreateQuestion)
	r.Get("/api/questions/search", h.SearchQuestions)
	r.Patch("/api/questions/{id}/status", h.UpdateStatus)
	r.Patch("/api/questions/{id}/summary", h.SetSummary)
	r.Get("/api/questions/{id}/answers", h.ListAnswers)

	// The shared broadcast channel
	r.Get("/ws", broadcastHub.ServeWS)

	return r
}
