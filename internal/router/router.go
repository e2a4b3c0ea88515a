package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"coursegen-backend/internal/handlers"
	"coursegen-backend/internal/middleware"
	"coursegen-backend/internal/websocket"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	// JWTAuth guards /api/v1 when set.
	JWTAuth *middleware.JWTAuth
	// GenerationLimiter throttles the endpoints that call the model.
	GenerationLimiter *middleware.RateLimiter
	FrontendURL       string
	HealthChecks      map[string]HealthCheck
	Logger            zerolog.Logger
}

func New(courseHandler *handlers.CourseHandler, wsHub *websocket.Hub, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/health", healthHandler(opts.HealthChecks))

	generationLimit := func(next http.Handler) http.Handler { return next }
	if opts.GenerationLimiter != nil {
		generationLimit = opts.GenerationLimiter.Middleware
	}

	r.Route("/api/v1", func(r chi.Router) {
		// The socket authenticates with a token query parameter.
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			if opts.JWTAuth != nil {
				r.Use(opts.JWTAuth.Middleware)
			}

			// ──── Generation (rate limited) ────
			r.Group(func(r chi.Router) {
				r.Use(generationLimit)
				r.Post("/generate-roadmap", courseHandler.GenerateRoadmap)
				r.Post("/courses/{courseId}/generate-module", courseHandler.GenerateModule)
				r.Post("/deep-dive", courseHandler.DeepDive)
				r.Post("/search-module", courseHandler.SearchModule)
				r.Post("/generate-quiz", courseHandler.GenerateQuiz)
			})

			r.Post("/fetch-videos", courseHandler.FetchVideos)

			// ──── Courses ────
			r.Get("/courses", courseHandler.List)
			r.Get("/courses/{id}", courseHandler.Get)
			r.Delete("/courses/{id}", courseHandler.Delete)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": overall,
			"checks": results,
		})
	}
}
