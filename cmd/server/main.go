package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"coursegen-backend/internal/config"
	"coursegen-backend/internal/database"
	"coursegen-backend/internal/handlers"
	"coursegen-backend/internal/logger"
	"coursegen-backend/internal/middleware"
	"coursegen-backend/internal/repository"
	"coursegen-backend/internal/router"
	"coursegen-backend/internal/services"
	"coursegen-backend/internal/websocket"
	"coursegen-backend/internal/worker"
	"coursegen-backend/migrations"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(os.Getenv("ENV"))
		boot.Fatal().Err(err).Msg("✗ Configuration invalid")
	}

	log := logger.New(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("🚀 Starting course generator backend")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("✓ PostgreSQL connected")

	// ──── Step 3: Run Database Migrations ────
	if err := database.RunMigrations(pool, migrations.FS, log); err != nil {
		log.Fatal().Err(err).Msg("✗ Database migration failed")
	}
	log.Info().Msg("✓ Database migrations applied")

	// ──── Step 4: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("✓ Redis connected")

	// ──── Step 5: Initialize Content Providers ────
	gemini, err := services.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature, cfg.GeminiConcurrentReqs, log)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Gemini client initialization failed")
	}
	defer gemini.Close()
	log.Info().Str("model", cfg.GeminiModel).Msg("✓ Gemini client initialized")

	videos := newVideoSearch(cfg, log)
	provider := services.NewGenerativeProvider(gemini, videos, cfg.VideoResults, log)

	// ──── Step 6: Initialize Services ────
	courseRepo := repository.NewCourseRepo(pool)
	events := services.NewRedisPublisher(redisClients.Queue, log)
	courseService := services.NewCourseService(courseRepo, provider, events, log)

	// ──── Step 7: Start Module Prefetch Workers ────
	var workerPool *worker.Pool
	if cfg.PrefetchModules {
		courseService.EnablePrefetch(worker.NewQueue(redisClients.Queue))
		workerPool = worker.NewPool(redisClients.Queue, courseService, events, cfg.WorkerCount, log)
		workerPool.Start()
		log.Info().Int("workers", cfg.WorkerCount).Msg("✓ Module prefetch enabled")
	}

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, log)
	log.Info().Msg("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	var jwtAuth *middleware.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
		log.Info().Msg("✓ Bearer token authentication enabled")
	}

	limiter := middleware.NewRateLimiter(cfg.GenerationRateLimit, time.Minute)
	defer limiter.Stop()

	courseHandler := handlers.NewCourseHandler(courseService, handlers.NewValidator(), log)
	r := router.New(courseHandler, wsHub, router.Options{
		JWTAuth:           jwtAuth,
		GenerationLimiter: limiter,
		FrontendURL:       cfg.FrontendURL,
		HealthChecks: map[string]router.HealthCheck{
			"postgres": pool.Ping,
			"redis":    redisClients.Ping,
		},
		Logger: log,
	})

	// Model calls routinely take tens of seconds.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("Shutting down...")
		if workerPool != nil {
			workerPool.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().Msgf("✓ Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Info().Msgf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
}

func newVideoSearch(cfg *config.Config, log zerolog.Logger) services.VideoSearcher {
	if cfg.YouTubeAPIKey == "" {
		log.Warn().Msg("YOUTUBE_API_KEY not set, video search disabled")
		return services.NewDisabledVideoSearch()
	}

	yt, err := services.NewYouTubeSearch(context.Background(), cfg.YouTubeAPIKey)
	if err != nil {
		log.Warn().Err(err).Msg("YouTube client initialization failed, video search disabled")
		return services.NewDisabledVideoSearch()
	}
	log.Info().Msg("✓ YouTube search initialized")
	return yt
}
