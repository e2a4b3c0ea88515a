package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Redis
	RedisURL string `envconfig:"REDIS_URL" required:"true"`

	// JWT; empty leaves the API open
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Gemini AI
	GeminiAPIKey         string  `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel          string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	GeminiTemperature    float32 `envconfig:"GEMINI_TEMPERATURE" default:"0.4"`
	GeminiConcurrentReqs int     `envconfig:"GEMINI_CONCURRENT_REQUESTS" default:"5"`

	// YouTube; empty disables video search
	YouTubeAPIKey string `envconfig:"YOUTUBE_API_KEY"`
	VideoResults  int    `envconfig:"VIDEO_RESULTS" default:"2"`

	// Generation
	GenerationRateLimit int  `envconfig:"GENERATION_RATE_LIMIT" default:"20"`
	PrefetchModules     bool `envconfig:"PREFETCH_MODULES" default:"false"`
	WorkerCount         int  `envconfig:"WORKER_COUNT" default:"2"`

	// Frontend
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:5173"`
}

// Load reads configuration from the environment, after loading a .env file
// if one exists.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GeminiConcurrentReqs < 1 {
		cfg.GeminiConcurrentReqs = 1
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
