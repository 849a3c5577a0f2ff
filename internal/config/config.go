package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration, sourced from the environment.
type Config struct {
	Env  string
	Addr string

	DatabaseURL string
	RedisAddr   string

	NeuralAPIURL     string
	NeuralAPITimeout time.Duration

	UploadDir  string
	SessionTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults for
// everything except the database URL.
func Load() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Addr:             getEnv("ADDR", ":8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		NeuralAPIURL:     getEnv("NEURAL_API_URL", "http://localhost:8050"),
		NeuralAPITimeout: time.Duration(intFromEnv("NEURAL_API_TIMEOUT_SECONDS", 60)) * time.Second,
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		SessionTTL:       time.Duration(intFromEnv("SESSION_TTL_SECONDS", 3600)) * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
