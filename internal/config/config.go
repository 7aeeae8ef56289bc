package config

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Config holds all runtime configuration, loaded from environment
// variables with sensible local-development defaults.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	OllamaURL string // base URL of the inference server
	ModelName string

	RedisURL   string
	SessionTTL time.Duration

	mu sync.RWMutex
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		ModelName:   getEnv("MODEL_NAME", "qwen3:8b"),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		SessionTTL:  parseDuration(getEnv("SESSION_TTL", "168h")),
	}
}

// Inference returns the current inference server base URL and model.
// The pair is read together so a concurrent update can't split them.
func (c *Config) Inference() (baseURL string, model string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.OllamaURL, c.ModelName
}

// SetInference updates the inference server base URL and model at
// runtime. Empty values leave the current setting unchanged.
func (c *Config) SetInference(baseURL string, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if baseURL != "" {
		c.OllamaURL = baseURL
	}
	if model != "" {
		c.ModelName = model
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 168 * time.Hour
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
