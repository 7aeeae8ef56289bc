package config

import (
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected default environment development, got %s", cfg.Environment)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("Expected default Ollama URL, got %s", cfg.OllamaURL)
	}
	if cfg.ModelName != "qwen3:8b" {
		t.Errorf("Expected default model qwen3:8b, got %s", cfg.ModelName)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("Expected default Redis URL, got %s", cfg.RedisURL)
	}
	if cfg.SessionTTL != 168*time.Hour {
		t.Errorf("Expected default TTL 168h, got %v", cfg.SessionTTL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MODEL_NAME", "llama3:8b")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.ModelName != "llama3:8b" {
		t.Errorf("Expected model llama3:8b, got %s", cfg.ModelName)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected TTL 24h, got %v", cfg.SessionTTL)
	}
	if cfg.Environment != "production" {
		t.Errorf("Expected environment production, got %s", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.expected {
			t.Errorf("parseLogLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestParseDuration_InvalidFallsBack(t *testing.T) {
	if got := parseDuration("not-a-duration"); got != 168*time.Hour {
		t.Errorf("Expected fallback TTL, got %v", got)
	}
}

func TestConfig_SetInference(t *testing.T) {
	cfg := &Config{
		OllamaURL: "http://localhost:11434",
		ModelName: "qwen3:8b",
	}

	cfg.SetInference("http://other:11434", "")
	baseURL, model := cfg.Inference()
	if baseURL != "http://other:11434" {
		t.Errorf("Expected updated URL, got %s", baseURL)
	}
	if model != "qwen3:8b" {
		t.Errorf("Expected model unchanged, got %s", model)
	}

	cfg.SetInference("", "mistral:7b")
	baseURL, model = cfg.Inference()
	if baseURL != "http://other:11434" {
		t.Errorf("Expected URL unchanged, got %s", baseURL)
	}
	if model != "mistral:7b" {
		t.Errorf("Expected updated model, got %s", model)
	}
}

func TestConfig_InferenceConcurrentAccess(t *testing.T) {
	cfg := &Config{
		OllamaURL: "http://localhost:11434",
		ModelName: "qwen3:8b",
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg.SetInference("http://a:11434", "m1")
			_, _ = cfg.Inference()
		}()
	}
	wg.Wait()

	baseURL, model := cfg.Inference()
	if baseURL != "http://a:11434" || model != "m1" {
		t.Errorf("Unexpected final config: %s / %s", baseURL, model)
	}
}
