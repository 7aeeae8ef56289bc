package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fablewright/fablewright/internal/config"
)

// InferenceConfig is the wire form of the runtime-adjustable inference
// settings. New turns pick up changes; in-flight turns are unaffected.
type InferenceConfig struct {
	OllamaURL string `json:"ollama_url"`
	ModelName string `json:"model_name"`
}

// ConfigHandler serves GET and PUT on /v1/config.
type ConfigHandler struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewConfigHandler(cfg *config.Config, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		cfg:    cfg,
		logger: logger,
	}
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		baseURL, model := h.cfg.Inference()
		writeJSON(w, h.logger, http.StatusOK, InferenceConfig{
			OllamaURL: baseURL,
			ModelName: model,
		})

	case http.MethodPut:
		var req InferenceConfig
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body.")
			return
		}

		h.cfg.SetInference(req.OllamaURL, req.ModelName)
		baseURL, model := h.cfg.Inference()

		h.logger.Info("Inference configuration updated",
			"ollama_url", baseURL,
			"model_name", model)

		writeJSON(w, h.logger, http.StatusOK, InferenceConfig{
			OllamaURL: baseURL,
			ModelName: model,
		})

	default:
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}
