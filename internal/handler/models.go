package handler

import (
	"log/slog"
	"net/http"

	"diagramlab/internal/capabilities"
	"diagramlab/internal/config"
	"diagramlab/internal/httputil"
)

// ModelsHandler lists the models the UI can pick from
type ModelsHandler struct {
	config   *config.Config
	logger   *slog.Logger
	registry *capabilities.Registry
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, logger *slog.Logger, registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID      string          `json:"id"`
	Default bool            `json:"default"`
	Models  []ModelResponse `json:"models"`
}

// ModelResponse represents a model's capabilities for the API response
type ModelResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	ImageInput  bool   `json:"image_input"`
	MaxOutput   int    `json:"max_output,omitempty"`
}

// GetCapabilities returns the catalogued models of every configured provider
// GET /api/models
func (h *ModelsHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	providers := make([]ProviderResponse, 0)
	for _, id := range h.registry.Providers() {
		if !h.configured(id) {
			continue
		}
		models, err := h.registry.ListProviderModels(id)
		if err != nil {
			continue
		}
		providers = append(providers, convertProvider(id, id == h.config.DefaultProvider, models))
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers":     providers,
		"default_model": h.config.DefaultModel,
	})
}

// configured reports whether the provider has the credentials it needs
func (h *ModelsHandler) configured(provider string) bool {
	switch provider {
	case "openai":
		return h.config.OpenAIAPIKey != ""
	case "anthropic":
		return h.config.AnthropicAPIKey != ""
	case "lorem":
		return true
	default:
		return false
	}
}

func convertProvider(id string, isDefault bool, models []capabilities.ModelCapabilities) ProviderResponse {
	modelResponses := make([]ModelResponse, 0, len(models))
	for _, m := range models {
		modelResponses = append(modelResponses, ModelResponse{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			Description: m.Description,
			ImageInput:  m.SupportsVision,
			MaxOutput:   m.MaxOutput,
		})
	}
	return ProviderResponse{
		ID:      id,
		Default: isDefault,
		Models:  modelResponses,
	}
}
