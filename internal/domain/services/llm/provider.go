package llm

import (
	"context"

	"diagramlab/internal/domain/models"
)

// LLMProvider defines the interface that all generation backends implement.
// Implementations return the raw text answer; parsing happens downstream.
//
// Errors must be *domain.BackendError so callers can tell an unavailable
// backend (network, auth, deadline) from one that rejected the request.
// Providers must not retry on their own.
type LLMProvider interface {
	// GenerateResponse performs one generation call and returns the raw text.
	GenerateResponse(ctx context.Context, req *models.GenerationRequest) (string, error)

	// Name returns the provider name (e.g., "openai", "anthropic")
	Name() string

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}
