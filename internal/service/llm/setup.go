package llm

import (
	"fmt"
	"log/slog"

	"diagramlab/internal/config"
)

// SetupProviders initializes the provider factory and registry for routing.
// Returns a configured ProviderRegistry or an error if the default provider
// cannot be created.
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*ProviderRegistry, error) {
	// Create provider factory with config (manages API keys, creates providers)
	providerFactory := NewProviderFactory(cfg)

	registry := NewProviderRegistry(providerFactory, ClientConfig{
		Concurrency: cfg.GenerationConcurrency,
		RatePerSec:  cfg.GenerationRatePerSec,
		Timeout:     cfg.GenerationTimeout,
	}, cfg.DefaultProvider, cfg.DefaultModel, logger)

	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("provider registry validation failed: %w", err)
	}

	// Log available providers based on config
	if cfg.OpenAIAPIKey != "" {
		logger.Info("provider available", "name", "openai", "base_url", cfg.OpenAIBaseURL)
	} else {
		logger.Warn("OPENAI_API_KEY not set - OpenAI provider not available")
	}
	if cfg.AnthropicAPIKey != "" {
		logger.Info("provider available", "name", "anthropic", "models", "claude-*")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set - Anthropic provider not available")
	}
	logger.Info("provider available", "name", "lorem", "models", "lorem-*")

	logger.Info("provider registry initialized",
		"default_provider", cfg.DefaultProvider,
		"default_model", cfg.DefaultModel,
		"concurrency", cfg.GenerationConcurrency,
		"rate_per_sec", cfg.GenerationRatePerSec,
	)

	return registry, nil
}
