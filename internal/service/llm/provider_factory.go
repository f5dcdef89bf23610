package llm

import (
	"fmt"

	"diagramlab/internal/config"
	domainllm "diagramlab/internal/domain/services/llm"
	"diagramlab/internal/service/llm/providers/anthropic"
	"diagramlab/internal/service/llm/providers/lorem"
	"diagramlab/internal/service/llm/providers/openai"
)

// ProviderFactory creates LLM provider instances from configuration
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "openai" - GPT models via any OpenAI-compatible endpoint (OPENAI_BASE_URL)
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - Mock provider for development (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (domainllm.LLMProvider, error) {
	switch providerName {
	case "openai":
		return f.createOpenAIProvider()
	case "anthropic":
		return f.createAnthropicProvider()
	case "lorem":
		return lorem.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

func (f *ProviderFactory) createOpenAIProvider() (domainllm.LLMProvider, error) {
	if f.config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	provider, err := openai.NewProvider(f.config.OpenAIAPIKey, openai.WithBaseURL(f.config.OpenAIBaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}
	return provider, nil
}

func (f *ProviderFactory) createAnthropicProvider() (domainllm.LLMProvider, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}
