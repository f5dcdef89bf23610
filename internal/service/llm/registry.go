package llm

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	domainllm "diagramlab/internal/domain/services/llm"
)

// ProviderSource creates providers by name. *ProviderFactory is the
// production implementation; tests substitute stubs.
type ProviderSource interface {
	GetProvider(providerName string) (domainllm.LLMProvider, error)
}

// ProviderRegistry resolves provider/model pairs to GenerationClients and
// caches them so each provider is created once.
type ProviderRegistry struct {
	source          ProviderSource
	clientConfig    ClientConfig
	defaultProvider string
	defaultModel    string
	cache           map[string]*GenerationClient
	logger          *slog.Logger
	mu              sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(source ProviderSource, clientConfig ClientConfig, defaultProvider, defaultModel string, logger *slog.Logger) *ProviderRegistry {
	return &ProviderRegistry{
		source:          source,
		clientConfig:    clientConfig,
		defaultProvider: defaultProvider,
		defaultModel:    defaultModel,
		cache:           make(map[string]*GenerationClient),
		logger:          logger,
	}
}

// nativePrefixes maps model families to the provider that serves them
// natively. Only used to pick a provider when the caller named none.
var nativePrefixes = []struct{ prefix, provider string }{
	{"claude-", "anthropic"},
	{"lorem-", "lorem"},
	{"gpt-", "openai"},
	{"o1", "openai"},
	{"o3", "openai"},
	{"o4", "openai"},
}

// knownProviders are the names accepted as a "provider/" model prefix.
var knownProviders = map[string]bool{"anthropic": true, "openai": true, "lorem": true}

// routeModel splits a model string into provider and model when the
// provider can be told from it. A "provider/model" form only counts when
// the head is a provider name, so gateway ids like "meta-llama/llama-3.2"
// pass through whole. Returns an empty provider when nothing matched.
func routeModel(model string) (string, string) {
	if head, rest, ok := strings.Cut(model, "/"); ok && knownProviders[strings.ToLower(head)] && rest != "" {
		return strings.ToLower(head), rest
	}
	lower := strings.ToLower(model)
	for _, np := range nativePrefixes {
		if strings.HasPrefix(lower, np.prefix) {
			return np.provider, model
		}
	}
	return "", model
}

// Resolve picks the provider and model for a request. An explicit provider
// wins; otherwise it is routed from the model name, falling back to the
// default provider. The chosen provider has the final say on the model, so
// OpenAI-compatible gateways accept names no prefix table knows.
func (r *ProviderRegistry) Resolve(provider, model string) (*GenerationClient, string, error) {
	if model == "" {
		model = r.defaultModel
	}
	if provider == "" {
		provider, model = routeModel(model)
		if provider == "" {
			provider = r.defaultProvider
		}
	}

	client, err := r.GetClient(provider)
	if err != nil {
		return nil, "", err
	}
	if !client.Provider().SupportsModel(model) {
		return nil, "", fmt.Errorf("model %q is not supported by provider %q", model, provider)
	}
	return client, model, nil
}

// GetClient returns the cached client for a provider, creating it on first use.
func (r *ProviderRegistry) GetClient(provider string) (*GenerationClient, error) {
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}

	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another goroutine may have created it while we waited for the lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	p, err := r.source.GetProvider(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	client := NewGenerationClient(p, r.clientConfig, r.logger)
	r.cache[provider] = client
	return client, nil
}

// Validate checks the registry can serve its default provider.
// Called at startup to fail fast if misconfigured.
func (r *ProviderRegistry) Validate() error {
	if r.source == nil {
		return fmt.Errorf("provider factory is not configured")
	}
	if _, _, err := r.Resolve(r.defaultProvider, r.defaultModel); err != nil {
		return fmt.Errorf("default provider unusable: %w", err)
	}
	return nil
}
