package capabilities

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry is the read-only model catalogue, loaded once at startup
type Registry struct {
	providers map[string]*ProviderCapabilities
}

// NewRegistry loads every embedded provider file
func NewRegistry() (*Registry, error) {
	entries, err := configFiles.ReadDir("config")
	if err != nil {
		return nil, fmt.Errorf("failed to list capability files: %w", err)
	}

	r := &Registry{providers: make(map[string]*ProviderCapabilities)}
	for _, entry := range entries {
		data, err := configFiles.ReadFile("config/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		if err := r.Load(data); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
	}
	return r, nil
}

// Load adds one provider document, replacing any earlier one for the same provider
func (r *Registry) Load(data []byte) error {
	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return err
	}
	if providerCaps.Provider == "" {
		return fmt.Errorf("provider name is required")
	}
	r.providers[providerCaps.Provider] = &providerCaps
	return nil
}

// Lookup returns the capabilities of a model, or false if it is not catalogued
func (r *Registry) Lookup(provider, model string) (*ModelCapabilities, bool) {
	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, false
	}
	for i := range providerCaps.Models {
		if providerCaps.Models[i].ID == model {
			return &providerCaps.Models[i], true
		}
	}
	return nil, false
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML)
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return providerCaps.Models, nil
}

// Providers returns the catalogued provider names, sorted
func (r *Registry) Providers() []string {
	providers := make([]string, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
