package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities describes one model a provider can serve
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// SupportsVision means the model accepts image content blocks
	SupportsVision bool `yaml:"supports_vision" json:"supports_vision"`

	// MaxOutput caps max_tokens; 0 means unknown
	MaxOutput int `yaml:"max_output" json:"max_output"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider string              `yaml:"provider" json:"provider"`
	Models   []ModelCapabilities `yaml:"-" json:"models"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML keeps the model order of the YAML file
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Provider string                       `yaml:"provider"`
		Models   map[string]ModelCapabilities `yaml:"models"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	p.Provider = raw.Provider

	// Mapping nodes alternate key, value
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			id := modelsNode.Content[j].Value
			if model, ok := raw.Models[id]; ok {
				model.ID = id
				p.Models = append(p.Models, model)
			}
		}
	}
	return nil
}
