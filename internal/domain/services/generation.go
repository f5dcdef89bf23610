package services

import (
	"context"

	"diagramlab/internal/domain/models"
)

// GenerationService runs the build -> generate -> parse pipeline.
type GenerationService interface {
	// BuildRequest assembles a GenerationRequest from the caller's input,
	// resolving stored reference examples and configured reference images.
	BuildRequest(ctx context.Context, req *GenerateVariantsRequest) (*models.GenerationRequest, error)

	// GenerateVariants builds the request, issues up to Count attempts and
	// parses each answer. Failed attempts are dropped, not fatal.
	GenerateVariants(ctx context.Context, req *GenerateVariantsRequest) (*GenerateVariantsResult, error)
}

// ReferenceImageInput is a caller-supplied reference image (base64 on the wire)
type ReferenceImageInput struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// GenerateVariantsRequest is the input of one user "generate" action.
type GenerateVariantsRequest struct {
	Instruction         string                `json:"instruction"`
	Profile             string                `json:"profile"`
	Count               int                   `json:"count"`
	Provider            string                `json:"provider"`
	Model               string                `json:"model"`
	ReferenceExampleIDs []string              `json:"reference_example_ids"`
	ReferenceImages     []ReferenceImageInput `json:"reference_images"`

	// SampleReferences is how many stored examples to add at random.
	// Nil means the configured default; 0 disables sampling.
	SampleReferences *int `json:"sample_references"`

	// IncludeConfiguredImages adds the images from REFERENCE_IMAGES_DIR
	// after any caller-supplied ones. Nil means true.
	IncludeConfiguredImages *bool `json:"include_configured_images"`

	// RequireDiagram drops answers without a diagram fragment. Nil means true.
	RequireDiagram *bool `json:"require_diagram"`
}

// GenerateVariantsResult reports how many of the requested attempts survived
type GenerateVariantsResult struct {
	Variants  []models.GenerationResult `json:"variants"`
	Requested int                       `json:"requested"`
	Succeeded int                       `json:"succeeded"`
	Dropped   int                       `json:"dropped"`
}
