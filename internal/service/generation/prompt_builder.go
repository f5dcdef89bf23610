package generation

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"diagramlab/internal/config"
	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/prompts"
)

// visionMediaTypes are the raster formats accepted as reference images
var visionMediaTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// PromptBuilder turns an instruction plus optional reference material into a
// GenerationRequest. It has no side effects.
type PromptBuilder struct {
	profile *prompts.Profile
	params  models.SamplingParams
}

// NewPromptBuilder creates a builder for one prompt profile and sampling setup
func NewPromptBuilder(profile *prompts.Profile, params models.SamplingParams) *PromptBuilder {
	return &PromptBuilder{
		profile: profile,
		params:  params,
	}
}

// Build assembles the request. Images and examples keep their input order.
// A blank instruction falls back to the profile's default; if that is also
// blank the call is rejected.
func (b *PromptBuilder) Build(instruction string, images []models.ReferenceImage, examples []models.ReferenceExample) (*models.GenerationRequest, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" && b.profile != nil {
		instruction = strings.TrimSpace(b.profile.Instruction)
	}

	if err := validation.Validate(instruction,
		validation.Required.Error("instruction is required"),
		validation.Length(1, config.MaxInstructionLength),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.Validate(images, validation.Length(0, config.MaxReferenceImages)); err != nil {
		return nil, fmt.Errorf("%w: reference images: %v", domain.ErrValidation, err)
	}
	if err := validation.Validate(examples, validation.Length(0, config.MaxReferenceExamples)); err != nil {
		return nil, fmt.Errorf("%w: reference examples: %v", domain.ErrValidation, err)
	}

	encoded := make([]models.EncodedImage, 0, len(images))
	for i, img := range images {
		e, err := EncodeImage(img)
		if err != nil {
			return nil, fmt.Errorf("%w: reference image %d: %v", domain.ErrValidation, i+1, err)
		}
		encoded = append(encoded, e)
	}

	refs := make([]models.ReferenceExample, len(examples))
	copy(refs, examples)

	req := &models.GenerationRequest{
		Instruction: instruction,
		Images:      encoded,
		Examples:    refs,
		Params:      b.params,
	}
	if b.profile != nil {
		req.System = b.profile.System
		req.ExampleHeader = b.profile.ExampleHeader
	}

	return req, nil
}

// EncodeImage base64-encodes image bytes, sniffing the media type when absent
func EncodeImage(img models.ReferenceImage) (models.EncodedImage, error) {
	if len(img.Data) == 0 {
		return models.EncodedImage{}, fmt.Errorf("image is empty")
	}

	mediaType := img.MediaType
	if mediaType == "" {
		mediaType = http.DetectContentType(img.Data)
	}
	if !visionMediaTypes[mediaType] {
		return models.EncodedImage{}, fmt.Errorf("unsupported image type %q", mediaType)
	}

	return models.EncodedImage{
		MediaType: mediaType,
		Base64:    base64.StdEncoding.EncodeToString(img.Data),
	}, nil
}
