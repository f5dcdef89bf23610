package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"diagramlab/internal/capabilities"
	"diagramlab/internal/config"
	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/domain/services"
	"diagramlab/internal/prompts"
	"diagramlab/internal/service/llm"
)

// ClientResolver picks the generation client and concrete model for a
// provider/model pair. *llm.ProviderRegistry implements it.
type ClientResolver interface {
	Resolve(provider, model string) (*llm.GenerationClient, string, error)
}

// ModelCatalog reports what a model can do. *capabilities.Registry implements it.
type ModelCatalog interface {
	Lookup(provider, model string) (*capabilities.ModelCapabilities, bool)
}

// ServiceConfig carries the generation defaults
type ServiceConfig struct {
	DefaultProfile      string
	DefaultCount        int
	Temperature         float64
	MaxTokens           int
	ReferenceSampleSize int
	ParserStrict        bool

	// ReferenceImages are the configured images, already loaded
	ReferenceImages []models.ReferenceImage

	// Models gates image input and caps MaxTokens. Nil, or a model
	// missing from the catalogue, skips both checks.
	Models ModelCatalog

	// Rand drives reference sampling. Nil seeds a fresh generator.
	Rand *rand.Rand
}

// generationService implements services.GenerationService
type generationService struct {
	prompts   *prompts.Registry
	providers ClientResolver
	examples  services.ExampleService
	parser    ResponseParser
	cfg       ServiceConfig
	logger    *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates a new generation service
func NewService(
	promptRegistry *prompts.Registry,
	providers ClientResolver,
	examples services.ExampleService,
	cfg ServiceConfig,
	logger *slog.Logger,
) services.GenerationService {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.DefaultCount < 1 {
		cfg.DefaultCount = 1
	}

	return &generationService{
		prompts:   promptRegistry,
		providers: providers,
		examples:  examples,
		parser:    ResponseParser{Strict: cfg.ParserStrict},
		cfg:       cfg,
		logger:    logger,
		rng:       rng,
	}
}

// BuildRequest assembles the GenerationRequest without calling the backend
func (s *generationService) BuildRequest(ctx context.Context, req *services.GenerateVariantsRequest) (*models.GenerationRequest, error) {
	genReq, _, err := s.prepare(ctx, req)
	return genReq, err
}

// GenerateVariants runs build -> generate -> parse. Attempts that fail, or
// that lack a diagram when one is required, are dropped from the result.
func (s *generationService) GenerateVariants(ctx context.Context, req *services.GenerateVariantsRequest) (*services.GenerateVariantsResult, error) {
	count := req.Count
	if count == 0 {
		count = s.cfg.DefaultCount
	}
	if err := validation.Validate(count, validation.Min(1), validation.Max(config.MaxVariants)); err != nil {
		return nil, fmt.Errorf("%w: count: %v", domain.ErrValidation, err)
	}

	genReq, client, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("generating variants",
		"provider", client.Provider().Name(),
		"model", genReq.Params.Model,
		"count", count,
		"images", len(genReq.Images),
		"examples", len(genReq.Examples),
	)

	texts, err := client.GenerateN(ctx, genReq, count)
	if err != nil {
		return nil, err
	}

	requireDiagram := boolOr(req.RequireDiagram, true)
	variants := make([]models.GenerationResult, 0, len(texts))
	var malformed error
	for i, text := range texts {
		result, err := s.parser.Parse(text)
		if err != nil {
			s.logger.Warn("dropping unparseable variant", "index", i, "error", err)
			malformed = err
			continue
		}
		if requireDiagram && !result.HasDiagram {
			s.logger.Debug("dropping variant without diagram", "index", i)
			continue
		}
		variants = append(variants, result)
	}

	if len(variants) == 0 && malformed != nil {
		return nil, malformed
	}

	s.logger.Info("variants generated",
		"requested", count,
		"answered", len(texts),
		"kept", len(variants),
	)

	return &services.GenerateVariantsResult{
		Variants:  variants,
		Requested: count,
		Succeeded: len(variants),
		Dropped:   count - len(variants),
	}, nil
}

// prepare resolves the profile, backend and reference material, then builds the request
func (s *generationService) prepare(ctx context.Context, req *services.GenerateVariantsRequest) (*models.GenerationRequest, *llm.GenerationClient, error) {
	profileName := strings.TrimSpace(req.Profile)
	if profileName == "" {
		profileName = s.cfg.DefaultProfile
	}
	profile, err := s.prompts.Get(profileName)
	if err != nil {
		return nil, nil, err
	}

	client, model, err := s.providers.Resolve(req.Provider, req.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	images := make([]models.ReferenceImage, 0, len(req.ReferenceImages)+len(s.cfg.ReferenceImages))
	for _, img := range req.ReferenceImages {
		images = append(images, models.ReferenceImage{MediaType: img.MediaType, Data: img.Data})
	}
	if boolOr(req.IncludeConfiguredImages, true) {
		images = append(images, s.cfg.ReferenceImages...)
	}

	maxTokens := s.cfg.MaxTokens
	if caps, ok := s.lookupModel(client.Provider().Name(), model); ok {
		if len(images) > 0 && !caps.SupportsVision {
			return nil, nil, fmt.Errorf("%w: model %q does not accept reference images", domain.ErrValidation, model)
		}
		if caps.MaxOutput > 0 && maxTokens > caps.MaxOutput {
			maxTokens = caps.MaxOutput
		}
	}

	examples, err := s.referenceExamples(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	builder := NewPromptBuilder(profile, models.SamplingParams{
		Model:       model,
		Temperature: s.cfg.Temperature,
		MaxTokens:   maxTokens,
	})
	genReq, err := builder.Build(req.Instruction, images, examples)
	if err != nil {
		return nil, nil, err
	}
	return genReq, client, nil
}

// referenceExamples returns the explicitly requested examples in request
// order, followed by randomly sampled ones not already included
func (s *generationService) referenceExamples(ctx context.Context, req *services.GenerateVariantsRequest) ([]models.ReferenceExample, error) {
	seen := make(map[string]bool, len(req.ReferenceExampleIDs))
	refs := make([]models.ReferenceExample, 0, len(req.ReferenceExampleIDs))

	for _, id := range req.ReferenceExampleIDs {
		if seen[id] {
			continue
		}
		example, err := s.examples.GetExample(ctx, id)
		if err != nil {
			return nil, err
		}
		if !example.Diagram.IsSVG() {
			return nil, fmt.Errorf("%w: reference example %q has a raster diagram", domain.ErrValidation, id)
		}
		seen[id] = true
		refs = append(refs, toReference(example))
	}

	sampleSize := s.cfg.ReferenceSampleSize
	if req.SampleReferences != nil {
		sampleSize = *req.SampleReferences
	}
	if sampleSize <= 0 {
		return refs, nil
	}

	// Oversample by the explicit count so overlap does not shrink the sample
	sampled, err := s.examples.SampleExamples(ctx, sampleSize+len(seen), s.pick)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return refs, nil
		}
		return nil, err
	}
	added := 0
	for i := range sampled {
		if added == sampleSize {
			break
		}
		if seen[sampled[i].ID] {
			continue
		}
		seen[sampled[i].ID] = true
		refs = append(refs, toReference(&sampled[i]))
		added++
	}
	return refs, nil
}

func (s *generationService) lookupModel(provider, model string) (*capabilities.ModelCapabilities, bool) {
	if s.cfg.Models == nil {
		return nil, false
	}
	return s.cfg.Models.Lookup(provider, model)
}

// pick returns a uniform index in [0, n) from the service's generator
func (s *generationService) pick(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

func toReference(example *models.Example) models.ReferenceExample {
	return models.ReferenceExample{
		Question: example.Question,
		Diagram:  string(example.Diagram.Data),
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
