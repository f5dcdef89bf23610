package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"diagramlab/internal/capabilities"
	"diagramlab/internal/config"
	"diagramlab/internal/domain/services"
	"diagramlab/internal/prompts"
	"diagramlab/internal/repository/filesystem"
	serviceExamples "diagramlab/internal/service/examples"
	serviceGeneration "diagramlab/internal/service/generation"
	serviceLLM "diagramlab/internal/service/llm"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
)

func main() {
	instruction := flag.String("instruction", "", "Instruction text (defaults to the profile's instruction)")
	profile := flag.String("profile", "", "Prompt profile (defaults to PROMPT_PROFILE)")
	count := flag.Int("count", 0, "Number of variants (defaults to VARIANT_COUNT)")
	provider := flag.String("provider", "", "Provider: openai, anthropic or lorem")
	model := flag.String("model", "", "Model (defaults to DEFAULT_MODEL)")
	refs := flag.String("refs", "", "Comma-separated example ids to use as references")
	sample := flag.Int("sample", -1, "Random reference examples to add (-1 uses REFERENCE_SAMPLE_SIZE)")
	noImages := flag.Bool("no-images", false, "Skip the images in REFERENCE_IMAGES_DIR")
	allowText := flag.Bool("allow-text-only", false, "Keep variants without a diagram")
	save := flag.Bool("save", false, "Save variants with a diagram into the example store")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg, "generate")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer closeLog()

	repo, err := filesystem.NewExampleRepository(&filesystem.RepositoryConfig{
		Root:      cfg.ExamplesDir,
		TrashRoot: cfg.TrashDir,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to open example store: %v", err)
	}

	providerRegistry, err := serviceLLM.SetupProviders(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}
	promptRegistry, err := prompts.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize prompt registry: %v", err)
	}
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	referenceImages, err := serviceGeneration.LoadReferenceImages(cfg.ReferenceImagesDir)
	if err != nil {
		log.Fatalf("Failed to load reference images: %v", err)
	}

	exampleService := serviceExamples.NewExampleService(repo, logger)
	generationService := serviceGeneration.NewService(promptRegistry, providerRegistry, exampleService, serviceGeneration.ServiceConfig{
		DefaultProfile:      cfg.PromptProfile,
		DefaultCount:        cfg.VariantCount,
		Temperature:         cfg.Temperature,
		MaxTokens:           cfg.MaxTokens,
		ReferenceSampleSize: cfg.ReferenceSampleSize,
		ParserStrict:        cfg.ParserStrict,
		ReferenceImages:     referenceImages,
		Models:              capabilityRegistry,
	}, logger)

	includeImages := !*noImages
	requireDiagram := !*allowText
	req := &services.GenerateVariantsRequest{
		Instruction:             *instruction,
		Profile:                 *profile,
		Count:                   *count,
		Provider:                *provider,
		Model:                   *model,
		IncludeConfiguredImages: &includeImages,
		RequireDiagram:          &requireDiagram,
	}
	if *refs != "" {
		for _, id := range strings.Split(*refs, ",") {
			if id = strings.TrimSpace(id); id != "" {
				req.ReferenceExampleIDs = append(req.ReferenceExampleIDs, id)
			}
		}
	}
	if *sample >= 0 {
		req.SampleReferences = sample
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := generationService.GenerateVariants(ctx, req)
	if err != nil {
		fmt.Printf("%s✗ generation failed:%s %v\n", colorRed, colorReset, err)
		os.Exit(1)
	}

	fmt.Printf("%s%d of %d variants kept%s\n\n", colorCyan, result.Succeeded, result.Requested, colorReset)
	for i, v := range result.Variants {
		fmt.Printf("%s── Variant %d ──%s\n%s\n", colorYellow, i+1, colorReset, v.Question)
		if v.HasDiagram {
			fmt.Printf("%s[diagram: %d bytes]%s\n", colorCyan, len(v.Diagram), colorReset)
		}

		if *save && v.HasDiagram {
			example, err := exampleService.CreateExample(ctx, &services.CreateExampleRequest{
				Question: v.Question,
				Diagram:  []byte(v.Diagram),
			})
			if err != nil {
				fmt.Printf("%s✗ save failed:%s %v\n", colorRed, colorReset, err)
			} else {
				fmt.Printf("%s✓ saved as %s%s\n", colorGreen, example.ID, colorReset)
			}
		}
		fmt.Println()
	}
}
