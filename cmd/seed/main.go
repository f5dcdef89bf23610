package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"diagramlab/internal/config"
	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/domain/services"
	"diagramlab/internal/repository/filesystem"
	serviceExamples "diagramlab/internal/service/examples"
)

// legacyDiagramFiles are tried in order inside each legacy example folder
var legacyDiagramFiles = []string{"diagram.svg", "diagram.png", "diagram.jpg", "diagram.jpeg"}

func main() {
	// Parse command-line flags
	source := flag.String("source", "", "Legacy dataset folder: one subfolder per example with question.txt and diagram.{svg,png,jpg}")
	dryRun := flag.Bool("dry-run", false, "Report what would be imported without writing")
	emptyTrash := flag.Bool("empty-trash", false, "Permanently purge every trashed example before importing")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *emptyTrash {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--empty-trash) in production environment")
	}
	if *source == "" && !*emptyTrash {
		flag.Usage()
		os.Exit(2)
	}

	logger, closeLog, err := config.NewLogger(cfg, "seed")
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
	exampleService := serviceExamples.NewExampleService(repo, logger)

	ctx := context.Background()

	if *emptyTrash {
		log.Println("🗑️  Emptying trash...")
		purged, err := purgeTrash(ctx, exampleService, *dryRun)
		if err != nil {
			log.Fatalf("Failed to empty trash: %v", err)
		}
		log.Printf("✅ Purged %d trashed examples", purged)
	}

	if *source == "" {
		return
	}

	log.Printf("🌱 Importing %s into %s (environment: %s)", *source, cfg.ExamplesDir, cfg.Environment)
	stats, err := importLegacy(ctx, exampleService, *source, *dryRun)
	if err != nil {
		log.Fatalf("Failed to import: %v", err)
	}
	log.Printf("✅ Imported %d, skipped %d existing, %d invalid", stats.imported, stats.skipped, stats.invalid)
}

type importStats struct {
	imported int
	skipped  int
	invalid  int
}

// importLegacy creates one example per subfolder, keeping the folder name as id.
// Existing ids are skipped; folders that fail validation are reported and skipped.
func importLegacy(ctx context.Context, svc services.ExampleService, source string, dryRun bool) (importStats, error) {
	var stats importStats

	entries, err := os.ReadDir(source)
	if err != nil {
		return stats, fmt.Errorf("read source: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		req, err := readLegacyExample(filepath.Join(source, name))
		if err != nil {
			log.Printf("⚠️  %s: %v", name, err)
			stats.invalid++
			continue
		}

		if dryRun {
			log.Printf("would import %s (%s)", name, req.MediaType)
			stats.imported++
			continue
		}

		_, err = svc.CreateExample(ctx, req)
		switch {
		case err == nil:
			stats.imported++
		case errors.Is(err, domain.ErrConflict):
			stats.skipped++
		case errors.Is(err, domain.ErrValidation):
			log.Printf("⚠️  %s: %v", name, err)
			stats.invalid++
		default:
			return stats, fmt.Errorf("import %s: %w", name, err)
		}
	}
	return stats, nil
}

func readLegacyExample(dir string) (*services.CreateExampleRequest, error) {
	question, err := os.ReadFile(filepath.Join(dir, "question.txt"))
	if err != nil {
		return nil, fmt.Errorf("missing question.txt")
	}

	for _, file := range legacyDiagramFiles {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return &services.CreateExampleRequest{
			ID:        filepath.Base(dir),
			Question:  string(question),
			MediaType: models.MediaTypeForExtension(filepath.Ext(file)),
			Diagram:   data,
		}, nil
	}
	return nil, fmt.Errorf("missing diagram file")
}

func purgeTrash(ctx context.Context, svc services.ExampleService, dryRun bool) (int, error) {
	trashed, err := svc.ListTrash(ctx)
	if err != nil {
		return 0, err
	}
	if dryRun {
		return len(trashed), nil
	}
	for _, t := range trashed {
		// The operator running this tool is trusted with deletes
		if err := svc.PurgeTrashed(ctx, t.TrashID, true); err != nil {
			return 0, fmt.Errorf("purge %s: %w", t.TrashID, err)
		}
	}
	return len(trashed), nil
}
