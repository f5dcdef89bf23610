package filesystem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/domain/repositories"
)

const (
	questionFile  = "question.txt"
	diagramStem   = "diagram"
	stagingPrefix = ".staging-"
)

// diagramExtensions is the lookup order when locating a diagram artifact
var diagramExtensions = []string{".svg", ".png", ".jpg"}

// RepositoryConfig holds the directories backing an ExampleRepository
type RepositoryConfig struct {
	Root      string // active examples, one folder per id
	TrashRoot string // soft-deleted examples
	Logger    *slog.Logger
	Now       func() time.Time // defaults to time.Now
}

// ExampleRepository stores each example as a folder holding exactly two
// artifacts. All mutations hold mu for writing and reads hold it for
// reading, so a List never observes a record mid-move.
type ExampleRepository struct {
	root      string
	trashRoot string
	logger    *slog.Logger
	now       func() time.Time
	mu        sync.RWMutex
}

var _ repositories.ExampleRepository = (*ExampleRepository)(nil)

// NewExampleRepository creates both directories if missing
func NewExampleRepository(cfg *RepositoryConfig) (*ExampleRepository, error) {
	if cfg.Root == "" || cfg.TrashRoot == "" {
		return nil, errors.New("example store requires root and trash directories")
	}
	for _, dir := range []string{cfg.Root, cfg.TrashRoot} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &ExampleRepository{
		root:      cfg.Root,
		trashRoot: cfg.TrashRoot,
		logger:    logger,
		now:       now,
	}, nil
}

// Save writes the artifacts into a hidden staging folder and renames it into
// place, so the example appears with both files or not at all.
func (r *ExampleRepository) Save(ctx context.Context, example *models.Example) (*models.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(example.ID); err != nil {
		return nil, err
	}
	ext := example.Diagram.Extension()
	if ext == "" {
		return nil, fmt.Errorf("%w: unsupported diagram media type %q", domain.ErrValidation, example.Diagram.MediaType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	target := filepath.Join(r.root, example.ID)
	if exists(target) {
		return nil, duplicateError(example.ID)
	}

	staging, err := os.MkdirTemp(r.root, stagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("create staging folder: %w", err)
	}
	cleanup := func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			r.logger.Warn("failed to remove staging folder", "path", staging, "error", rmErr)
		}
	}

	if err := os.WriteFile(filepath.Join(staging, questionFile), []byte(example.Question), 0644); err != nil {
		cleanup()
		return nil, fmt.Errorf("write question: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, diagramStem+ext), example.Diagram.Data, 0644); err != nil {
		cleanup()
		return nil, fmt.Errorf("write diagram: %w", err)
	}

	if err := os.Rename(staging, target); err != nil {
		cleanup()
		if exists(target) {
			return nil, duplicateError(example.ID)
		}
		return nil, fmt.Errorf("publish example: %w", err)
	}

	r.logger.Debug("example saved", "id", example.ID, "media_type", example.Diagram.MediaType)

	return readExample(target, example.ID)
}

// Get returns one complete active example
func (r *ExampleRepository) Get(ctx context.Context, id string) (*models.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	example, err := readExample(filepath.Join(r.root, id), id)
	if err != nil {
		return nil, notFoundOr(err, "example", id)
	}
	return example, nil
}

// List returns complete examples sorted by id. Folders missing an artifact
// and staging folders are skipped.
func (r *ExampleRepository) List(ctx context.Context) ([]models.Example, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("read examples directory: %w", err)
	}

	examples := make([]models.Example, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		example, err := readExample(filepath.Join(r.root, entry.Name()), entry.Name())
		if err != nil {
			if !errors.Is(err, errIncomplete) {
				r.logger.Warn("skipping unreadable example", "id", entry.Name(), "error", err)
			}
			continue
		}
		examples = append(examples, *example)
	}

	sort.Slice(examples, func(i, j int) bool {
		return examples[i].ID < examples[j].ID
	})

	return examples, nil
}

// HardDelete removes an active example. The folder is first renamed to a
// hidden name so the removal is invisible to List even if RemoveAll fails midway.
func (r *ExampleRepository) HardDelete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateName(id); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	source := filepath.Join(r.root, id)
	if _, err := readExample(source, id); err != nil {
		return notFoundOr(err, "example", id)
	}

	if err := r.removeFolder(r.root, source); err != nil {
		return err
	}

	r.logger.Info("example deleted permanently", "id", id)
	return nil
}

// removeFolder hides a folder under root and then removes it
func (r *ExampleRepository) removeFolder(root, source string) error {
	doomed := filepath.Join(root, stagingPrefix+"del-"+uuid.NewString())
	if err := os.Rename(source, doomed); err != nil {
		return fmt.Errorf("hide folder for deletion: %w", err)
	}
	if err := os.RemoveAll(doomed); err != nil {
		r.logger.Warn("failed to remove deleted folder", "path", doomed, "error", err)
	}
	return nil
}

// readExample loads a folder as an example; errIncomplete if an artifact is missing
func readExample(dir, id string) (*models.Example, error) {
	questionPath := filepath.Join(dir, questionFile)
	info, err := os.Stat(questionPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errIncomplete
		}
		return nil, err
	}

	diagramPath, mediaType := findDiagram(dir)
	if diagramPath == "" {
		return nil, errIncomplete
	}

	question, err := os.ReadFile(questionPath)
	if err != nil {
		return nil, fmt.Errorf("read question: %w", err)
	}
	diagram, err := os.ReadFile(diagramPath)
	if err != nil {
		return nil, fmt.Errorf("read diagram: %w", err)
	}

	return &models.Example{
		ID:        id,
		Question:  string(question),
		Diagram:   models.Diagram{MediaType: mediaType, Data: diagram},
		CreatedAt: info.ModTime().UTC(),
	}, nil
}

func findDiagram(dir string) (string, string) {
	for _, ext := range diagramExtensions {
		path := filepath.Join(dir, diagramStem+ext)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, models.MediaTypeForExtension(ext)
		}
	}
	return "", ""
}
