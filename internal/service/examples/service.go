package examples

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"diagramlab/internal/config"
	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/domain/repositories"
	"diagramlab/internal/domain/services"
)

// idPattern mirrors the folder names the store accepts
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// exampleService implements the ExampleService interface
type exampleService struct {
	repo   repositories.ExampleRepository
	logger *slog.Logger
}

// NewExampleService creates a new example service
func NewExampleService(
	repo repositories.ExampleRepository,
	logger *slog.Logger,
) services.ExampleService {
	return &exampleService{
		repo:   repo,
		logger: logger,
	}
}

// CreateExample validates and saves a new example. A blank ID gets a
// time-ordered UUID.
func (s *exampleService) CreateExample(ctx context.Context, req *services.CreateExampleRequest) (*models.Example, error) {
	if err := s.validateCreateRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	mediaType, err := diagramMediaType(req.MediaType, req.Diagram)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate example id: %w", err)
		}
		id = generated.String()
	}

	example := &models.Example{
		ID:       id,
		Question: strings.TrimSpace(req.Question),
		Diagram: models.Diagram{
			MediaType: mediaType,
			Data:      req.Diagram,
		},
		CreatedAt: time.Now(),
	}

	saved, err := s.repo.Save(ctx, example)
	if err != nil {
		return nil, err
	}

	s.logger.Info("example created",
		"id", saved.ID,
		"media_type", mediaType,
		"diagram_bytes", len(req.Diagram),
	)

	return saved, nil
}

// GetExample retrieves an example by ID
func (s *exampleService) GetExample(ctx context.Context, id string) (*models.Example, error) {
	return s.repo.Get(ctx, id)
}

// ListExamples returns all complete examples sorted by ID
func (s *exampleService) ListExamples(ctx context.Context) ([]models.Example, error) {
	return s.repo.List(ctx)
}

// TrashExample moves an example to the trash
func (s *exampleService) TrashExample(ctx context.Context, id string, canDelete bool) (*models.TrashedExample, error) {
	if err := requireDelete(canDelete); err != nil {
		return nil, err
	}

	trashed, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("example trashed",
		"id", id,
		"trash_id", trashed.TrashID,
	)
	return trashed, nil
}

// ListTrash returns trashed examples, newest first
func (s *exampleService) ListTrash(ctx context.Context) ([]models.TrashedExample, error) {
	return s.repo.ListTrash(ctx)
}

// RestoreExample moves a trashed example back under its original ID
func (s *exampleService) RestoreExample(ctx context.Context, trashID string, canDelete bool) (*models.Example, error) {
	if err := requireDelete(canDelete); err != nil {
		return nil, err
	}

	example, err := s.repo.Restore(ctx, trashID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("example restored",
		"id", example.ID,
		"trash_id", trashID,
	)
	return example, nil
}

// DeleteExample permanently removes an active example
func (s *exampleService) DeleteExample(ctx context.Context, id string, canDelete bool) error {
	if err := requireDelete(canDelete); err != nil {
		return err
	}

	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("example deleted", "id", id)
	return nil
}

// PurgeTrashed permanently removes a trashed example
func (s *exampleService) PurgeTrashed(ctx context.Context, trashID string, canDelete bool) error {
	if err := requireDelete(canDelete); err != nil {
		return err
	}

	if err := s.repo.PurgeTrash(ctx, trashID); err != nil {
		return err
	}

	s.logger.Info("trashed example purged", "trash_id", trashID)
	return nil
}

// SampleExamples returns up to n distinct SVG examples chosen uniformly at
// random. pick(k) must return an index in [0, k); the caller owns the
// generator behind it.
func (s *exampleService) SampleExamples(ctx context.Context, n int, pick func(n int) int) ([]models.Example, error) {
	if n <= 0 {
		return nil, nil
	}
	if pick == nil {
		pick = rand.IntN
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Example, 0, len(all))
	for _, ex := range all {
		if ex.Diagram.IsSVG() {
			pool = append(pool, ex)
		}
	}
	if n > len(pool) {
		n = len(pool)
	}

	// Partial Fisher-Yates: the first n slots end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + pick(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n], nil
}

func (s *exampleService) validateCreateRequest(req *services.CreateExampleRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ID,
			validation.Length(0, config.MaxExampleIDLength),
			validation.Match(idPattern).Error("must start with a letter or digit and contain only letters, digits, '.', '_' or '-'"),
		),
		validation.Field(&req.Question,
			validation.Required.Error("question is required"),
			validation.Length(1, config.MaxQuestionLength),
		),
		validation.Field(&req.Diagram,
			validation.Required.Error("diagram is required"),
			validation.Length(1, config.MaxDiagramBytes),
		),
	)
}

// diagramMediaType checks a declared media type against the bytes, or
// detects it when none was declared
func diagramMediaType(declared string, data []byte) (string, error) {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}

	looksSVG := bytes.Contains(data, []byte("<svg"))
	if declared == "" {
		if looksSVG {
			return models.MediaTypeSVG, nil
		}
		declared = http.DetectContentType(data)
	}

	switch declared {
	case models.MediaTypeSVG:
		if !looksSVG {
			return "", fmt.Errorf("diagram declared as SVG contains no <svg element")
		}
		return declared, nil
	case models.MediaTypePNG, models.MediaTypeJPEG:
		return declared, nil
	default:
		return "", fmt.Errorf("unsupported diagram type %q", declared)
	}
}

func requireDelete(canDelete bool) error {
	if !canDelete {
		return &domain.ForbiddenError{Message: "an unlocked admin session is required"}
	}
	return nil
}
