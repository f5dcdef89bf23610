package repositories

import (
	"context"

	"diagramlab/internal/domain/models"
)

// ExampleRepository persists examples and their trashed counterparts.
// Implementations must never expose a partially written or half-moved record.
type ExampleRepository interface {
	// Save creates a new example. Returns *domain.ConflictError if id exists.
	Save(ctx context.Context, example *models.Example) (*models.Example, error)

	// Get returns one active example or domain.ErrNotFound
	Get(ctx context.Context, id string) (*models.Example, error)

	// List returns complete active examples sorted by id ascending
	List(ctx context.Context) ([]models.Example, error)

	// SoftDelete moves an active example into the trash namespace
	SoftDelete(ctx context.Context, id string) (*models.TrashedExample, error)

	// ListTrash returns trashed examples, newest deletion first
	ListTrash(ctx context.Context) ([]models.TrashedExample, error)

	// Restore moves a trashed example back under its original id
	Restore(ctx context.Context, trashID string) (*models.Example, error)

	// HardDelete irreversibly removes an active example
	HardDelete(ctx context.Context, id string) error

	// PurgeTrash irreversibly removes a trashed example
	PurgeTrash(ctx context.Context, trashID string) error
}
