package services

import (
	"context"

	"diagramlab/internal/domain/models"
)

// ExampleService curates the example dataset. Every destructive call takes
// an explicit canDelete flag resolved by the caller from its admin session.
type ExampleService interface {
	CreateExample(ctx context.Context, req *CreateExampleRequest) (*models.Example, error)
	GetExample(ctx context.Context, id string) (*models.Example, error)
	ListExamples(ctx context.Context) ([]models.Example, error)
	TrashExample(ctx context.Context, id string, canDelete bool) (*models.TrashedExample, error)
	ListTrash(ctx context.Context) ([]models.TrashedExample, error)
	RestoreExample(ctx context.Context, trashID string, canDelete bool) (*models.Example, error)
	DeleteExample(ctx context.Context, id string, canDelete bool) error
	PurgeTrashed(ctx context.Context, trashID string, canDelete bool) error
	SampleExamples(ctx context.Context, n int, pick func(n int) int) ([]models.Example, error)
}

// CreateExampleRequest is the input for CreateExample. An empty ID gets a
// generated collision-resistant id.
type CreateExampleRequest struct {
	ID        string `json:"id"`
	Question  string `json:"question"`
	MediaType string `json:"media_type"`
	Diagram   []byte `json:"-"`
}
