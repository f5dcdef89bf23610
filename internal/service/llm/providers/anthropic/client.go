package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

// Provider implements the LLMProvider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// SDK retries are disabled; retry policy belongs to the caller.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := anthropic.NewClient(opts...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateResponse generates a response from Claude and returns its text blocks joined.
func (p *Provider) GenerateResponse(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if !p.SupportsModel(req.Params.Model) {
		return "", &domain.BackendError{
			Provider: p.Name(),
			Kind:     domain.ErrBackendRejected,
			Err:      fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Params.Model),
		}
	}

	message, err := p.client.Messages.New(ctx, buildMessageParams(req))
	if err != nil {
		return "", classifyError(err)
	}

	return textFromMessage(message), nil
}

// classifyError maps SDK errors onto the backend taxonomy
func classifyError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &domain.BackendError{
			Provider: "anthropic",
			Status:   apiErr.StatusCode,
			Kind:     domain.ClassifyStatus(apiErr.StatusCode),
			Err:      err,
		}
	}
	return &domain.BackendError{Provider: "anthropic", Kind: domain.ErrBackendUnavailable, Err: err}
}
