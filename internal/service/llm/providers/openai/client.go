package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/llm"
)

// maxErrorBody caps how much of an error response is kept for the message
const maxErrorBody = 4 << 10

// Provider implements the LLMProvider interface for OpenAI-compatible
// chat completion endpoints.
type Provider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option customises a Provider
type Option func(*Provider)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithBaseURL points the provider at another compatible endpoint
func WithBaseURL(url string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(url, "/") }
}

// NewProvider creates a new OpenAI provider with the given API key.
func NewProvider(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	p := &Provider{
		apiKey:     apiKey,
		baseURL:    "https://api.openai.com/v1",
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// SupportsModel accepts any model except the native families of other
// providers. The base URL may point at an OpenAI-compatible gateway (Ollama,
// vLLM, OpenRouter) whose model names follow no fixed pattern.
func (p *Provider) SupportsModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if m == "" {
		return false
	}
	return !strings.HasPrefix(m, "claude-") && !strings.HasPrefix(m, "lorem-")
}

// GenerateResponse sends one chat completion and returns the first choice's text.
func (p *Provider) GenerateResponse(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if !p.SupportsModel(req.Params.Model) {
		return "", p.rejected(0, fmt.Errorf("model '%s' is not supported by OpenAI provider", req.Params.Model))
	}

	payload, err := json.Marshal(BuildRequest(req))
	if err != nil {
		return "", p.rejected(0, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", p.rejected(0, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", p.unavailable(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.BackendError{
			Provider: p.Name(),
			Status:   resp.StatusCode,
			Kind:     domain.ClassifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, errorMessage(body)),
		}
	}

	var out llm.UnifiedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", p.unavailable(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", p.unavailable(resp.StatusCode, fmt.Errorf("response has no choices"))
	}

	return out.Choices[0].Message.Content, nil
}

// BuildRequest converts a GenerationRequest to the chat completions payload:
// an optional system message, then one user message with the reference
// images first (in order) followed by the text blocks.
func BuildRequest(req *models.GenerationRequest) *llm.UnifiedRequest {
	messages := make([]llm.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, llm.Message{Role: "system", Content: req.System})
	}

	texts := req.TextBlocks()
	parts := make([]llm.ContentPart, 0, len(req.Images)+len(texts))
	for _, img := range req.Images {
		parts = append(parts, llm.ImagePart(img.DataURL()))
	}
	for _, text := range texts {
		parts = append(parts, llm.TextPart(text))
	}
	messages = append(messages, llm.Message{Role: "user", Content: parts})

	unified := &llm.UnifiedRequest{
		Model:     req.Params.Model,
		Messages:  messages,
		MaxTokens: req.Params.MaxTokens,
	}
	if req.Params.Temperature > 0 {
		t := req.Params.Temperature
		unified.Temperature = &t
	}
	return unified
}

func (p *Provider) unavailable(status int, err error) error {
	return &domain.BackendError{Provider: p.Name(), Status: status, Kind: domain.ErrBackendUnavailable, Err: err}
}

func (p *Provider) rejected(status int, err error) error {
	return &domain.BackendError{Provider: p.Name(), Status: status, Kind: domain.ErrBackendRejected, Err: err}
}

// errorMessage extracts error.message from an error body, falling back to the raw text
func errorMessage(body []byte) string {
	var envelope llm.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}
