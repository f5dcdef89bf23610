package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	domainllm "diagramlab/internal/domain/services/llm"
)

// ClientConfig controls how a GenerationClient fans out attempts
type ClientConfig struct {
	// Concurrency bounds parallel attempts in GenerateN (<= 1 is sequential)
	Concurrency int

	// RatePerSec paces attempt starts; 0 disables pacing
	RatePerSec float64

	// Timeout bounds each attempt; 0 means only the caller's deadline applies
	Timeout time.Duration
}

// GenerationClient issues generation calls against one provider.
// It never retries: a failed attempt is reported (Generate) or dropped (GenerateN).
type GenerationClient struct {
	provider    domainllm.LLMProvider
	concurrency int
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      *slog.Logger
}

// NewGenerationClient wraps a provider with the fan-out policy from cfg
func NewGenerationClient(provider domainllm.LLMProvider, cfg ClientConfig, logger *slog.Logger) *GenerationClient {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}

	return &GenerationClient{
		provider:    provider,
		concurrency: concurrency,
		limiter:     limiter,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Provider returns the wrapped provider
func (c *GenerationClient) Provider() domainllm.LLMProvider {
	return c.provider
}

// Generate performs a single attempt and returns the raw answer text
func (c *GenerationClient) Generate(ctx context.Context, req *models.GenerationRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &domain.BackendError{Provider: c.provider.Name(), Kind: domain.ErrBackendUnavailable, Err: err}
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.provider.GenerateResponse(ctx, req)
	if err != nil {
		return "", asBackendError(c.provider.Name(), err)
	}

	c.logger.Debug("generation completed",
		"provider", c.provider.Name(),
		"model", req.Params.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"chars", len(text),
	)
	return text, nil
}

// GenerateN makes n independent attempts and returns the successful answers
// in attempt order. Failed attempts are logged and dropped, so the result may
// be shorter than n. Only when every attempt fails is an error returned,
// joining the individual failures.
func (c *GenerationClient) GenerateN(ctx context.Context, req *models.GenerationRequest, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	texts := make([]string, n)
	errs := make([]error, n)

	// Attempts always return nil to the group so one failure never cancels the rest
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			texts[i], errs[i] = c.Generate(gctx, req)
			if errs[i] != nil {
				c.logger.Warn("generation attempt failed",
					"provider", c.provider.Name(),
					"attempt", i+1,
					"of", n,
					"error", errs[i],
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]string, 0, n)
	for i := range texts {
		if errs[i] == nil {
			results = append(results, texts[i])
		}
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("all %d generation attempts failed: %w", n, errors.Join(errs...))
	}
	return results, nil
}

// asBackendError makes sure provider failures carry the backend taxonomy.
// Context expiry counts as the backend being unavailable.
func asBackendError(provider string, err error) error {
	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) {
		return err
	}
	return &domain.BackendError{Provider: provider, Kind: domain.ErrBackendUnavailable, Err: err}
}
