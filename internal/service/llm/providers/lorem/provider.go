package lorem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

// Provider is a mock provider that answers with a lorem ipsum "question"
// followed by a small outline-only SVG. Used for development and demos
// without API keys.
//
// Model names select behaviour:
//   - lorem-fast: immediate answer
//   - lorem-slow: 2 second delay (honours ctx cancellation)
//   - lorem-nodiagram: question only, no SVG
//   - lorem-unterminated: SVG without its closing tag
type Provider struct {
	generator *loremgen.Lorem
	mu        sync.Mutex // loremgen.Lorem is not safe for concurrent use
	calls     int
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateResponse returns one mock answer.
func (p *Provider) GenerateResponse(ctx context.Context, req *models.GenerationRequest) (string, error) {
	model := req.Params.Model
	if !p.SupportsModel(model) {
		return "", &domain.BackendError{
			Provider: p.Name(),
			Kind:     domain.ErrBackendRejected,
			Err:      fmt.Errorf("model '%s' is not supported by lorem provider", model),
		}
	}

	if strings.Contains(model, "slow") {
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
			return "", &domain.BackendError{Provider: p.Name(), Kind: domain.ErrBackendUnavailable, Err: ctx.Err()}
		}
	}

	p.mu.Lock()
	question := p.generator.Sentence(12, 24)
	p.calls++
	n := p.calls
	p.mu.Unlock()

	if strings.Contains(model, "nodiagram") {
		return question, nil
	}

	svg := sketch(n)
	if strings.Contains(model, "unterminated") {
		svg = strings.TrimSuffix(svg, "</svg>")
	}
	return question + "\n\n" + svg, nil
}

// sketch draws an incline with a block whose position varies per call
func sketch(n int) string {
	x := 150 + (n%5)*60
	y := 450 - (n%5)*45
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="800" height="600" viewBox="0 0 800 600">
  <rect width="800" height="600" fill="white"/>
  <polygon points="100,500 700,500 100,200" fill="none" stroke="black" stroke-width="2"/>
  <rect x="%d" y="%d" width="60" height="40" fill="none" stroke="black" stroke-width="2" transform="rotate(26.6 %d %d)"/>
  <text x="620" y="490" font-size="18">θ</text>
</svg>`, x, y-40, x, y)
}
