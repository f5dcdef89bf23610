package lorem

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

func request(model string) *models.GenerationRequest {
	return &models.GenerationRequest{Instruction: "go", Params: models.SamplingParams{Model: model}}
}

func TestGenerateResponseShapes(t *testing.T) {
	tests := []struct {
		model     string
		wantOpen  bool
		wantClose bool
	}{
		{"lorem-fast", true, true},
		{"lorem-nodiagram", false, false},
		{"lorem-unterminated", true, false},
	}

	p := NewProvider()
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			text, err := p.GenerateResponse(context.Background(), request(tt.model))
			if err != nil {
				t.Fatalf("GenerateResponse: %v", err)
			}
			if got := strings.Contains(text, "<svg"); got != tt.wantOpen {
				t.Errorf("contains <svg = %v, want %v", got, tt.wantOpen)
			}
			if got := strings.Contains(text, "</svg>"); got != tt.wantClose {
				t.Errorf("contains </svg> = %v, want %v", got, tt.wantClose)
			}
			if strings.HasPrefix(text, "<svg") {
				t.Error("answer has no question text before the diagram")
			}
		})
	}
}

func TestGenerateResponseVariesAcrossCalls(t *testing.T) {
	p := NewProvider()
	a, _ := p.GenerateResponse(context.Background(), request("lorem-fast"))
	b, _ := p.GenerateResponse(context.Background(), request("lorem-fast"))
	if a == b {
		t.Error("two calls returned identical answers")
	}
}

func TestSlowModelHonoursContext(t *testing.T) {
	p := NewProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.GenerateResponse(ctx, request("lorem-slow"))
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if time.Since(start) > time.Second {
		t.Error("slow model ignored cancellation")
	}
}

func TestUnsupportedModel(t *testing.T) {
	_, err := NewProvider().GenerateResponse(context.Background(), request("gpt-4o"))
	if !errors.Is(err, domain.ErrBackendRejected) {
		t.Fatalf("err = %v, want ErrBackendRejected", err)
	}
}
