package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
)

func testRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		System:      "You draw physics diagrams.",
		Instruction: "Make a new one.",
		Images: []models.EncodedImage{
			{MediaType: "image/png", Base64: "AAAA"},
			{MediaType: "image/jpeg", Base64: "BBBB"},
		},
		Examples: []models.ReferenceExample{{Question: "q1", Diagram: "<svg/>"}},
		Params:   models.SamplingParams{Model: "gpt-4o", Temperature: 0.5, MaxTokens: 900},
	}
}

func TestGenerateResponseSendsOrderedPayload(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"Q <svg></svg>"}}]}`))
	}))
	defer server.Close()

	p, err := NewProvider("sk-test", WithBaseURL(server.URL+"/"))
	if err != nil {
		t.Fatal(err)
	}

	text, err := p.GenerateResponse(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateResponse: %v", err)
	}
	if text != "Q <svg></svg>" {
		t.Errorf("text = %q", text)
	}

	if captured["model"] != "gpt-4o" || captured["max_tokens"].(float64) != 900 || captured["temperature"].(float64) != 0.5 {
		t.Errorf("sampling params = %v %v %v", captured["model"], captured["max_tokens"], captured["temperature"])
	}

	messages := captured["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(messages))
	}
	system := messages[0].(map[string]interface{})
	if system["role"] != "system" || system["content"] != "You draw physics diagrams." {
		t.Errorf("system message = %v", system)
	}

	parts := messages[1].(map[string]interface{})["content"].([]interface{})
	wantTypes := []string{"image_url", "image_url", "text", "text"}
	if len(parts) != len(wantTypes) {
		t.Fatalf("len(parts) = %d, want %d", len(parts), len(wantTypes))
	}
	for i, want := range wantTypes {
		if got := parts[i].(map[string]interface{})["type"]; got != want {
			t.Errorf("part %d type = %v, want %s", i, got, want)
		}
	}
	first := parts[0].(map[string]interface{})["image_url"].(map[string]interface{})["url"]
	if first != "data:image/png;base64,AAAA" {
		t.Errorf("first image url = %v", first)
	}
	if last := parts[3].(map[string]interface{})["text"]; last != "Make a new one." {
		t.Errorf("last text part = %v, want the instruction", last)
	}
}

func TestGenerateResponseClassifiesErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind error
	}{
		{"bad request is rejected", http.StatusBadRequest, domain.ErrBackendRejected},
		{"unprocessable is rejected", http.StatusUnprocessableEntity, domain.ErrBackendRejected},
		{"auth failure is unavailable", http.StatusUnauthorized, domain.ErrBackendUnavailable},
		{"throttling is unavailable", http.StatusTooManyRequests, domain.ErrBackendUnavailable},
		{"server error is unavailable", http.StatusInternalServerError, domain.ErrBackendUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope","type":"invalid_request_error"}}`))
			}))
			defer server.Close()

			p, _ := NewProvider("sk-test", WithBaseURL(server.URL))
			_, err := p.GenerateResponse(context.Background(), testRequest())
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("err = %v, want %v", err, tt.wantKind)
			}
			var backendErr *domain.BackendError
			if !errors.As(err, &backendErr) || backendErr.Status != tt.status {
				t.Errorf("BackendError status = %+v, want %d", backendErr, tt.status)
			}
		})
	}
}

func TestGenerateResponseNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p, _ := NewProvider("sk-test", WithBaseURL(url))
	_, err := p.GenerateResponse(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestSupportsModel(t *testing.T) {
	p, _ := NewProvider("sk-test")
	for model, want := range map[string]bool{
		"gpt-4o":                   true,
		"o4-mini":                  true,
		"meta-llama/llama-3.2-90b": true,
		"llava":                    true,
		"qwen2.5-vl:7b":            true,
		"anthropic/claude-3-haiku": true,
		"claude-sonnet-4-5":        false,
		"lorem-fast":               false,
		"":                         false,
	} {
		if got := p.SupportsModel(model); got != want {
			t.Errorf("SupportsModel(%q) = %v, want %v", model, got, want)
		}
	}
}

func TestNewProviderRequiresKey(t *testing.T) {
	if _, err := NewProvider(""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
