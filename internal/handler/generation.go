package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"diagramlab/internal/domain/services"
	"diagramlab/internal/httputil"
	"diagramlab/internal/prompts"
)

// GenerationHandler handles variant generation HTTP requests
type GenerationHandler struct {
	generationService services.GenerationService
	prompts           *prompts.Registry
	logger            *slog.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(generationService services.GenerationService, promptRegistry *prompts.Registry, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		prompts:           promptRegistry,
		logger:            logger,
	}
}

// PreviewImage describes a reference image without its bytes
type PreviewImage struct {
	MediaType string `json:"media_type"`
	Bytes     int    `json:"bytes"`
}

// PreviewResponse is the assembled request as it would be sent
type PreviewResponse struct {
	Model      string         `json:"model"`
	System     string         `json:"system"`
	Images     []PreviewImage `json:"images"`
	TextBlocks []string       `json:"text_blocks"`
}

// ProfileResponse lists the available prompt profiles
type ProfileResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GenerateVariants runs one generate action and returns the surviving variants
// POST /api/generations
func (h *GenerationHandler) GenerateVariants(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateVariantsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	result, err := h.generationService.GenerateVariants(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// PreviewRequest assembles the request without calling the backend
// POST /api/generations/preview
func (h *GenerationHandler) PreviewRequest(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateVariantsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	genReq, err := h.generationService.BuildRequest(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	images := make([]PreviewImage, 0, len(genReq.Images))
	for _, img := range genReq.Images {
		images = append(images, PreviewImage{MediaType: img.MediaType, Bytes: decodedSize(img.Base64)})
	}

	httputil.RespondJSON(w, http.StatusOK, PreviewResponse{
		Model:      genReq.Params.Model,
		System:     genReq.System,
		Images:     images,
		TextBlocks: genReq.TextBlocks(),
	})
}

// ListProfiles returns the registered prompt profiles
// GET /api/prompts
func (h *GenerationHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	names := h.prompts.Names()
	resp := make([]ProfileResponse, 0, len(names))
	for _, name := range names {
		profile, err := h.prompts.Get(name)
		if err != nil {
			continue
		}
		resp = append(resp, ProfileResponse{Name: profile.Name, Description: profile.Description})
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// decodedSize is the byte length behind a padded base64 string
func decodedSize(b64 string) int {
	return base64.RawStdEncoding.DecodedLen(len(strings.TrimRight(b64, "=")))
}
