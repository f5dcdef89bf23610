package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"diagramlab/internal/config"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/domain/services"
	"diagramlab/internal/httputil"
)

// multipartOverhead is allowed on top of the diagram size for form fields
const multipartOverhead = 1 << 20

// ExampleHandler handles example and trash HTTP requests
type ExampleHandler struct {
	exampleService services.ExampleService
	logger         *slog.Logger
}

// NewExampleHandler creates a new example handler
func NewExampleHandler(exampleService services.ExampleService, logger *slog.Logger) *ExampleHandler {
	return &ExampleHandler{
		exampleService: exampleService,
		logger:         logger,
	}
}

// ExampleResponse is the API view of an example. SVG diagrams are inlined;
// raster diagrams are fetched from the diagram endpoint.
type ExampleResponse struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	MediaType  string    `json:"media_type"`
	DiagramSVG string    `json:"diagram_svg,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TrashedExampleResponse is the API view of a trashed example
type TrashedExampleResponse struct {
	TrashID    string    `json:"trash_id"`
	OriginalID string    `json:"original_id"`
	Question   string    `json:"question"`
	MediaType  string    `json:"media_type"`
	DeletedAt  time.Time `json:"deleted_at"`
}

// createExampleJSON is the JSON body of POST /api/examples
type createExampleJSON struct {
	ID         string `json:"id"`
	Question   string `json:"question"`
	DiagramSVG string `json:"diagram_svg"`
}

// ListExamples returns every complete example sorted by id
// GET /api/examples
func (h *ExampleHandler) ListExamples(w http.ResponseWriter, r *http.Request) {
	examples, err := h.exampleService.ListExamples(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	resp := make([]ExampleResponse, 0, len(examples))
	for i := range examples {
		resp = append(resp, toExampleResponse(&examples[i]))
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// GetExample returns one example
// GET /api/examples/{id}
func (h *ExampleHandler) GetExample(w http.ResponseWriter, r *http.Request) {
	example, err := h.exampleService.GetExample(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toExampleResponse(example))
}

// GetDiagram returns the raw diagram artifact with its media type
// GET /api/examples/{id}/diagram
func (h *ExampleHandler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	example, err := h.exampleService.GetExample(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	if example.Diagram.IsSVG() {
		// Stored SVG is untrusted model output
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'")
	}
	httputil.RespondBytes(w, http.StatusOK, example.Diagram.MediaType, example.Diagram.Data)
}

// CreateExample saves a new example from JSON or a multipart upload
// POST /api/examples
// Returns 201 if created, 409 with the existing example if the id is taken
func (h *ExampleHandler) CreateExample(w http.ResponseWriter, r *http.Request) {
	var (
		req *services.CreateExampleRequest
		err error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		req, err = parseMultipartExample(w, r)
	} else {
		req, err = parseJSONExample(w, r)
	}
	if err != nil {
		handleParseError(w, err)
		return
	}

	example, err := h.exampleService.CreateExample(r.Context(), req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*ExampleResponse, error) {
			existing, err := h.exampleService.GetExample(r.Context(), id)
			if err != nil {
				return nil, err
			}
			resp := toExampleResponse(existing)
			return &resp, nil
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, toExampleResponse(example))
}

// DeleteExample moves an example to the trash, or removes it for good
// with ?permanent=true. Requires an unlocked admin session.
// DELETE /api/examples/{id}
func (h *ExampleHandler) DeleteExample(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	permanent, err := httputil.QueryBool(r, "permanent")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	canDelete := httputil.CanDelete(r)
	if permanent {
		if err := h.exampleService.DeleteExample(r.Context(), id, canDelete); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	trashed, err := h.exampleService.TrashExample(r.Context(), id, canDelete)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toTrashedResponse(trashed))
}

// ListTrash returns trashed examples, newest first
// GET /api/trash
func (h *ExampleHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	trashed, err := h.exampleService.ListTrash(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	resp := make([]TrashedExampleResponse, 0, len(trashed))
	for i := range trashed {
		resp = append(resp, toTrashedResponse(&trashed[i]))
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// RestoreExample moves a trashed example back under its original id
// POST /api/trash/{trashId}/restore
func (h *ExampleHandler) RestoreExample(w http.ResponseWriter, r *http.Request) {
	example, err := h.exampleService.RestoreExample(r.Context(), r.PathValue("trashId"), httputil.CanDelete(r))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, toExampleResponse(example))
}

// PurgeTrashed permanently removes a trashed example
// DELETE /api/trash/{trashId}
func (h *ExampleHandler) PurgeTrashed(w http.ResponseWriter, r *http.Request) {
	if err := h.exampleService.PurgeTrashed(r.Context(), r.PathValue("trashId"), httputil.CanDelete(r)); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseJSONExample(w http.ResponseWriter, r *http.Request) (*services.CreateExampleRequest, error) {
	var body createExampleJSON
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		return nil, err
	}
	return &services.CreateExampleRequest{
		ID:        body.ID,
		Question:  body.Question,
		MediaType: models.MediaTypeSVG,
		Diagram:   []byte(body.DiagramSVG),
	}, nil
}

// parseMultipartExample reads the id and question fields and the diagram
// file part. The media type comes from the part header, then the file
// extension, then content sniffing in the service.
func parseMultipartExample(w http.ResponseWriter, r *http.Request) (*services.CreateExampleRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxDiagramBytes+multipartOverhead)
	if err := r.ParseMultipartForm(config.MaxDiagramBytes + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: limit is %d bytes", httputil.ErrBodyTooLarge, maxErr.Limit)
		}
		return nil, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("diagram")
	if err != nil {
		return nil, fmt.Errorf("diagram file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, config.MaxDiagramBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read diagram: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if models.ExtensionForMediaType(mediaType) == "" {
		mediaType = models.MediaTypeForExtension(strings.ToLower(filepath.Ext(header.Filename)))
	}

	return &services.CreateExampleRequest{
		ID:        r.FormValue("id"),
		Question:  r.FormValue("question"),
		MediaType: mediaType,
		Diagram:   data,
	}, nil
}

func toExampleResponse(example *models.Example) ExampleResponse {
	resp := ExampleResponse{
		ID:        example.ID,
		Question:  example.Question,
		MediaType: example.Diagram.MediaType,
		CreatedAt: example.CreatedAt,
	}
	if example.Diagram.IsSVG() {
		resp.DiagramSVG = string(example.Diagram.Data)
	}
	return resp
}

func toTrashedResponse(trashed *models.TrashedExample) TrashedExampleResponse {
	return TrashedExampleResponse{
		TrashID:    trashed.TrashID,
		OriginalID: trashed.OriginalID,
		Question:   trashed.Example.Question,
		MediaType:  trashed.Example.Diagram.MediaType,
		DeletedAt:  trashed.DeletedAt,
	}
}
