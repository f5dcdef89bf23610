package handler

import (
	"log/slog"
	"net/http"

	"diagramlab/internal/domain/models"
	"diagramlab/internal/httputil"
)

// SessionIssuer exchanges the admin password for a session
type SessionIssuer interface {
	Unlock(password string) (*models.Session, error)
}

// SessionHandler handles admin session requests
type SessionHandler struct {
	issuer SessionIssuer
	logger *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(issuer SessionIssuer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		issuer: issuer,
		logger: logger,
	}
}

type unlockRequest struct {
	Password string `json:"password"`
}

// SessionStatus reports whether the caller's session may delete
type SessionStatus struct {
	CanDelete bool `json:"can_delete"`
}

// Unlock exchanges the admin password for a session token
// POST /api/session/unlock
func (h *SessionHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req unlockRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		handleParseError(w, err)
		return
	}

	session, err := h.issuer.Unlock(req.Password)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

// Status reports the caller's current admin flag
// GET /api/session
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, SessionStatus{CanDelete: httputil.CanDelete(r)})
}

// HealthCheck reports liveness
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
