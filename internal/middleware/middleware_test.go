package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"diagramlab/internal/domain"
	"diagramlab/internal/domain/models"
	"diagramlab/internal/httputil"
)

type stubVerifier struct {
	valid map[string]bool
}

func (v stubVerifier) VerifyToken(token string) (*models.AdminClaims, error) {
	canDelete, ok := v.valid[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &models.AdminClaims{CanDelete: canDelete}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdminSession(t *testing.T) {
	verifier := stubVerifier{valid: map[string]bool{"admin": true, "reader": false}}

	tests := []struct {
		name          string
		header        string
		wantStatus    int
		wantCanDelete bool
	}{
		{"no header is read-only", "", http.StatusOK, false},
		{"valid admin token", "Bearer admin", http.StatusOK, true},
		{"valid token without delete", "Bearer reader", http.StatusOK, false},
		{"unknown token", "Bearer forged", http.StatusUnauthorized, false},
		{"wrong scheme", "Basic admin", http.StatusUnauthorized, false},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reached, canDelete bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				canDelete = httputil.CanDelete(r)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/examples", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			AdminSession(verifier, discardLogger())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if reached != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler reached = %v", reached)
			}
			if canDelete != tt.wantCanDelete {
				t.Errorf("canDelete = %v, want %v", canDelete, tt.wantCanDelete)
			}
		})
	}
}

func TestRecoveryReturns500(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRecoveryRepanicsOnAbort(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
}
