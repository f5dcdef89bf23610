package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const (
	canDeleteKey contextKey = "canDelete"
)

// WithCanDelete records whether the request carries an unlocked admin session
func WithCanDelete(r *http.Request, canDelete bool) *http.Request {
	ctx := context.WithValue(r.Context(), canDeleteKey, canDelete)
	return r.WithContext(ctx)
}

// CanDelete reports the admin flag set by the session middleware, false if absent
func CanDelete(r *http.Request) bool {
	canDelete, _ := r.Context().Value(canDeleteKey).(bool)
	return canDelete
}
