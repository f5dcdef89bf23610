package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// ForbiddenError indicates the caller lacks delete permission
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string   { return e.Message }
func (e *ValidationError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string  { return e.Message }

func (e *NotFoundError) StatusCode() int   { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }
func (e *ForbiddenError) StatusCode() int  { return http.StatusForbidden }

// Is allows errors.Is() to match the typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool   { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ForbiddenError) Is(target error) bool  { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrBackendUnavailable covers network, auth and timeout failures
	// talking to the generative backend.
	ErrBackendUnavailable = errors.New("generation backend unavailable")

	// ErrBackendRejected means the backend refused the request as malformed.
	ErrBackendRejected = errors.New("generation backend rejected request")

	// ErrMalformedDiagram is only returned by the strict response parser
	// when an opening <svg tag has no matching close tag.
	ErrMalformedDiagram = errors.New("malformed diagram")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // "example" or "trashed_example"
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string {
	return e.Message
}

func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// BackendError wraps a failed call to a generative backend with the
// provider name and, when known, the upstream HTTP status.
type BackendError struct {
	Provider string
	Status   int
	Kind     error // ErrBackendUnavailable or ErrBackendRejected
	Err      error
}

func (e *BackendError) Error() string {
	if e.Err == nil {
		return e.Provider + ": " + e.Kind.Error()
	}
	return e.Provider + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *BackendError) StatusCode() int {
	if errors.Is(e.Kind, ErrBackendRejected) {
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

// ClassifyStatus maps an upstream HTTP status to the backend error taxonomy.
// Auth failures, throttling and server errors are "unavailable";
// remaining 4xx responses mean the backend rejected the request.
func ClassifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status == http.StatusRequestTimeout,
		status >= 500:
		return ErrBackendUnavailable
	case status >= 400:
		return ErrBackendRejected
	default:
		return ErrBackendUnavailable
	}
}
