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

// Domain error types implementing the HTTPError interface
type (
	// NotFoundError indicates an explicitly targeted resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates malformed input (caller error, not retryable)
	ValidationError struct {
		Message string
	}

	// PersistenceError indicates an underlying store I/O failure. The failure
	// may be transient; the service does not retry internally beyond the
	// documented append retry, so callers decide whether to retry the request.
	PersistenceError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string    { return e.Message }
func (e *ValidationError) Error() string  { return e.Message }
func (e *PersistenceError) Error() string { return e.Message }

func (e *NotFoundError) StatusCode() int    { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int  { return http.StatusBadRequest }
func (e *PersistenceError) StatusCode() int { return http.StatusInternalServerError }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrPersistence = errors.New("persistence failure")
)

// Is implementations let errors.Is() match the typed errors against the
// sentinels, so both wrapping styles behave identically at call sites.
func (e *NotFoundError) Is(target error) bool    { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool  { return target == ErrValidation }
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
