package domain

import (
	"errors"
	"net/http"
)

// HTTPError is implemented by domain errors that map to a specific HTTP
// status code, so the handler layer never needs a type switch per error.
type HTTPError interface {
	error
	StatusCode() int
}

type (
	// NotFoundError covers both "row does not exist" and "row exists but is
	// not visible to the caller"; the two are intentionally
	// indistinguishable so that probing ids leaks nothing.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input: missing name, depth limit
	// exceeded, or a move that would create a cycle.
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates the request carried no valid identity.
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates the caller is authenticated but lacks
	// ownership rights for the requested mutation.
	ForbiddenError struct {
		Message string
	}
)

func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Sentinel errors for use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// ConflictError reports a duplicate resource along with the id of the row
// that already holds the contested value.
type ConflictError struct {
	Message      string
	ResourceType string // folder, case, file
	ResourceID   string
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
