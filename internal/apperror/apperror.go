package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthorized returns an AppError for a rejected or absent credential.
// HTTP handlers map this to 401 Unauthorized. The message is safe to show
// to the caller; the wrapped cause carries the classification (missing
// header, bad signature, expired, wrong audience).
func Unauthorized(cause error, message string) *AppError {
	if cause == nil {
		cause = ErrUnauthorized
	}
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUnauthorized, cause),
		Message: message,
	}
}

// Upstream returns an AppError for a failure in an external platform call:
// a non-success response, a malformed payload, or a network-level fault.
// The user-facing message must never include credentials or raw upstream
// bodies; the cause stays on the chain for logging.
func Upstream(cause error, message string) *AppError {
	if cause == nil {
		cause = ErrUpstream
	}
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, cause),
		Message: message,
	}
}
