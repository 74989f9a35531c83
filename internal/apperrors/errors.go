// Package apperrors defines the error taxonomy surfaced to API callers.
// Every error carries a machine-readable kind, the HTTP status it maps
// to, and a human-readable message.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable error category.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindFeatureDisabled Kind = "feature_disabled"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// AppError represents a standardized application error.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"` // internal cause, for logging only
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can compare against sentinel kinds.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if errors.As(target, &appErr) {
		return e.Kind == appErr.Kind
	}
	return false
}

// New creates a new AppError.
func New(kind Kind, code int, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

// Validation creates a 400 validation error.
func Validation(message string) *AppError {
	return New(KindValidation, http.StatusBadRequest, message, nil)
}

// Validationf creates a 400 validation error with formatting.
func Validationf(format string, args ...any) *AppError {
	return Validation(fmt.Sprintf(format, args...))
}

// Conflict creates a 400 conflict error.
func Conflict(message string) *AppError {
	return New(KindConflict, http.StatusBadRequest, message, nil)
}

// FeatureDisabled creates a 403 feature-toggle error.
func FeatureDisabled(message string) *AppError {
	return New(KindFeatureDisabled, http.StatusForbidden, message, nil)
}

// Forbidden creates a 403 permission error.
func Forbidden(message string) *AppError {
	return New(KindForbidden, http.StatusForbidden, message, nil)
}

// NotFound creates a 404 error.
func NotFound(message string) *AppError {
	return New(KindNotFound, http.StatusNotFound, message, nil)
}

// Internal creates a 500 error wrapping the cause.
func Internal(err error) *AppError {
	return New(KindInternal, http.StatusInternalServerError, "internal server error", err)
}

// From converts any error to an *AppError, wrapping unknown errors as
// internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
