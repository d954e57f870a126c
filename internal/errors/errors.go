// Package errors provides the application error taxonomy for the reference
// data API. Every service-layer error should be an *AppError so handlers can
// render the response envelope without leaking internal details.
package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
// Fields carries per-field messages for validation style errors; Details
// carries arbitrary context such as the colliding natural key of a conflict.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	StatusCode int               `json:"-"`
	Internal   error             `json:"-"`
	Fields     map[string]string `json:"fields,omitempty"`
	Details    map[string]any    `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// IsServerFault reports whether the error must be rendered as a generic 5xx.
func (e *AppError) IsServerFault() bool { return e.StatusCode >= http.StatusInternalServerError }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithFields creates a new AppError carrying per-field messages.
func WithFields(sentinel *AppError, fields map[string]string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Fields:     fields,
	}
}

// FieldError creates an AppError carrying per-field messages whose Message
// also names every field, as "<sentinel message>: field reason; ...".
func FieldError(sentinel *AppError, fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+fields[name])
	}
	e := WithFields(sentinel, fields)
	e.Message = sentinel.Message + ": " + strings.Join(parts, "; ")
	return e
}

// WithDetails creates a new AppError with a custom message and context values.
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Details:    details,
	}
}

// HasCode reports whether err is an *AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "not allowed", StatusCode: http.StatusForbidden}
)

// Request errors, detected before any transaction is opened.
var (
	ErrInvalidInput = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrValidation   = &AppError{Code: "VALIDATION_ERROR", Message: "Validation failed", StatusCode: http.StatusBadRequest}
	ErrReference    = &AppError{Code: "REFERENCE_ERROR", Message: "Referenced record not found", StatusCode: http.StatusBadRequest}
	ErrConflict     = &AppError{Code: "CONFLICT", Message: "Record is already present", StatusCode: http.StatusConflict}
	ErrNotFound     = &AppError{Code: "NOT_FOUND", Message: "Record not found", StatusCode: http.StatusNotFound}
)

// Server faults. Clients only ever see the generic message.
var (
	ErrMutationFailed = &AppError{Code: "MUTATION_FAILED", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrSequenceFailed = &AppError{Code: "SEQUENCE_FAILED", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)
