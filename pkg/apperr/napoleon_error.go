// Package apperr provides structured application errors with HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Auth errors
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeForbidden    = "FORBIDDEN"

	// Validation errors
	CodeBadRequest   = "BAD_REQUEST"
	CodeInvalidInput = "INVALID_INPUT"
	CodeMissingField = "MISSING_FIELD"

	// Resource errors
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"

	// State machine errors
	CodeInvalidTransition = "INVALID_TRANSITION"

	// External errors
	CodeDatabaseError = "DATABASE_ERROR"
	CodeExternalError = "EXTERNAL_ERROR"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeRateLimited   = "RATE_LIMITED"
	CodeTimeout       = "TIMEOUT"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

// Auth errors
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized}
}

func InvalidToken(message string) *AppError {
	return &AppError{Code: CodeInvalidToken, Message: message, Status: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden}
}

// Validation errors
func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest}
}

func InvalidInput(field, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf("invalid input for '%s': %s", field, reason),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

// Resource errors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Status: http.StatusConflict}
}

// InvalidTransition rejects an illegal state machine move.
func InvalidTransition(entity, from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("%s cannot transition from %s to %s", entity, from, to),
		Status:  http.StatusConflict,
		Details: map[string]any{"from": from, "to": to},
	}
}

// External errors
func DatabaseError(operation string, err error) *AppError {
	return &AppError{
		Code:    CodeDatabaseError,
		Message: fmt.Sprintf("database error: %s", operation),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func ExternalError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeExternalError,
		Message: fmt.Sprintf("external service error: %s", service),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// Internal errors
func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{Code: CodeInternalError, Message: message, Status: http.StatusInternalServerError}
}

func RateLimited(message string) *AppError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return &AppError{Code: CodeRateLimited, Message: message, Status: http.StatusTooManyRequests}
}

func Timeout(operation string) *AppError {
	return &AppError{
		Code:    CodeTimeout,
		Message: fmt.Sprintf("operation timed out: %s", operation),
		Status:  http.StatusGatewayTimeout,
	}
}

// Common error instances
var (
	ErrNotFound     = NotFound("resource")
	ErrUnauthorized = Unauthorized("")
	ErrForbidden    = Forbidden("")
	ErrBadRequest   = BadRequest("bad request")
	ErrInternal     = Internal("")
)

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From extracts an AppError, wrapping unknown errors as internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}
