package errors

import (
	"fmt"
	"net/http"
)

// Error codes used across the service.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeGatewayError    = "GATEWAY_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeInternalError   = "INTERNAL_ERROR"
)

// AppError is an application error carrying the HTTP status it maps to and
// a stable machine-readable code.
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(code string, message string) *AppError {
	return NewError(http.StatusNotFound, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// NewSessionNotFoundError reports an unknown session id.
func NewSessionNotFoundError(sessionID uint) *AppError {
	return NewNotFoundError(CodeSessionNotFound, "Session not found").
		WithDetails(map[string]any{"session_id": sessionID})
}

// NewGatewayError reports an upstream completion failure. Gateway faults
// are never retried locally; they surface to the caller as a bad gateway.
func NewGatewayError(err error) *AppError {
	return &AppError{
		StatusCode: http.StatusBadGateway,
		Code:       CodeGatewayError,
		Message:    fmt.Sprintf("completion provider call failed: %s", err.Error()),
	}
}

// NewStorageError reports a persistence-layer failure.
func NewStorageError(err error) *AppError {
	return &AppError{
		StatusCode: http.StatusInternalServerError,
		Code:       CodeStorageError,
		Message:    fmt.Sprintf("storage operation failed: %s", err.Error()),
	}
}

// FromError converts a standard error to an AppError. If the error is
// already an AppError it is returned as-is; otherwise it is wrapped as an
// internal server error.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return appErr
	}

	return NewInternalServerError(
		CodeInternalError,
		fmt.Sprintf("An unexpected error occurred: %s", err.Error()),
	)
}

// IsCode checks whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	return appErr.Code == code
}

// GetStatusCode extracts the HTTP status code from an AppError, returns 500 if not an AppError
func GetStatusCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
