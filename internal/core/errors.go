package core

import (
	"fmt"
	"net/http"
)

// ErrorType classifies errors surfaced at the HTTP boundary.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a client error (4xx)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeAuthentication indicates an authentication error (401)
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeNotFound indicates a missing chat, message, or profile (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeUpstream indicates a completion-API failure (502)
	ErrorTypeUpstream ErrorType = "upstream_error"
	// ErrorTypeStorage indicates a database failure (500)
	ErrorTypeStorage ErrorType = "storage_error"
)

// AppError is the base error type crossing the service boundary.
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status appropriate for this error type.
func (e *AppError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to the wire shape clients receive.
func (e *AppError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewInvalidRequestError creates a new invalid request error (400)
func NewInvalidRequestError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInvalidRequest, Message: message, Err: err}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// NewUpstreamError creates a new upstream completion-API error (502)
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeUpstream, Message: message, Err: err}
}

// NewStorageError creates a new storage error (500)
func NewStorageError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeStorage, Message: message, Err: err}
}
