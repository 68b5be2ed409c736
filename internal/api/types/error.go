package types

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pagewatch/internal/storage"
)

// Error represents error information in API responses
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse creates an error API response
func ErrorResponse(code, message, details string) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// ErrorWithContext is an API error carrying its HTTP status. Handlers abort
// with it and the error middleware renders it into the response envelope.
type ErrorWithContext struct {
	Status  int
	Code    string
	Message string
	Details string
	Err     error
}

func (e *ErrorWithContext) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Details)
}

func (e *ErrorWithContext) Unwrap() error {
	return e.Err
}

// Response renders the error as an API response. Internal causes are never
// exposed to clients.
func (e *ErrorWithContext) Response() Response {
	return ErrorResponse(e.Code, e.Message, e.Details)
}

// ValidationError creates a 400 error
func ValidationError(details string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusBadRequest, Code: "VALIDATION_ERROR", Message: "Invalid input data", Details: details}
}

// AuthenticationError creates a 401 error
func AuthenticationError(details string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusUnauthorized, Code: "AUTHENTICATION_ERROR", Message: "Authentication failed", Details: details}
}

// NotFoundError creates a 404 error for resource
func NotFoundError(resource string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "Resource not found", Details: resource + " not found"}
}

// ConflictError creates a 409 error
func ConflictError(details string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusConflict, Code: "CONFLICT", Message: "Resource conflict", Details: details}
}

// UnsupportedMediaTypeError creates a 415 error
func UnsupportedMediaTypeError(details string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusUnsupportedMediaType, Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Unsupported media type", Details: details}
}

// UnavailableError creates a 503 error
func UnavailableError(details string) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusServiceUnavailable, Code: "UNAVAILABLE", Message: "Service unavailable", Details: details}
}

// InternalError creates a 500 error wrapping err
func InternalError(details string, err error) *ErrorWithContext {
	return &ErrorWithContext{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "Internal server error", Details: details, Err: err}
}

// StorageError maps a storage error onto the matching API error.
func StorageError(err error, resource string) *ErrorWithContext {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NotFoundError(resource)
	case errors.Is(err, storage.ErrConflict):
		return ConflictError(resource + " already exists")
	case errors.Is(err, storage.ErrInvalid):
		return ValidationError(err.Error())
	default:
		return InternalError("database operation failed", err)
	}
}

// AbortWithError records err on the context and stops the handler chain.
func AbortWithError(c *gin.Context, err *ErrorWithContext) {
	_ = c.Error(err)
	c.Abort()
}
