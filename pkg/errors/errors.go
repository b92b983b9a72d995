package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a caller-correctable input error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTransport indicates the external generation service was unreachable
	ErrorTypeTransport ErrorType = "TRANSPORT"

	// ErrorTypeTimeout indicates the external generation service did not answer in time
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeContentBlocked indicates the external service refused on policy grounds
	ErrorTypeContentBlocked ErrorType = "CONTENT_BLOCKED"

	// ErrorTypeMalformedResponse indicates the external service broke its response contract
	ErrorTypeMalformedResponse ErrorType = "MALFORMED_RESPONSE"

	// ErrorTypeUnrecoverableContent indicates even the safe fallback document failed validation
	ErrorTypeUnrecoverableContent ErrorType = "UNRECOVERABLE_CONTENT"

	// ErrorTypePersistence indicates the draft store was unavailable after retries
	ErrorTypePersistence ErrorType = "PERSISTENCE"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeInternal when err
// is not an AppError.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err carries the given ErrorType.
func IsType(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransport,
		Message: message,
		Err:     err,
	}
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// NewContentBlockedError creates a new content blocked error
func NewContentBlockedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeContentBlocked,
		Message: message,
	}
}

// NewMalformedResponseError creates a new malformed response error naming the
// missing or invalid field
func NewMalformedResponseError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeMalformedResponse,
		Message: message,
	}
}

// NewUnrecoverableContentError creates a new unrecoverable content error
func NewUnrecoverableContentError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnrecoverableContent,
		Message: message,
	}
}

// NewPersistenceError creates a new persistence error
func NewPersistenceError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypePersistence,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
