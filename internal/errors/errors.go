// Package errors provides the structured error type used across the
// vectorsync tool surface. Errors carry a code, category, and an optional
// suggestion so a failed index or query run reports a descriptive message
// instead of raising into the caller's control flow.
package errors

import (
	"errors"
	"fmt"
)

// Category groups errors by subsystem.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryStore    Category = "store"
	CategoryLoader   Category = "loader"
	CategoryChunking Category = "chunking"
	CategoryQuery    Category = "query"
	CategoryInternal Category = "internal"
)

// Error codes. The numeric band encodes the category.
const (
	ErrCodeConfigInvalid    = "ERR_100_CONFIG_INVALID"
	ErrCodeBackendUnknown   = "ERR_101_BACKEND_UNKNOWN"
	ErrCodeStoreUnavailable = "ERR_200_STORE_UNAVAILABLE"
	ErrCodeStoreIO          = "ERR_201_STORE_IO"
	ErrCodeLoaderFailed     = "ERR_300_LOADER_FAILED"
	ErrCodeChunkingFailed   = "ERR_400_CHUNKING_FAILED"
	ErrCodeQueryFailed      = "ERR_500_QUERY_FAILED"
	ErrCodeInternal         = "ERR_900_INTERNAL"
)

// Error is the structured error type for vectorsync.
type Error struct {
	// Code is the unique error code (e.g. "ERR_100_CONFIG_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the owning subsystem.
	Category Category

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates whether retrying the operation can help.
	Retryable bool

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so errors.Is works across wrapping.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithSuggestion attaches an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates an Error with category and retryability derived from the code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// ConfigError creates a construction-time configuration error. These abort
// indexing before any pipeline stage runs.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// BackendError creates an unknown-backend selection error.
func BackendError(message string) *Error {
	return New(ErrCodeBackendUnknown, message, nil)
}

// StoreError creates a vector store I/O error.
func StoreError(message string, cause error) *Error {
	return New(ErrCodeStoreIO, message, cause)
}

// QueryError creates a search-time error.
func QueryError(message string, cause error) *Error {
	return New(ErrCodeQueryFailed, message, cause)
}

// AsError extracts a *Error from an error chain, or wraps err as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(ErrCodeInternal, err.Error(), err)
}

func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStore
	case '3':
		return CategoryLoader
	case '4':
		return CategoryChunking
	case '5':
		return CategoryQuery
	default:
		return CategoryInternal
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeStoreUnavailable, ErrCodeStoreIO, ErrCodeLoaderFailed:
		return true
	default:
		return false
	}
}
