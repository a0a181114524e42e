package errors

import (
	"fmt"
)

// DocdexError is the structured error type for docdex.
// It provides rich context for error handling, logging, and user presentation.
type DocdexError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *DocdexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *DocdexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with DocdexError.
func (e *DocdexError) Is(target error) bool {
	if t, ok := target.(*DocdexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *DocdexError) WithDetail(key, value string) *DocdexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new DocdexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *DocdexError {
	return &DocdexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a DocdexError from an existing error.
// The error's message becomes the DocdexError message.
func Wrap(code string, err error) *DocdexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *DocdexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// NotFoundError creates a missing file or folder error.
func NotFoundError(message string, cause error) *DocdexError {
	return New(ErrCodeFileNotFound, message, cause)
}

// DimensionError creates a vector dimension mismatch error.
func DimensionError(message string) *DocdexError {
	return New(ErrCodeDimensionMismatch, message, nil)
}

// EmbeddingError creates an embedding provider failure.
func EmbeddingError(message string, cause error) *DocdexError {
	return New(ErrCodeEmbeddingFailed, message, cause)
}

// PersistenceError creates a persistence layer failure.
func PersistenceError(message string, cause error) *DocdexError {
	return New(ErrCodePersistence, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *DocdexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a DocdexError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DocdexError); ok {
		return de.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if de, ok := err.(*DocdexError); ok {
		return de.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a DocdexError.
// Returns empty string if not a DocdexError.
func GetCode(err error) string {
	if de, ok := err.(*DocdexError); ok {
		return de.Code
	}
	return ""
}
