package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCancelled indicates that an analysis pass was cancelled by the host.
	// No partial state is persisted when this is returned.
	ErrCancelled = errors.New("cancelled")

	// ErrHostUnavailable indicates that a required host interface is absent.
	ErrHostUnavailable = errors.New("host unavailable")

	// ErrStorage indicates that the durable key-value store failed.
	ErrStorage = errors.New("storage failure")
)

// StorageError provides details about a key-value store failure.
type StorageError struct {
	Op    string
	Key   string
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed for key %q: %v", e.Op, e.Key, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *StorageError) Unwrap() error {
	return ErrStorage
}

// NewStorageError creates a new StorageError.
func NewStorageError(op, key string, cause error) *StorageError {
	return &StorageError{Op: op, Key: key, Cause: cause}
}

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
