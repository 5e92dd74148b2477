package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrDocumentNotFound   = fmt.Errorf("document: %w", ErrNotFound)
	ErrShapeNotFound      = fmt.Errorf("shape: %w", ErrNotFound)
	ErrUnsupportedFormat  = fmt.Errorf("format: %w", ErrUnsupported)
	ErrInvalidSRID        = fmt.Errorf("srid: %w", ErrInvalidInput)
	ErrNotReady           = fmt.Errorf("service not ready: %w", ErrUnavailable)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
)

// ErrFormat is the parent of every construction grammar and shape
// integrity violation raised by the spatial pipeline.
var ErrFormat = fmt.Errorf("invalid spatial data: %w", ErrInvalidInput)

// ErrInvalidOperation is returned when a builder is used out of order.
var ErrInvalidOperation = errors.New("invalid operation")

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// DocumentError represents a failure to process a document.
type DocumentError struct {
	DocumentID string // Document identifier
	Stage      string // decode, pipeline, encode, persist
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("document %s failed during %s: %v", e.DocumentID, e.Stage, e.Err)
	}
	return fmt.Sprintf("document failed during %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (read, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
