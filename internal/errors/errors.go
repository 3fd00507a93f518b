// Package errors defines the typed error taxonomy for the analysis pipeline.
// Fatal errors (missing root, cancellation) carry enough context to surface to
// the caller; per-file failures are marked recoverable and absorbed at the
// batch boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType classifies analysis errors
type ErrorType string

const (
	// Path errors
	ErrorTypePathNotFound ErrorType = "path_not_found"
	ErrorTypePermission   ErrorType = "permission"

	// Run errors
	ErrorTypeCancelled ErrorType = "cancelled"
	ErrorTypeDiscovery ErrorType = "discovery"

	// Per-file errors
	ErrorTypeFileRead ErrorType = "file_read"
	ErrorTypeExtract  ErrorType = "extract"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"

	// Internal errors
	ErrorTypeInternal ErrorType = "internal"
)

// AnalysisError represents an error during project or file analysis
type AnalysisError struct {
	Type        ErrorType
	Path        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewAnalysisError creates a new analysis error with context
func NewAnalysisError(errorType ErrorType, op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:       errorType,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewPathNotFound creates the fatal error for a missing or unreadable root
func NewPathNotFound(path string, err error) *AnalysisError {
	return &AnalysisError{
		Type:       ErrorTypePathNotFound,
		Path:       path,
		Operation:  "stat",
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewCancelled wraps a context error as a cancellation
func NewCancelled(op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:       ErrorTypeCancelled,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewFileError creates a recoverable per-file error
func NewFileError(op, path string, err error) *AnalysisError {
	return &AnalysisError{
		Type:        ErrorTypeFileRead,
		Path:        path,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// WithPath adds path information to the error
func (e *AnalysisError) WithPath(path string) *AnalysisError {
	e.Path = path
	return e
}

// WithRecoverable marks the error as recoverable
func (e *AnalysisError) WithRecoverable(recoverable bool) *AnalysisError {
	e.Recoverable = recoverable
	return e
}

// Error implements the error interface
func (e *AnalysisError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Path, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable checks if the error can be absorbed without aborting the run
func (e *AnalysisError) IsRecoverable() bool {
	return e.Recoverable
}

// IsPathNotFound reports whether err is a missing-root error
func IsPathNotFound(err error) bool {
	var ae *AnalysisError
	return stderrors.As(err, &ae) && ae.Type == ErrorTypePathNotFound
}

// IsCancelled reports whether err is a cancellation error
func IsCancelled(err error) bool {
	var ae *AnalysisError
	return stderrors.As(err, &ae) && ae.Type == ErrorTypeCancelled
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping nil entries
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
