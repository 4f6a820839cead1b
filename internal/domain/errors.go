// Package domain defines core types, interfaces, and errors for the data lake.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource or stale version).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// TransientError wraps a storage I/O failure that may succeed on retry.
type TransientError struct {
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TransientError) Unwrap() error { return e.Err }

// PartialFailureError indicates the table data was rewritten but the catalog
// no longer matches it: the single most important failure mode of schema
// evolution. It carries enough context for a manual rollback.
type PartialFailureError struct {
	Table          string
	Step           string
	BackupLocation string
	Err            error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("partial failure evolving table %q at step %s (data rewritten, catalog inconsistent; backup at %s): %v",
		e.Table, e.Step, e.BackupLocation, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrTransient wraps err as a TransientError with a formatted message.
func ErrTransient(err error, format string, args ...interface{}) *TransientError {
	return &TransientError{Message: fmt.Sprintf(format, args...), Err: err}
}
