// Package domain defines core records, run states, and errors for the ETL platform.
package domain

import "fmt"

// MissingInputError indicates a required raw relation is absent when a stage
// references it. Fatal: aborts the pipeline.
type MissingInputError struct {
	Message string
}

func (e *MissingInputError) Error() string { return e.Message }

// SchemaError indicates a required column is absent or of the wrong shape.
// Fatal: aborts the pipeline.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string { return e.Message }

// IOError indicates an output directory or file could not be created or
// written. Fatal: aborts the pipeline.
type IOError struct {
	Message string
}

func (e *IOError) Error() string { return e.Message }

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrMissingInput creates a MissingInputError with a formatted message.
func ErrMissingInput(format string, args ...interface{}) *MissingInputError {
	return &MissingInputError{Message: fmt.Sprintf(format, args...)}
}

// ErrSchema creates a SchemaError with a formatted message.
func ErrSchema(format string, args ...interface{}) *SchemaError {
	return &SchemaError{Message: fmt.Sprintf(format, args...)}
}

// ErrIO creates an IOError with a formatted message.
func ErrIO(format string, args ...interface{}) *IOError {
	return &IOError{Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
