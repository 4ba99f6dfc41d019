// Package errors provides structured error types for the tailwater application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - DATA_FORMAT: Source table cannot be interpreted as a connectivity table
//   - STRUCTURAL: The connectivity graph violates a topology invariant
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDataFormat, "row %d: downstream reference is not an integer", row)
//	if errors.Is(err, errors.ErrCodeDataFormat) {
//	    // Handle malformed source table
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "decompose component %d", tw)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidColumn   Code = "INVALID_COLUMN"
	ErrCodeInvalidSentinel Code = "INVALID_SENTINEL"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"

	// Source table errors
	ErrCodeDataFormat Code = "DATA_FORMAT"

	// Graph topology errors
	ErrCodeStructural Code = "STRUCTURAL"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeSegmentNotFound Code = "SEGMENT_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StructuralError reports a topology invariant violation, carrying the
// segment ids that triggered it so callers can diagnose the source table.
type StructuralError struct {
	Message  string  // Which invariant was violated
	Segments []int64 // Offending segment ids (may be a sample)
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if len(e.Segments) == 0 {
		return fmt.Sprintf("structural error: %s", e.Message)
	}
	ids := make([]string, len(e.Segments))
	for i, s := range e.Segments {
		ids[i] = fmt.Sprintf("%d", s)
	}
	return fmt.Sprintf("structural error: %s (segments: %s)", e.Message, strings.Join(ids, ", "))
}

// Code returns the error code for this error type.
func (e *StructuralError) Code() Code {
	return ErrCodeStructural
}

// Structural creates a StructuralError wrapped in a coded Error so that
// both Is(err, ErrCodeStructural) and errors.As work on the result.
func Structural(message string, segments ...int64) *Error {
	return &Error{
		Code:    ErrCodeStructural,
		Message: message,
		Cause:   &StructuralError{Message: message, Segments: segments},
	}
}

// OffendingSegments extracts the offending segment ids from an error chain.
// Returns nil if the error carries no structural information.
func OffendingSegments(err error) []int64 {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Segments
	}
	return nil
}
