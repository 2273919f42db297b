// Package errors provides structured error types for the wayfinder application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP server and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The routing core distinguishes four failure classes, each with its own code
// so that callers can tell them apart without string matching:
//   - BUILD_FAILED: a floor asset could not be decoded or turned into a graph
//   - MISSING_LABEL: a start or end label does not exist in the graph
//   - NO_PATH: the search exhausted its frontier (a normal outcome)
//   - RECONSTRUCTION: a predecessor chain referenced an unknown label
//
// Input problems use the INVALID_* family. SUPERSEDED marks a session
// route that was cancelled because a newer request for the same session
// arrived.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingLabel, "start label %q not in graph", start)
//	if errors.Is(err, errors.ErrCodeMissingLabel) {
//	    // Ask the user to pick another location
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeBuildFailed, origErr, "floor %s", prefix)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFloor  Code = "INVALID_FLOOR"
	ErrCodeInvalidMode   Code = "INVALID_MODE"

	// Graph construction errors
	ErrCodeBuildFailed Code = "BUILD_FAILED"

	// Routing outcomes
	ErrCodeMissingLabel   Code = "MISSING_LABEL"
	ErrCodeNoPath         Code = "NO_PATH"
	ErrCodeReconstruction Code = "RECONSTRUCTION"
	ErrCodeSuperseded     Code = "SUPERSEDED"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
