// Package errors provides structured error types for netlayout.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the layout core, CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Layout stages report one of a small set of codes. None of them is
// recoverable by skipping work: a stage that fails leaves the graph in the
// state its predecessor produced.
//
//   - DUPLICATE_DEVICE_NAME: graph build saw the same device name twice
//   - INVALID_EDGE_INDEX: incidence matrix insert with an id outside [0,size)
//   - EMPTY_SEED_SET: layering invoked without first-level devices
//   - LAYERING_INCOMPLETE: BFS finished without visiting every device
//   - STAGE_PRECONDITION_VIOLATED: a stage ran before its predecessor
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptySeedSet, "no first-level devices")
//	if errors.Is(err, errors.ErrCodeEmptySeedSet) {
//	    // Ask the user to pick sources
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeParse, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph model and layout errors
	ErrCodeDuplicateDeviceName Code = "DUPLICATE_DEVICE_NAME"
	ErrCodeInvalidEdgeIndex    Code = "INVALID_EDGE_INDEX"
	ErrCodeEmptySeedSet        Code = "EMPTY_SEED_SET"
	ErrCodeLayeringIncomplete  Code = "LAYERING_INCOMPLETE"
	ErrCodeStagePrecondition   Code = "STAGE_PRECONDITION_VIOLATED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeParse         Code = "PARSE_ERROR"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeDeviceNotFound Code = "DEVICE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
	ErrCodeTimeout     Code = "TIMEOUT"
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

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case ErrCodeDuplicateDeviceName, ErrCodeEmptySeedSet, ErrCodeInvalidInput,
		ErrCodeInvalidConfig, ErrCodeParse, ErrCodeInvalidPath:
		return 400
	case ErrCodeNotFound, ErrCodeDeviceNotFound:
		return 404
	case ErrCodeLayeringIncomplete:
		return 422
	case ErrCodeUnsupported:
		return 501
	case ErrCodeTimeout:
		return 504
	default:
		return 500
	}
}
