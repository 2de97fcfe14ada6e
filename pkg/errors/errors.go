// Package errors provides structured error types for the nimantran backend.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes mirror the failure taxonomy of the rendering pipeline:
//   - VALIDATION / INSUFFICIENT_BALANCE: pre-flight failures, the batch never starts
//   - RESOURCE_UNAVAILABLE: a font or template could not be located
//   - COMPOSITE_FAILED: one guest's render failed, the batch continues
//   - PERSISTENCE_FAILED: upload or roster sync failed after streaming began
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "missing event id")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeResourceUnavailable, origErr, "fetch font %q", family)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Pre-flight errors; when raised the batch never starts.
	ErrCodeValidation          Code = "VALIDATION"
	ErrCodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"

	// Resource resolution errors. Template-level instances are batch-fatal,
	// font-level instances are scoped to one guest.
	ErrCodeResourceUnavailable Code = "RESOURCE_UNAVAILABLE"

	// Per-guest compositing failure; the batch continues.
	ErrCodeCompositeFailed Code = "COMPOSITE_FAILED"

	// Upload or roster-sync failure after the stream started.
	ErrCodePersistenceFailed Code = "PERSISTENCE_FAILED"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeEventNotFound Code = "EVENT_NOT_FOUND"
	ErrCodeUserNotFound  Code = "USER_NOT_FOUND"

	// Per-guest work exceeded the configured deadline.
	ErrCodeTimeout Code = "TIMEOUT"

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

// IsPreflight reports whether err belongs to the pre-flight category:
// failures that must be returned synchronously before any rendering begins.
func IsPreflight(err error) bool {
	switch GetCode(err) {
	case ErrCodeValidation, ErrCodeInsufficientBalance, ErrCodeEventNotFound, ErrCodeUserNotFound:
		return true
	}
	return false
}
