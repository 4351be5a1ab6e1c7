// Package errors provides structured error types for Warren.
//
// Errors carry a machine-readable [Code] so the CLI, the HTTP server and the
// pipeline can tell an author mistake in an arm configuration apart from a
// search that simply ran out of candidates.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input and configuration validation failures
//   - *_NOT_FOUND: Resource not found
//   - POOL_EMPTY, BRANCH_MISMATCH, INVALID_STATE: fatal arrangement invariants
//   - GENERATION_FAILED, BUDGET_EXHAUSTED: the search finished without a complete layout
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "arm %d: length %d < 0", id, n)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save layout %s", id)
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
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidStyle  Code = "INVALID_STYLE"
	ErrCodeInvalidSeed   Code = "INVALID_SEED"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeInvalidID     Code = "INVALID_ID"

	// Resource not found errors
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeLayoutNotFound Code = "LAYOUT_NOT_FOUND"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Arrangement invariant violations. These abort the whole attempt.
	ErrCodePoolEmpty      Code = "POOL_EMPTY"
	ErrCodeBranchMismatch Code = "BRANCH_MISMATCH"
	ErrCodeInvalidState   Code = "INVALID_STATE"

	// Arrangement outcomes that still carry a partial result.
	ErrCodeGenerationFailed Code = "GENERATION_FAILED"
	ErrCodeBudgetExhausted  Code = "BUDGET_EXHAUSTED"

	// Backend errors
	ErrCodeStorage Code = "STORAGE_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

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

// IsFatal reports whether err is an arrangement invariant violation.
// Fatal errors mean the configuration is inconsistent; retrying with another
// seed will not help.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodePoolEmpty, ErrCodeBranchMismatch, ErrCodeInvalidState, ErrCodeInvalidConfig:
		return true
	}
	return false
}

// IsIncomplete reports whether err signals a search that ended without a
// complete layout. Such errors accompany a best-effort partial result.
func IsIncomplete(err error) bool {
	switch GetCode(err) {
	case ErrCodeGenerationFailed, ErrCodeBudgetExhausted, ErrCodeTimeout:
		return true
	}
	return false
}
