// Package apperr defines the error taxonomy surfaced by the study services.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers.
type Code string

const (
	// CodeNotFound covers absent entities and entities owned by someone else.
	CodeNotFound Code = "NOT_FOUND"
	// CodeInvalidInput indicates malformed or out of range input.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeConflict indicates contention that outlived the retry budget.
	CodeConflict Code = "CONFLICT"
	// CodeInternal indicates a storage or infrastructure failure.
	CodeInternal Code = "INTERNAL"
)

// Error is a classified error.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so errors.Is(err, apperr.NotFound("")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NotFound creates a not-found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// InvalidInput creates an invalid-input error.
func InvalidInput(msg string, cause error) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg, Cause: cause}
}

// Conflict creates a conflict error.
func Conflict(msg string, cause error) *Error {
	return &Error{Code: CodeConflict, Message: msg, Cause: cause}
}

// Internal creates an internal error.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf returns the code of the first *Error in err's chain.
// Unclassified errors are internal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
