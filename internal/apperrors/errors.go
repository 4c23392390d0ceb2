// Package apperrors defines the error taxonomy shared across components.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class.
type Code string

const (
	CodeConfiguration      Code = "CONFIGURATION"       // gateway credential missing or invalid
	CodeEmptyProject       Code = "EMPTY_PROJECT"       // no files to analyze or convert
	CodeGatewayUnavailable Code = "GATEWAY_UNAVAILABLE" // gateway unreachable or returned no text
	CodeSchemaViolation    Code = "SCHEMA_VIOLATION"    // gateway responded outside the agreed shape
	CodeConversionFailed   Code = "CONVERSION_FAILED"   // per-file conversion failed, cause wrapped
	CodeInternal           Code = "INTERNAL"
)

// Error carries a code, a message, and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewConfiguration creates a fatal configuration error. It blocks any
// gateway call until fixed.
func NewConfiguration(msg string) *Error {
	return &Error{Code: CodeConfiguration, Message: msg}
}

// NewEmptyProject creates the error returned when zero files are supplied.
func NewEmptyProject() *Error {
	return &Error{Code: CodeEmptyProject, Message: "no files to analyze or convert"}
}

// NewGatewayUnavailable wraps a transport-level failure.
func NewGatewayUnavailable(err error) *Error {
	return &Error{Code: CodeGatewayUnavailable, Message: "gateway unreachable or returned no text", Err: err}
}

// NewSchemaViolation flags a gateway reply that does not conform to the
// requested schema.
func NewSchemaViolation(msg string) *Error {
	return &Error{Code: CodeSchemaViolation, Message: msg}
}

// NewConversionFailed wraps the underlying cause of a failed per-file
// conversion.
func NewConversionFailed(path string, err error) *Error {
	return &Error{Code: CodeConversionFailed, Message: fmt.Sprintf("conversion failed for %s", path), Err: err}
}

// NewInternal wraps an unexpected failure.
func NewInternal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", Err: err}
}

// CodeOf extracts the taxonomy code from an error chain. Unclassified
// errors report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsConfiguration reports whether the error chain carries the
// configuration code. The orchestrator uses this to abort a batch early.
func IsConfiguration(err error) bool {
	return CodeOf(err) == CodeConfiguration
}
