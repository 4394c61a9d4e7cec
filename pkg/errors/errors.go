// Package errors provides structured error types for the bowtie compiler.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages with source line numbers
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - PARSE_*: Malformed source lines, fatal at first occurrence
//   - STRUCTURAL_*: Defects that prevent graph construction, fatal
//   - VALIDATION_*: Referential/uniqueness defects, accumulated into an Issues list
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.NewAt(errors.ErrCodeParseSyntax, 3, "unknown record keyword %q", tok)
//	if errors.Is(err, errors.ErrCodeParseSyntax) {
//	    // Handle parse error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "render %s", format)
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
	// Parse errors (fatal, reported with line number)
	ErrCodeParseSyntax         Code = "PARSE_SYNTAX"
	ErrCodeParseDuplicateTitle Code = "PARSE_DUPLICATE_TITLE"
	ErrCodeParseBarrierTargets Code = "PARSE_BARRIER_TARGETS"
	ErrCodeParseName           Code = "PARSE_NAME"

	// Structural errors (fatal, no valid graph can be built)
	ErrCodeStructuralNoEvent       Code = "STRUCTURAL_NO_EVENT"
	ErrCodeStructuralMultipleEvent Code = "STRUCTURAL_MULTIPLE_EVENT"

	// Validation errors (accumulated across the whole document)
	ErrCodeValidationDuplicateNode    Code = "VALIDATION_DUPLICATE_NODE"
	ErrCodeValidationDuplicateBarrier Code = "VALIDATION_DUPLICATE_BARRIER"
	ErrCodeValidationUnresolvedTarget Code = "VALIDATION_UNRESOLVED_TARGET"
	ErrCodeValidationAmbiguousTarget  Code = "VALIDATION_AMBIGUOUS_TARGET"

	// Input/output errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeNotFound      Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code, an optional source line, and an
// optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Line    int    // Source line number (1-based), 0 if not tied to a line
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
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

// NewAt creates a new Error tied to a source line.
func NewAt(code Code, line int, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
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
// For *Error types, returns the message (with line prefix) without the code.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Line > 0 {
			return fmt.Sprintf("line %d: %s", e.Line, e.Message)
		}
		return e.Message
	}
	return err.Error()
}

// Issues is a non-empty list of accumulated validation errors.
//
// The validator continues past the first defect so a user fixing one typo
// does not have to recompile to find the next. Parser and builder failures
// stay single *Error values; only validation produces an Issues list.
type Issues []*Error

// Error implements the error interface by joining all issue messages.
func (is Issues) Error() string {
	if len(is) == 0 {
		return "no issues"
	}
	msgs := make([]string, len(is))
	for i, e := range is {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation issue(s): %s", len(is), strings.Join(msgs, "; "))
}

// Codes returns the error codes of all issues, in order.
func (is Issues) Codes() []Code {
	codes := make([]Code, len(is))
	for i, e := range is {
		codes[i] = e.Code
	}
	return codes
}

// Has reports whether any issue carries the given code.
func (is Issues) Has(code Code) bool {
	for _, e := range is {
		if e.Code == code {
			return true
		}
	}
	return false
}

// AsIssues extracts an Issues list from an error.
// Returns nil, false if err is not an Issues value.
func AsIssues(err error) (Issues, bool) {
	var is Issues
	if errors.As(err, &is) {
		return is, true
	}
	return nil, false
}
