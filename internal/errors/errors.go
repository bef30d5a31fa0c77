// Package errors provides the structured error types used by sqldiff.
// Every error carries a category, a code and a message so callers can
// decide whether a failure aborts a whole parse, a single assignment or
// just one generated statement.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by the phase that produced them.
type ErrorCategory string

const (
	ErrCategoryParse      ErrorCategory = "PARSE"
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryGeneration ErrorCategory = "GENERATION"
)

// Error codes for each category.
const (
	// Parse codes
	CodeMalformedDump    = "MALFORMED_DUMP"
	CodeUnexpectedRoot   = "UNEXPECTED_ROOT"
	CodeMissingDatabase  = "MISSING_DATABASE"
	CodeUnknownColumn    = "UNKNOWN_COLUMN"
	CodeForeignKeyLookup = "FOREIGN_KEY_LOOKUP"
	CodeReadFailed       = "READ_FAILED"
	CodeCanceled         = "CANCELED"

	// Validation codes
	CodeUnknownIndexType = "UNKNOWN_INDEX_TYPE"
	CodeDuplicateName    = "DUPLICATE_NAME"

	// Generation codes
	CodeUnresolvedForeignKey = "UNRESOLVED_FOREIGN_KEY"
	CodePrimaryKeyFold       = "PRIMARY_KEY_FOLD"
)

// SchemaError is the structured error type used throughout sqldiff.
type SchemaError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SchemaError) Is(target error) bool {
	var t *SchemaError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SchemaError.
func New(category ErrorCategory, code, message string) *SchemaError {
	return &SchemaError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new SchemaError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SchemaError {
	return &SchemaError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SchemaError.
func GetCategory(err error) ErrorCategory {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SchemaError.
func GetCode(err error) string {
	var se *SchemaError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsParse reports whether err is, or wraps, a parse error.
func IsParse(err error) bool {
	return GetCategory(err) == ErrCategoryParse
}

// IsValidation reports whether err is, or wraps, a validation error.
func IsValidation(err error) bool {
	return GetCategory(err) == ErrCategoryValidation
}

// IsGeneration reports whether err is, or wraps, a generation error.
func IsGeneration(err error) bool {
	return GetCategory(err) == ErrCategoryGeneration
}

// Convenience constructors for common errors.

// NewParseError creates a parse error
func NewParseError(code, message string, cause error) *SchemaError {
	return Wrap(ErrCategoryParse, code, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *SchemaError {
	return New(ErrCategoryValidation, code, message)
}

// NewGenerationError creates a generation error
func NewGenerationError(code, message string) *SchemaError {
	return New(ErrCategoryGeneration, code, message)
}
