// Package core holds the error taxonomy and probe outcomes shared by the
// dialect registry, the dialects and the converter.
package core

import (
	"fmt"
)

// ConversionError represents a structured error with category and details
type ConversionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: wrong_format, parser_fault, etc.
	Message  string                 // Human-readable message
	Dialect  string                 // Dialect identifier, if known
	Line     int                    // 1-based source line, 0 when unknown
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	msg := e.Message
	if e.Dialect != "" {
		msg = fmt.Sprintf("%s: %s", e.Dialect, msg)
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// Is matches predefined errors by code, so errors.Is(err, ErrFormat) holds
// for every copy derived from ErrFormat.
func (e *ConversionError) Is(target error) bool {
	t, ok := target.(*ConversionError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ConversionError) WithCause(cause error) *ConversionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with a custom message
func (e *ConversionError) WithMessage(msg string) *ConversionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithDialect returns a copy of the error attributed to a dialect
func (e *ConversionError) WithDialect(dialect string) *ConversionError {
	c := e.clone()
	c.Dialect = dialect
	return c
}

// WithLine returns a copy of the error pointing at a source line
func (e *ConversionError) WithLine(line int) *ConversionError {
	c := e.clone()
	c.Line = line
	return c
}

// WithDetails returns a copy of the error with additional details
func (e *ConversionError) WithDetails(details map[string]interface{}) *ConversionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	c := e.clone()
	c.Details = merged
	return c
}

func (e *ConversionError) clone() *ConversionError {
	return &ConversionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Dialect:  e.Dialect,
		Line:     e.Line,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	ErrFormat = &ConversionError{
		Category: ErrCategoryFormat,
		Code:     "wrong_format",
		Message:  "input does not match the expected structure for this dialect",
	}
	ErrParserFault = &ConversionError{
		Category: ErrCategoryFault,
		Code:     "parser_fault",
		Message:  "dialect implementation failed while probing input",
	}
	ErrUnknownDialect = &ConversionError{
		Category: ErrCategoryContract,
		Code:     "unknown_dialect",
		Message:  "flow references a dialect that is not registered",
	}
	ErrGenerate = &ConversionError{
		Category: ErrCategoryGenerate,
		Code:     "generate_failed",
		Message:  "could not generate dialect text",
	}
	ErrInvalidConfig = &ConversionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
)

// NewFormatError creates a FormatError for a dialect, pointing at a line
// when known and carrying a more specific reason.
func NewFormatError(dialect string, line int, reason string) *ConversionError {
	err := ErrFormat.WithDialect(dialect).WithLine(line)
	if reason != "" {
		err.Message = fmt.Sprintf("%s: %s", ErrFormat.Message, reason)
	}
	return err
}

// NewConversionError creates a new ConversionError with the given parameters
func NewConversionError(category ErrorCategory, code, message string) *ConversionError {
	return &ConversionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
