// Package errors provides standardized error messaging for the folding toolchain
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryLiteral    ErrorCategory = "LITERAL"
	CategoryArithmetic ErrorCategory = "ARITHMETIC"
	CategoryLimit      ErrorCategory = "LIMIT"
	CategoryValidation ErrorCategory = "VALIDATION"
	CategoryFormat     ErrorCategory = "FORMAT"
)

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return fmt.Sprintf("[%s:%s] %s (caller: %s)", e.Category, e.Code, e.Message, e.Caller)
}

// Is reports whether target is a StandardError with the same category and code.
// Message, context and caller are ignored so the sentinels below match any
// error built by the corresponding constructor.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	return newError(2, category, code, message, context)
}

// newError records the function skip frames up the stack as the caller.
// A skip of 2 names whoever called the function that calls newError.
func newError(skip int, category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	caller := "unknown"
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+1, pcs) > 0 {
		if frame, _ := runtime.CallersFrames(pcs).Next(); frame.Function != "" {
			caller = frame.Function
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// Sentinels for errors.Is
var (
	ErrMalformedLiteral   = &StandardError{Category: CategoryLiteral, Code: "MALFORMED_LITERAL"}
	ErrDivisionByZero     = &StandardError{Category: CategoryArithmetic, Code: "DIVISION_BY_ZERO"}
	ErrDepthExceeded      = &StandardError{Category: CategoryLimit, Code: "DEPTH_EXCEEDED"}
	ErrInvalidNode        = &StandardError{Category: CategoryValidation, Code: "INVALID_NODE"}
	ErrUnsupportedVersion = &StandardError{Category: CategoryFormat, Code: "UNSUPPORTED_VERSION"}
)

// Common error constructors
func MalformedLiteral(kind, text, operation string) *StandardError {
	return newError(2, CategoryLiteral, "MALFORMED_LITERAL",
		fmt.Sprintf("Literal %q is not a valid %s in %s operation", text, kind, operation),
		map[string]interface{}{"kind": kind, "text": text, "operation": operation})
}

func DivisionByZero(dividend string) *StandardError {
	return newError(2, CategoryArithmetic, "DIVISION_BY_ZERO",
		fmt.Sprintf("Integer division of %s by zero", dividend),
		map[string]interface{}{"dividend": dividend})
}

func DepthExceeded(depth, limit int) *StandardError {
	return newError(2, CategoryLimit, "DEPTH_EXCEEDED",
		fmt.Sprintf("Tree depth %d exceeds limit %d", depth, limit),
		map[string]interface{}{"depth": depth, "limit": limit})
}

func InvalidNode(details string) *StandardError {
	return newError(2, CategoryValidation, "INVALID_NODE",
		fmt.Sprintf("Invalid node: %s", details),
		map[string]interface{}{"details": details})
}

func UnsupportedVersion(version, constraint string) *StandardError {
	return newError(2, CategoryFormat, "UNSUPPORTED_VERSION",
		fmt.Sprintf("Document format version %s does not satisfy %s", version, constraint),
		map[string]interface{}{"version": version, "constraint": constraint})
}

// Is forwards to the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
