// Package eval provides the FHIRPath expression evaluator.
package eval

import (
	"fmt"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
)

// ErrorType is an alias for diag.Kind: every evaluation failure in this
// package and the function library is, underneath, a single
// diag.Diagnostic that callers match on by Kind, never on message text.
type ErrorType = diag.Kind

const (
	ErrParse             = diag.Parse
	ErrType              = diag.Type
	ErrSingletonExpected = diag.Type
	ErrFunctionNotFound  = diag.UnknownFunction
	ErrInvalidArguments  = diag.Arity
	ErrDivisionByZero    = diag.Arithmetic
	ErrInvalidPath       = diag.UnknownIdentifier
	ErrTimeout           = diag.Internal
	ErrInvalidOperation  = diag.Type
	ErrInvalidExpression = diag.Parse
)

// EvalError is an alias for diag.Diagnostic, kept so existing call sites
// in this package read naturally.
type EvalError = diag.Diagnostic

// NewEvalError creates a new evaluation error. Supports format strings
// like fmt.Sprintf.
func NewEvalError(errType ErrorType, format string, args ...interface{}) *EvalError {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &diag.Diagnostic{Kind: errType, Message: msg}
}

// ParseError creates a parsing error.
func ParseError(message string) *EvalError {
	return NewEvalError(ErrParse, message)
}

// TypeError creates a type mismatch error.
func TypeError(expected, actual, operation string) *EvalError {
	return NewEvalError(ErrType, "expected %s, got %s in %s", expected, actual, operation)
}

// SingletonError creates a singleton-expected error.
func SingletonError(count int) *EvalError {
	return NewEvalError(ErrSingletonExpected, "expected single value, got %d elements", count)
}

// FunctionNotFoundError creates an unknown-function error.
func FunctionNotFoundError(name string) *EvalError {
	return NewEvalError(ErrFunctionNotFound, "unknown function '%s'", name)
}

// FunctionNotFoundErrorWithSuggestions is like FunctionNotFoundError but
// includes up to three nearest-name suggestions.
func FunctionNotFoundErrorWithSuggestions(name string, suggestions []string) *EvalError {
	if len(suggestions) == 0 {
		return FunctionNotFoundError(name)
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return NewEvalError(ErrFunctionNotFound, "unknown function '%s'; did you mean: %v", name, suggestions)
}

// InvalidArgumentsError creates an arity error.
func InvalidArgumentsError(funcName string, expected, actual int) *EvalError {
	return NewEvalError(ErrInvalidArguments, "function '%s' expects %d arguments, got %d", funcName, expected, actual)
}

// DivisionByZeroError creates a division-by-zero error. The evaluator's
// arithmetic dispatch intercepts this kind and converts it to an empty
// collection rather than propagating it: division by zero is not a fault.
func DivisionByZeroError() *EvalError {
	return NewEvalError(ErrDivisionByZero, "division by zero")
}

// InvalidPathError creates an invalid-path error.
func InvalidPathError(path string) *EvalError {
	return NewEvalError(ErrInvalidPath, "invalid path '%s'", path)
}

// InvalidOperationError creates a type error describing an unsupported
// operator/operand combination.
func InvalidOperationError(op, leftType, rightType string) *EvalError {
	return NewEvalError(ErrInvalidOperation, "cannot apply '%s' to %s and %s", op, leftType, rightType)
}
