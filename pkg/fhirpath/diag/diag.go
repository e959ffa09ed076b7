// Package diag defines the diagnostic type shared by every stage of the
// FHIRPath engine: lexer, parser, optimizer, and evaluator all report
// failures through the same Diagnostic shape so callers can match on Kind
// instead of parsing messages.
package diag

import "fmt"

// Kind categorizes a Diagnostic. Callers match on Kind, never on Message.
type Kind int

const (
	// Lex indicates tokenization failed.
	Lex Kind = iota
	// Parse indicates the token stream did not fit the grammar.
	Parse
	// Type indicates an operator or function received inputs of an
	// incompatible shape.
	Type
	// Arity indicates a function was called with the wrong number of
	// arguments.
	Arity
	// UnknownFunction indicates a function name was not found in the
	// registry.
	UnknownFunction
	// UnknownIdentifier indicates a variable or identifier could not be
	// resolved in strict mode.
	UnknownIdentifier
	// Arithmetic indicates an arithmetic operation outside the short
	// list that yields Empty instead of failing.
	Arithmetic
	// TypeConversion indicates a strict-mode conversion failed.
	TypeConversion
	// InvalidDateTime indicates a well-formed but impossible date/time
	// literal (e.g. month 13).
	InvalidDateTime
	// Internal indicates cancellation, a depth-limit breach, or a
	// node-visit-limit breach.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "Lex"
	case Parse:
		return "Parse"
	case Type:
		return "Type"
	case Arity:
		return "Arity"
	case UnknownFunction:
		return "UnknownFunction"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	case Arithmetic:
		return "Arithmetic"
	case TypeConversion:
		return "TypeConversion"
	case InvalidDateTime:
		return "InvalidDateTime"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Span is a byte-offset range into the original expression text.
type Span struct {
	Start int
	End   int
}

// Diagnostic is the single error type produced by every stage of the
// engine. Kind is what callers branch on; Message is for humans.
type Diagnostic struct {
	Kind    Kind
	Message string
	Span    Span
	Cause   error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Span.Start != 0 || d.Span.End != 0 {
		return fmt.Sprintf("%s at [%d..%d]: %s", d.Kind, d.Span.Start, d.Span.End, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// Unwrap returns the underlying cause, if any.
func (d *Diagnostic) Unwrap() error {
	return d.Cause
}

// New creates a Diagnostic with a formatted message.
func New(kind Kind, span Span, format string, args ...interface{}) *Diagnostic {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Diagnostic{Kind: kind, Message: msg, Span: span}
}

// WithCause attaches an underlying error and returns the receiver.
func (d *Diagnostic) WithCause(err error) *Diagnostic {
	d.Cause = err
	return d
}

// UnknownFunctionError builds an UnknownFunction diagnostic, optionally
// listing up to three suggested names.
func UnknownFunctionError(span Span, name string, suggestions []string) *Diagnostic {
	if len(suggestions) == 0 {
		return New(UnknownFunction, span, "unknown function '%s'", name)
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return New(UnknownFunction, span, "unknown function '%s'; did you mean: %v", name, suggestions)
}

// ArityError builds an Arity diagnostic.
func ArityError(span Span, name string, min, max, got int) *Diagnostic {
	if min == max {
		return New(Arity, span, "function '%s' expects %d argument(s), got %d", name, min, got)
	}
	return New(Arity, span, "function '%s' expects between %d and %d argument(s), got %d", name, min, max, got)
}

// TypeErrorf builds a Type diagnostic.
func TypeErrorf(span Span, format string, args ...interface{}) *Diagnostic {
	return New(Type, span, format, args...)
}

// Internalf builds an Internal diagnostic (cancellation, depth cap, node
// visit cap).
func Internalf(span Span, format string, args ...interface{}) *Diagnostic {
	return New(Internal, span, format, args...)
}
