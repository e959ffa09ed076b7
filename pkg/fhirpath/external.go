package fhirpath

import (
	"encoding/json"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/ast"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// Validate reports whether expr is syntactically well formed, without
// evaluating it. Unlike Compile/Evaluate, Validate never raises: any
// problem is reported as (false, diagnostic) rather than a panic or an
// error return, so callers can surface it directly to an end user.
func Validate(expr string) (bool, *diag.Diagnostic) {
	if expr == "" {
		return false, diag.New(diag.Parse, diag.Span{}, "empty expression")
	}
	if _, err := ast.Parse(expr); err != nil {
		return false, err
	}
	return true, nil
}

// AST parses expr and returns its parse tree as JSON, without
// evaluating it. Tooling that inspects or renders an expression's
// structure uses this instead of linking against the ast package.
func AST(expr string) (json.RawMessage, *diag.Diagnostic) {
	if expr == "" {
		return nil, diag.New(diag.Parse, diag.Span{}, "empty expression")
	}
	tree, err := ast.Parse(expr)
	if err != nil {
		return nil, err
	}
	data, merr := json.Marshal(tree)
	if merr != nil {
		return nil, diag.Internalf(diag.Span{}, "failed to marshal AST: %s", merr.Error())
	}
	return data, nil
}

// taggedElement is the wire shape for one collection element: its
// FHIRPath type name alongside its value, so an external consumer can
// tell a String "1" apart from an Integer 1 without re-parsing.
type taggedElement struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// SerializeCollection renders a Collection as {type, value} tagged
// elements, with an empty collection serializing to `[]`.
func SerializeCollection(col types.Collection) (json.RawMessage, error) {
	elements := make([]taggedElement, len(col))
	for i, v := range col {
		raw, err := elementJSON(v)
		if err != nil {
			return nil, err
		}
		elements[i] = taggedElement{Type: v.Type(), Value: raw}
	}
	return json.Marshal(elements)
}

// elementJSON renders a single Value's JSON payload: an ObjectValue uses
// its already-parsed source bytes directly (avoiding a re-marshal round
// trip), everything else renders through its FHIRPath String() form.
func elementJSON(v types.Value) (json.RawMessage, error) {
	if obj, ok := v.(*types.ObjectValue); ok {
		return obj.Data(), nil
	}
	return json.Marshal(v.String())
}

// diagnosticJSON is the wire shape for a halting error: {error: {kind,
// message, span?}}.
type diagnosticJSON struct {
	Error struct {
		Kind    string    `json:"kind"`
		Message string    `json:"message"`
		Span    *jsonSpan `json:"span,omitempty"`
	} `json:"error"`
}

type jsonSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// SerializeDiagnostic renders a halting Diagnostic in the evaluate
// operation's top-level error wire format.
func SerializeDiagnostic(d *diag.Diagnostic) json.RawMessage {
	var dj diagnosticJSON
	dj.Error.Kind = d.Kind.String()
	dj.Error.Message = d.Message
	if d.Span.Start != 0 || d.Span.End != 0 {
		dj.Error.Span = &jsonSpan{Start: d.Span.Start, End: d.Span.End}
	}
	data, err := json.Marshal(dj)
	if err != nil {
		// dj is a plain struct of strings/ints; marshaling it cannot fail.
		return []byte(`{"error":{"kind":"Internal","message":"failed to serialize diagnostic"}}`)
	}
	return data
}

// EvaluateJSON parses and evaluates expr against resource, returning the
// wire format the external evaluate operation promises: a JSON array of
// {type, value} tagged elements on success, or a top-level {error: ...}
// object if parsing or evaluation halted. It never returns a Go error -
// every outcome is valid JSON.
func EvaluateJSON(resource []byte, expr string) json.RawMessage {
	compiled, cerr := compile(expr)
	if cerr != nil {
		return SerializeDiagnostic(asDiagnostic(cerr))
	}
	result, eerr := compiled.Evaluate(resource)
	if eerr != nil {
		return SerializeDiagnostic(asDiagnostic(eerr))
	}
	data, err := SerializeCollection(result)
	if err != nil {
		return SerializeDiagnostic(diag.Internalf(diag.Span{}, "failed to serialize result: %s", err.Error()))
	}
	return data
}

// asDiagnostic recovers the *diag.Diagnostic behind a compile/evaluate
// error, falling back to an Internal diagnostic for the rare plain-error
// case (e.g. compile's own empty-expression check).
func asDiagnostic(err error) *diag.Diagnostic {
	if d, ok := err.(*diag.Diagnostic); ok {
		return d
	}
	return diag.Internalf(diag.Span{}, "%s", err.Error())
}
