// Package funcs provides FHIRPath function implementations.
// This file contains the type checking function is(); as() is
// registered in aggregate.go.
//
// According to FHIRPath specification:
// - is(type): Returns true if the input is of the specified type
// - as(type): Returns the input if it is of the specified type, otherwise empty
//
// These functions are equivalent to the 'is' and 'as' operators but in function form.
// Example: Patient.name.first().is(HumanName) is equivalent to Patient.name.first() is HumanName
package funcs

import (
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/eval"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// typeCheckingFuncs carries arity metadata for is(); the evaluator
// extracts the type name straight off the AST rather than evaluating
// it as an expression (see fnIsType). as()'s function-form entry lives
// in aggregate.go's aggregateFuncs table, registered alongside the
// rest of that file's dispatch.
var typeCheckingFuncs = []FuncDef{
	{Name: "is", MinArgs: 1, MaxArgs: 1, Fn: fnIsType},
}

func init() {
	RegisterAll(typeCheckingFuncs...)
}

// fnIsType is never called: its type-name argument is a type specifier
// lifted straight off the AST, not a value to evaluate, so
// eval.evalCall intercepts "is" (see eval.isLazyFunction) and runs
// Evaluator.evalIsOperator directly. MinArgs=1 guarantees this path
// always fires, so this body exists only to carry arity metadata.
func fnIsType(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("is: unreachable, intercepted by eval.isLazyFunction")
}
