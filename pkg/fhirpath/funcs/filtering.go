package funcs

import (
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/eval"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// filteringFuncs carries arity metadata for where/select/repeat/ofType;
// every Fn here is a stub the evaluator always intercepts before
// calling (see the comment above fnWhere).
var filteringFuncs = []FuncDef{
	{Name: "where", MinArgs: 1, MaxArgs: 1, Fn: fnWhere},
	{Name: "select", MinArgs: 1, MaxArgs: 1, Fn: fnSelect},
	{Name: "repeat", MinArgs: 1, MaxArgs: 1, Fn: fnRepeat},
	{Name: "ofType", MinArgs: 1, MaxArgs: 1, Fn: fnOfType},
}

func init() {
	RegisterAll(filteringFuncs...)
}

// fnWhere, fnSelect, fnRepeat, and fnOfType are never called: their
// argument is an unevaluated expression, not a value, so eval.evalCall
// intercepts these names (see eval.isLazyFunction) and runs
// Evaluator.evalWhere/evalSelect/evalRepeat/evalOfType directly, binding
// $this/$index per element as it goes. These bodies exist only to carry
// MinArgs/MaxArgs for the arity check and for List()'s suggestion lookup.

func fnWhere(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("where: unreachable, intercepted by eval.isLazyFunction")
}

func fnSelect(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("select: unreachable, intercepted by eval.isLazyFunction")
}

func fnRepeat(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("repeat: unreachable, intercepted by eval.isLazyFunction")
}

func fnOfType(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("ofType: unreachable, intercepted by eval.isLazyFunction")
}
