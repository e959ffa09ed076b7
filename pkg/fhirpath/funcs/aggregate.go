package funcs

import (
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/eval"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// aggregateFuncs is the dispatch table for this file's grab-bag of
// reduction, tree-navigation, boolean, and type-cast functions.
// "aggregate" and "as" carry arity metadata for stub bodies the
// evaluator always intercepts (see fnAggregate/fnAs below).
var aggregateFuncs = []FuncDef{
	{Name: "aggregate", MinArgs: 1, MaxArgs: 2, Fn: fnAggregate},
	{Name: "children", MinArgs: 0, MaxArgs: 0, Fn: fnChildren},
	{Name: "descendants", MinArgs: 0, MaxArgs: 0, Fn: fnDescendants},
	{Name: "not", MinArgs: 0, MaxArgs: 0, Fn: fnNot},
	{Name: "hasValue", MinArgs: 0, MaxArgs: 0, Fn: fnHasValue},
	{Name: "getValue", MinArgs: 0, MaxArgs: 0, Fn: fnGetValue},
	{Name: "combine", MinArgs: 1, MaxArgs: 1, Fn: fnCombine},
	{Name: "union", MinArgs: 1, MaxArgs: 1, Fn: fnUnion},
	{Name: "as", MinArgs: 1, MaxArgs: 1, Fn: fnAs},
}

func init() {
	RegisterAll(aggregateFuncs...)
}

// fnAggregate is never called: its aggregator argument is an
// unevaluated expression that needs $this/$index/$total rebinding per
// element, so eval.evalCall intercepts "aggregate" (see
// eval.isLazyFunction) and runs Evaluator.evalAggregate directly.
// MinArgs=1 guarantees this path always fires, so this body exists only
// to carry arity metadata.
func fnAggregate(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("aggregate: unreachable, intercepted by eval.isLazyFunction")
}

// fnChildren returns all direct children of the input.
func fnChildren(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	result := types.Collection{}

	for _, item := range input {
		if obj, ok := item.(*types.ObjectValue); ok {
			children := obj.Children()
			result = append(result, children...)
		}
	}

	return result, nil
}

// fnDescendants returns all descendants of the input (recursive children).
func fnDescendants(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	result := types.Collection{}
	seen := make(map[types.Value]bool)

	var collect func(items types.Collection)
	collect = func(items types.Collection) {
		for _, item := range items {
			if seen[item] {
				continue
			}
			seen[item] = true

			if obj, ok := item.(*types.ObjectValue); ok {
				children := obj.Children()
				result = append(result, children...)
				collect(children)
			}
		}
	}

	collect(input)
	return result, nil
}

// fnNot returns the boolean negation.
func fnNot(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}

	if b, ok := input[0].(types.Boolean); ok {
		return types.Collection{types.NewBoolean(!b.Bool())}, nil
	}

	return types.Collection{}, nil
}

// fnHasValue returns true if the input has a primitive value.
func fnHasValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{types.NewBoolean(false)}, nil
	}

	// Check if any element has a primitive value
	for _, item := range input {
		switch item.(type) {
		case types.Boolean, types.String, types.Integer, types.Decimal,
			types.Date, types.DateTime, types.Time:
			return types.Collection{types.NewBoolean(true)}, nil
		}
	}

	return types.Collection{types.NewBoolean(false)}, nil
}

// fnGetValue returns the primitive value if it exists.
func fnGetValue(_ *eval.Context, input types.Collection, _ []interface{}) (types.Collection, error) {
	if input.Empty() {
		return types.Collection{}, nil
	}

	// Return primitive values
	result := types.Collection{}
	for _, item := range input {
		switch v := item.(type) {
		case types.Boolean, types.String, types.Integer, types.Decimal,
			types.Date, types.DateTime, types.Time:
			result = append(result, v)
		}
	}

	return result, nil
}

// fnCombine combines two collections.
func fnCombine(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("combine", 1, 0)
	}

	result := make(types.Collection, len(input))
	copy(result, input)

	if other, ok := args[0].(types.Collection); ok {
		result = append(result, other...)
	}

	return result, nil
}

// fnUnion returns the union of two collections (removes duplicates).
func fnUnion(_ *eval.Context, input types.Collection, args []interface{}) (types.Collection, error) {
	if len(args) == 0 {
		return nil, eval.InvalidArgumentsError("union", 1, 0)
	}

	// Get the other collection
	var other types.Collection
	if o, ok := args[0].(types.Collection); ok {
		other = o
	} else {
		return input, nil
	}

	// Use the Collection.Union method which handles duplicates
	return input.Union(other), nil
}

// fnAs is never called: its type-name argument is a type specifier, not
// a path to navigate, so eval.evalCall intercepts "as" (see
// eval.isLazyFunction) and runs Evaluator.evalAsFunc directly, reading
// the type name straight off the unevaluated argument node. MinArgs=1
// guarantees this path always fires, so this body exists only to carry
// arity metadata.
func fnAs(_ *eval.Context, _ types.Collection, _ []interface{}) (types.Collection, error) {
	panic("as: unreachable, intercepted by eval.isLazyFunction")
}
