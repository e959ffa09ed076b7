package eval

import (
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/ast"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// lazyFunctions are the names special-cased by evalCall: each needs
// either an unevaluated argument AST (is/as/ofType, whose argument is a
// type name, not a path to navigate) or per-element $this/$index
// rebinding (where/select/repeat/all/exists/iif/aggregate) that a
// registry FuncImpl, which only ever sees pre-evaluated collections,
// cannot provide.
func isLazyFunction(name string) bool {
	switch name {
	case "where", "select", "repeat", "all", "exists", "iif", "aggregate", "is", "as", "ofType":
		return true
	}
	return false
}

// evalCall evaluates a function call against the given input focus.
func (e *Evaluator) evalCall(n *ast.Node, input types.Collection) (types.Collection, *diag.Diagnostic) {
	fn, ok := e.funcs.Get(n.FuncName)
	if !ok {
		suggestions := SuggestFunctionNames(n.FuncName, e.funcs.List(), 3)
		return nil, diag.UnknownFunctionError(n.Span, n.FuncName, suggestions)
	}

	argCount := len(n.Args)
	if argCount < fn.MinArgs || (fn.MaxArgs >= 0 && argCount > fn.MaxArgs) {
		return nil, diag.ArityError(n.Span, n.FuncName, fn.MinArgs, fn.MaxArgs, argCount)
	}

	if isLazyFunction(n.FuncName) && argCount > 0 {
		switch n.FuncName {
		case "where", "select", "repeat":
			key := memoKeyFor(n.Fingerprint(), input)
			if cached, ok := e.memo.Get(key); ok {
				return cached, nil
			}
			var result types.Collection
			var derr *diag.Diagnostic
			switch n.FuncName {
			case "where":
				result, derr = e.evalWhere(input, n.Args[0])
			case "select":
				result, derr = e.evalSelect(input, n.Args[0])
			case "repeat":
				result, derr = e.evalRepeat(input, n.Args[0])
			}
			if derr == nil {
				e.memo.Put(key, result)
			}
			return result, derr
		case "all":
			return e.evalAll(input, n.Args[0])
		case "exists":
			return e.evalExists(input, n.Args[0])
		case "iif":
			return e.evalIif(n.Args)
		case "aggregate":
			return e.evalAggregate(input, n.Args)
		case "is":
			return e.evalIsFunc(input, n.Args[0])
		case "as":
			return e.evalAsFunc(input, n.Args[0])
		case "ofType":
			return e.evalOfType(input, n.Args[0])
		}
	}

	args := make([]interface{}, argCount)
	for i, argNode := range n.Args {
		col, err := e.eval(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = col
	}

	result, fnErr := fn.Fn(e.ctx, input, args)
	if fnErr != nil {
		// Arity and unknown-function are already caught above; any error
		// a registered function raises at this point is a value-level
		// fault (bad arg type, division by zero, ...) per the spec's
		// default: it becomes Empty rather than halting.
		return types.Collection{}, nil
	}
	return result, nil
}

func (e *Evaluator) checkCancellation(span diag.Span) *diag.Diagnostic {
	if err := e.ctx.CheckCancellation(); err != nil {
		return diag.Internalf(span, "%s", err.Error())
	}
	return nil
}

// evalWhere filters input, keeping elements for which criteria
// evaluates to true with $this/$index bound to that element.
func (e *Evaluator) evalWhere(input types.Collection, criteria *ast.Node) (types.Collection, *diag.Diagnostic) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return nil, diag.Internalf(criteria.Span, "%s", err.Error())
	}
	result := types.Collection{}
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	defer func() { e.ctx.this, e.ctx.index = oldThis, oldIndex }()

	for i, item := range input {
		if i%256 == 0 {
			if derr := e.checkCancellation(criteria.Span); derr != nil {
				return nil, derr
			}
		}
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		critCol, err := e.eval(criteria)
		if err != nil {
			return nil, err
		}
		if !critCol.Empty() {
			if b, ok := critCol[0].(types.Boolean); ok && b.Bool() {
				result = append(result, item)
			}
		}
	}
	return result, nil
}

// evalSelect projects each element of input through projection with
// $this/$index bound, flattening the per-element results.
func (e *Evaluator) evalSelect(input types.Collection, projection *ast.Node) (types.Collection, *diag.Diagnostic) {
	if err := e.ctx.CheckCollectionSize(input); err != nil {
		return nil, diag.Internalf(projection.Span, "%s", err.Error())
	}
	result := types.Collection{}
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	defer func() { e.ctx.this, e.ctx.index = oldThis, oldIndex }()

	for i, item := range input {
		if i%256 == 0 {
			if derr := e.checkCancellation(projection.Span); derr != nil {
				return nil, derr
			}
		}
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		projCol, err := e.eval(projection)
		if err != nil {
			return nil, err
		}
		result = append(result, projCol...)
		if sizeErr := e.ctx.CheckCollectionSize(result); sizeErr != nil {
			return nil, diag.Internalf(projection.Span, "%s", sizeErr.Error())
		}
	}
	return result, nil
}

// evalAll reports whether criteria is true for every element (vacuously
// true for an empty input).
func (e *Evaluator) evalAll(input types.Collection, criteria *ast.Node) (types.Collection, *diag.Diagnostic) {
	if input.Empty() {
		return types.TrueCollection, nil
	}
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	defer func() { e.ctx.this, e.ctx.index = oldThis, oldIndex }()

	for i, item := range input {
		if i%256 == 0 {
			if derr := e.checkCancellation(criteria.Span); derr != nil {
				return nil, derr
			}
		}
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		critCol, err := e.eval(criteria)
		if err != nil {
			return nil, err
		}
		if critCol.Empty() {
			return types.FalseCollection, nil
		}
		if b, ok := critCol[0].(types.Boolean); ok && !b.Bool() {
			return types.FalseCollection, nil
		}
	}
	return types.TrueCollection, nil
}

// evalExists reports whether criteria is true for at least one element.
func (e *Evaluator) evalExists(input types.Collection, criteria *ast.Node) (types.Collection, *diag.Diagnostic) {
	oldThis, oldIndex := e.ctx.this, e.ctx.index
	defer func() { e.ctx.this, e.ctx.index = oldThis, oldIndex }()

	for i, item := range input {
		if i%256 == 0 {
			if derr := e.checkCancellation(criteria.Span); derr != nil {
				return nil, derr
			}
		}
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		critCol, err := e.eval(criteria)
		if err != nil {
			return nil, err
		}
		if !critCol.Empty() {
			if b, ok := critCol[0].(types.Boolean); ok && b.Bool() {
				return types.TrueCollection, nil
			}
		}
	}
	return types.FalseCollection, nil
}

// evalIif evaluates only the branch selected by the criterion, so the
// branch not taken never runs (and so never raises an error or fires a
// trace side effect).
func (e *Evaluator) evalIif(args []*ast.Node) (types.Collection, *diag.Diagnostic) {
	critCol, err := e.eval(args[0])
	if err != nil {
		return nil, err
	}
	criterion := false
	if !critCol.Empty() {
		if b, ok := critCol[0].(types.Boolean); ok {
			criterion = b.Bool()
		}
	}
	if criterion {
		return e.eval(args[1])
	}
	if len(args) > 2 {
		return e.eval(args[2])
	}
	return types.Collection{}, nil
}

// evalAggregate runs aggregator once per element with $this bound to the
// element and $total bound to the running accumulator (seeded from the
// optional second argument, or empty), and returns the final $total.
func (e *Evaluator) evalAggregate(input types.Collection, args []*ast.Node) (types.Collection, *diag.Diagnostic) {
	aggregator := args[0]

	var total types.Value
	if len(args) > 1 {
		initCol, err := e.eval(args[1])
		if err != nil {
			return nil, err
		}
		if !initCol.Empty() {
			total = initCol[0]
		}
	}

	oldThis, oldIndex, oldTotal := e.ctx.this, e.ctx.index, e.ctx.total
	defer func() { e.ctx.this, e.ctx.index, e.ctx.total = oldThis, oldIndex, oldTotal }()

	for i, item := range input {
		if i%256 == 0 {
			if derr := e.checkCancellation(aggregator.Span); derr != nil {
				return nil, derr
			}
		}
		e.ctx.this = types.Collection{item}
		e.ctx.index = i
		e.ctx.total = total
		resultCol, err := e.eval(aggregator)
		if err != nil {
			return nil, err
		}
		if !resultCol.Empty() {
			total = resultCol[0]
		} else {
			total = nil
		}
	}

	if total == nil {
		return types.Collection{}, nil
	}
	return types.Collection{total}, nil
}

// evalRepeat computes the transitive closure of projection starting
// from input: each round evaluates projection against every element
// produced by the previous round (the first round against input
// itself), adding results not already seen. It stops when a round adds
// nothing new, returning the accumulated, deduplicated collection in
// first-seen order; if new items are still pending after
// maxRepeatDepth rounds it fails with an Internal diagnostic.
func (e *Evaluator) evalRepeat(input types.Collection, projection *ast.Node) (types.Collection, *diag.Diagnostic) {
	acc := types.Collection{}
	acc = append(acc, input...)
	pending := make([]types.Value, len(input))
	copy(pending, input)

	oldThis, oldIndex := e.ctx.this, e.ctx.index
	defer func() { e.ctx.this, e.ctx.index = oldThis, oldIndex }()

	for depth := 0; len(pending) > 0; depth++ {
		if depth >= maxRepeatDepth {
			return nil, diag.Internalf(projection.Span, "repeat() exceeded maximum depth %d", maxRepeatDepth)
		}
		var next []types.Value
		for i, item := range pending {
			if i%256 == 0 {
				if derr := e.checkCancellation(projection.Span); derr != nil {
					return nil, derr
				}
			}
			e.ctx.this = types.Collection{item}
			e.ctx.index = i
			resultCol, err := e.eval(projection)
			if err != nil {
				return nil, err
			}
			for _, v := range resultCol {
				if !containsStructural(acc, v) {
					acc = append(acc, v)
					next = append(next, v)
				}
			}
		}
		pending = next
	}
	return acc, nil
}

func containsStructural(col types.Collection, v types.Value) bool {
	for _, item := range col {
		if item.Equal(v) {
			return true
		}
	}
	return false
}

// evalIsFunc is the function form of `X is T`.
func (e *Evaluator) evalIsFunc(input types.Collection, typeArg *ast.Node) (types.Collection, *diag.Diagnostic) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if len(input) != 1 {
		return nil, diag.TypeErrorf(typeArg.Span, "is() requires a singleton, got %d items", len(input))
	}
	typeName := typeNameFromArgNode(typeArg)
	return types.Collection{types.NewBoolean(TypeMatches(input[0].Type(), typeName))}, nil
}

// evalAsFunc is the function form of `X as T`.
func (e *Evaluator) evalAsFunc(input types.Collection, typeArg *ast.Node) (types.Collection, *diag.Diagnostic) {
	if input.Empty() {
		return types.Collection{}, nil
	}
	if len(input) != 1 {
		return nil, diag.TypeErrorf(typeArg.Span, "as() requires a singleton, got %d items", len(input))
	}
	typeName := typeNameFromArgNode(typeArg)
	if TypeMatches(input[0].Type(), typeName) {
		return input, nil
	}
	return types.Collection{}, nil
}

// evalOfType filters input to elements matching typeArg. Unlike is/as it
// operates over the whole collection rather than requiring a singleton.
func (e *Evaluator) evalOfType(input types.Collection, typeArg *ast.Node) (types.Collection, *diag.Diagnostic) {
	typeName := typeNameFromArgNode(typeArg)
	result := types.Collection{}
	for _, item := range input {
		if TypeMatches(item.Type(), typeName) {
			result = append(result, item)
		}
	}
	return result, nil
}
