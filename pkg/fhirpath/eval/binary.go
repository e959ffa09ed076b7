package eval

import (
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/ast"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// evalBinary dispatches a binary operator. Collection-level operators
// (=, !=, ~, !~, in, contains, and, or, xor, implies, &, is, as) receive
// whole collections and implement their own empty/singleton handling;
// scalar operators (arithmetic, comparisons) get a shared
// empty-propagates / singleton-required preamble, per the singleton
// auto-wrapping rule: zero items propagates Empty, more than one is a
// Type diagnostic, exactly one auto-unwraps.
func (e *Evaluator) evalBinary(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	switch n.BinOp {
	case ast.OpAnd:
		return e.evalAndOp(n)
	case ast.OpOr:
		return e.evalOrOp(n)
	case ast.OpImplies:
		return e.evalImpliesOp(n)
	case ast.OpXor:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return Xor(left, right), nil
	case ast.OpIn:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return In(left, right), nil
	case ast.OpContains:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return Contains(left, right), nil
	case ast.OpEq:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return Equal(left, right), nil
	case ast.OpNeq:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return NotEqual(left, right), nil
	case ast.OpEquiv:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return Equivalent(left, right), nil
	case ast.OpNotEquiv:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return NotEquivalent(left, right), nil
	case ast.OpConcat:
		left, right, err := e.evalBothCollections(n)
		if err != nil {
			return nil, err
		}
		return Concatenate(left, right), nil
	case ast.OpIs, ast.OpAs:
		return e.evalTypeOperator(n)
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return e.evalRelational(n)
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpIntDiv, ast.OpMod:
		return e.evalArithmetic(n)
	default:
		return nil, diag.Internalf(n.Span, "unhandled binary operator %d", int(n.BinOp))
	}
}

func (e *Evaluator) evalBothCollections(n *ast.Node) (types.Collection, types.Collection, *diag.Diagnostic) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, nil, err
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// evalAndOp runtime-short-circuits: if the left side is already known
// false, the right side is never evaluated (so its errors and side
// effects, e.g. a trace() call, never occur).
func (e *Evaluator) evalAndOp(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	if b, ok := singletonBool(left); ok && !b {
		return types.FalseCollection, nil
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return And(left, right), nil
}

func (e *Evaluator) evalOrOp(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	if b, ok := singletonBool(left); ok && b {
		return types.TrueCollection, nil
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return Or(left, right), nil
}

func (e *Evaluator) evalImpliesOp(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	if b, ok := singletonBool(left); ok && !b {
		return types.TrueCollection, nil
	}
	right, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	return Implies(left, right), nil
}

func singletonBool(col types.Collection) (bool, bool) {
	if len(col) != 1 {
		return false, false
	}
	b, ok := col[0].(types.Boolean)
	if !ok {
		return false, false
	}
	return b.Bool(), true
}

// evalTypeOperator evaluates `X is T` / `X as T`. The right operand is a
// KindTypeExpr built by the parser's dedicated type-specifier path, so
// it is read directly rather than evaluated.
func (e *Evaluator) evalTypeOperator(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	if left.Empty() {
		if n.BinOp == ast.OpIs {
			return types.Collection{}, nil
		}
		return types.Collection{}, nil
	}
	if len(left) != 1 {
		return nil, diag.TypeErrorf(n.Span, "'%s' requires a singleton, got %d items", binOpText(n.BinOp), len(left))
	}
	typeName := typeNameFromArgNode(n.Right)
	actualType := left[0].Type()
	matches := TypeMatches(actualType, typeName)
	if n.BinOp == ast.OpIs {
		return types.Collection{types.NewBoolean(matches)}, nil
	}
	if matches {
		return left, nil
	}
	return types.Collection{}, nil
}

func binOpText(op ast.BinOp) string {
	switch op {
	case ast.OpIs:
		return "is"
	case ast.OpAs:
		return "as"
	default:
		return "?"
	}
}

func (e *Evaluator) evalRelational(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, right, err := e.evalBothCollections(n)
	if err != nil {
		return nil, err
	}
	if left.Empty() || right.Empty() {
		return types.Collection{}, nil
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, diag.TypeErrorf(n.Span, "relational operator requires singletons, got %d and %d items", len(left), len(right))
	}
	var result types.Collection
	var cmpErr error
	switch n.BinOp {
	case ast.OpLt:
		result, cmpErr = LessThan(left[0], right[0])
	case ast.OpLe:
		result, cmpErr = LessOrEqual(left[0], right[0])
	case ast.OpGt:
		result, cmpErr = GreaterThan(left[0], right[0])
	case ast.OpGe:
		result, cmpErr = GreaterOrEqual(left[0], right[0])
	}
	if cmpErr != nil {
		// Ambiguous-precision or incomparable-type comparisons are a
		// value-level fault: the FHIRPath result is empty, not a halt.
		return types.Collection{}, nil
	}
	return result, nil
}

func (e *Evaluator) evalArithmetic(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	left, right, err := e.evalBothCollections(n)
	if err != nil {
		return nil, err
	}
	if left.Empty() || right.Empty() {
		return types.Collection{}, nil
	}
	if len(left) != 1 || len(right) != 1 {
		return nil, diag.TypeErrorf(n.Span, "arithmetic operator requires singletons, got %d and %d items", len(left), len(right))
	}
	var result types.Value
	var opErr error
	switch n.BinOp {
	case ast.OpAdd:
		result, opErr = Add(left[0], right[0])
	case ast.OpSub:
		result, opErr = Subtract(left[0], right[0])
	case ast.OpMul:
		result, opErr = Multiply(left[0], right[0])
	case ast.OpDiv:
		result, opErr = Divide(left[0], right[0])
	case ast.OpIntDiv:
		result, opErr = IntegerDivide(left[0], right[0])
	case ast.OpMod:
		result, opErr = Modulo(left[0], right[0])
	}
	if opErr != nil {
		// Division by zero, incompatible units, and type mismatches are
		// value-level faults: the spec's arithmetic table maps them to
		// Empty, never a halting Diagnostic.
		return types.Collection{}, nil
	}
	return types.Collection{result}, nil
}
