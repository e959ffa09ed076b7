package ast

// Optimize runs the single simplification pass described by the engine's
// design: constant folding over literal operands, short-circuit
// annotation for and/or, string-concatenation folding, and
// double-negation removal. `implies` nodes are not annotated; the
// evaluator decides their short-circuit at run time. It never mutates
// its input; it returns a new tree (nodes that need no change are shared, not copied, since Node
// trees are immutable after parsing).
func Optimize(n *Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindUnary:
		inner := Optimize(n.Inner)
		if folded := foldUnary(n.UnaryOp, inner); folded != nil {
			return folded
		}
		return &Node{Kind: KindUnary, UnaryOp: n.UnaryOp, Inner: inner, Span: n.Span}
	case KindBinary:
		left := Optimize(n.Left)
		right := Optimize(n.Right)
		out := &Node{Kind: KindBinary, BinOp: n.BinOp, Left: left, Right: right, Span: n.Span}
		if out.BinOp == OpAdd || out.BinOp == OpSub || out.BinOp == OpMul {
			if folded := foldArithmetic(out); folded != nil {
				return folded
			}
		}
		if out.BinOp == OpConcat {
			if folded := foldConcat(left, right); folded != nil {
				folded.Span = n.Span
				return folded
			}
		}
		if out.BinOp == OpAnd || out.BinOp == OpOr {
			out.ShortCircuit = shortCircuitOf(out.BinOp, left)
		}
		return out
	case KindUnion:
		return &Node{Kind: KindUnion, Left: Optimize(n.Left), Right: Optimize(n.Right), Span: n.Span}
	case KindInvoke:
		return &Node{Kind: KindInvoke, Left: Optimize(n.Left), Right: Optimize(n.Right), Span: n.Span}
	case KindIndexer:
		return &Node{Kind: KindIndexer, Left: Optimize(n.Left), Right: Optimize(n.Right), Span: n.Span}
	case KindGroup:
		return Optimize(n.Inner)
	case KindCall:
		args := make([]*Node, len(n.Args))
		for i, a := range n.Args {
			args[i] = Optimize(a)
		}
		return &Node{Kind: KindCall, FuncName: n.FuncName, Args: args, Span: n.Span}
	default:
		return n
	}
}

// shortCircuitOf records whether the left side of and/or is a literal
// constant, so the evaluator can skip evaluating the right side.
func shortCircuitOf(op BinOp, left *Node) shortCircuit {
	if left == nil || left.Kind != KindBoolLit {
		return scNone
	}
	if op == OpAnd && !left.BoolVal {
		return scLeftFalse
	}
	if op == OpOr && left.BoolVal {
		return scLeftTrue
	}
	return scNone
}

// foldUnary removes a double negation of an already-unary node:
// `not not X` folds only when the spec's "not" operator is represented;
// since this grammar models `not` as a function call rather than a
// prefix token, double-negation folding here covers `-(-X)` and `+(+X)`.
func foldUnary(op UnaryOp, inner *Node) *Node {
	if inner == nil || inner.Kind != KindUnary {
		return nil
	}
	if op == OpNeg && inner.UnaryOp == OpNeg {
		return inner.Inner
	}
	if op == OpPos {
		return inner
	}
	return nil
}

// foldArithmetic folds binary arithmetic over two integer literals.
// Folding never reaches across a decimal literal (left as-is; the
// evaluator's decimal path already preserves precision) and reverts to
// the unfolded tree on overflow.
func foldArithmetic(n *Node) *Node {
	if n.Left.Kind != KindIntLit || n.Right.Kind != KindIntLit {
		return nil
	}
	a, aok := parseSmallInt(n.Left.DecimalVal)
	b, bok := parseSmallInt(n.Right.DecimalVal)
	if !aok || !bok {
		return nil
	}
	var result int64
	switch n.BinOp {
	case OpAdd:
		result = a + b
		if (b > 0 && result < a) || (b < 0 && result > a) {
			return nil // overflow: keep the original AST
		}
	case OpSub:
		result = a - b
		if (b < 0 && result < a) || (b > 0 && result > a) {
			return nil
		}
	case OpMul:
		result = a * b
		if a != 0 && (result/a != b) {
			return nil
		}
	default:
		return nil
	}
	return &Node{Kind: KindIntLit, DecimalVal: itoa(result), IntVal: result, Span: n.Span}
}

func parseSmallInt(s string) (int64, bool) {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// foldConcat merges adjacent string literals under the `&` operator.
func foldConcat(left, right *Node) *Node {
	if left.Kind != KindStringLit || right.Kind != KindStringLit {
		return nil
	}
	return &Node{Kind: KindStringLit, StringVal: left.StringVal + right.StringVal}
}
