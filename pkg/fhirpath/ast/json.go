package ast

import "encoding/json"

// String renders a Kind's name, used by MarshalJSON and by tooling that
// prints a tree for debugging.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBoolLit:
		return "BoolLit"
	case KindIntLit:
		return "IntLit"
	case KindDecimalLit:
		return "DecimalLit"
	case KindStringLit:
		return "StringLit"
	case KindDateLit:
		return "DateLit"
	case KindTimeLit:
		return "TimeLit"
	case KindDateTimeLit:
		return "DateTimeLit"
	case KindQuantityLit:
		return "QuantityLit"
	case KindIdent:
		return "Ident"
	case KindThis:
		return "This"
	case KindIndex:
		return "Index"
	case KindTotal:
		return "Total"
	case KindVariable:
		return "Variable"
	case KindUnary:
		return "Unary"
	case KindBinary:
		return "Binary"
	case KindUnion:
		return "Union"
	case KindInvoke:
		return "Invoke"
	case KindIndexer:
		return "Indexer"
	case KindCall:
		return "Call"
	case KindTypeExpr:
		return "TypeExpr"
	case KindGroup:
		return "Group"
	default:
		return "Unknown"
	}
}

// String renders a BinOp's source-level symbol.
func (op BinOp) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpImplies:
		return "implies"
	case OpIn:
		return "in"
	case OpContains:
		return "contains"
	case OpEq:
		return "="
	case OpNeq:
		return "!="
	case OpEquiv:
		return "~"
	case OpNotEquiv:
		return "!~"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpIs:
		return "is"
	case OpAs:
		return "as"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpConcat:
		return "&"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpIntDiv:
		return "div"
	case OpMod:
		return "mod"
	default:
		return "unknown"
	}
}

// String renders a UnaryOp's source-level symbol.
func (op UnaryOp) String() string {
	switch op {
	case OpPos:
		return "+"
	case OpNeg:
		return "-"
	default:
		return "unknown"
	}
}

// jsonSpan mirrors diag.Span for output; kept local so this package's
// JSON shape doesn't depend on diag's field tags.
type jsonSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MarshalJSON renders the node as a structural JSON tree: its kind, the
// literal or operator fields relevant to that kind, and child subtrees.
// This is what the external "ast" operation returns, so consumers that
// never link against this package can still inspect parse structure.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}

	m := map[string]interface{}{
		"kind": n.Kind.String(),
		"span": jsonSpan{Start: n.Span.Start, End: n.Span.End},
	}

	switch n.Kind {
	case KindBoolLit:
		m["value"] = n.BoolVal
	case KindIntLit:
		m["value"] = n.IntVal
	case KindDecimalLit:
		m["value"] = n.DecimalVal
	case KindStringLit:
		m["value"] = n.StringVal
	case KindDateLit, KindTimeLit, KindDateTimeLit:
		m["value"] = n.DateVal
	case KindQuantityLit:
		m["value"] = n.DecimalVal
		m["unit"] = n.QuantityUnit
	case KindIdent, KindVariable:
		m["name"] = n.Name
	case KindTypeExpr:
		m["name"] = n.Name
	case KindUnary:
		m["op"] = n.UnaryOp.String()
		m["operand"] = n.Inner
	case KindBinary:
		m["op"] = n.BinOp.String()
		m["left"] = n.Left
		m["right"] = n.Right
	case KindUnion:
		m["left"] = n.Left
		m["right"] = n.Right
	case KindInvoke:
		m["left"] = n.Left
		m["right"] = n.Right
	case KindIndexer:
		m["target"] = n.Left
		m["index"] = n.Right
	case KindCall:
		m["name"] = n.FuncName
		m["args"] = n.Args
	case KindGroup:
		m["inner"] = n.Inner
	}

	return json.Marshal(m)
}
