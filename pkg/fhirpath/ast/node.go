// Package ast defines the FHIRPath abstract syntax tree and the parser
// that builds it from a token stream.
package ast

import (
	"hash/fnv"
	"strconv"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBoolLit
	KindIntLit
	KindDecimalLit
	KindStringLit
	KindDateLit
	KindTimeLit
	KindDateTimeLit
	KindQuantityLit
	KindIdent    // bare member access, e.g. `name`
	KindThis     // $this
	KindIndex    // $index
	KindTotal    // $total
	KindVariable // %var
	KindUnary    // unary +/-/not
	KindBinary   // binary operator
	KindUnion    // | operator (kept distinct from Binary for clarity)
	KindInvoke   // A.B invocation chain
	KindIndexer  // A[n]
	KindCall     // function call, possibly with an implicit receiver via Invoke
	KindTypeExpr // is/as/ofType right-hand operand: a type specifier
	KindGroup    // parenthesised expression, kept for span fidelity
)

// BinOp identifies a binary operator.
type BinOp int

const (
	OpAnd BinOp = iota
	OpOr
	OpXor
	OpImplies
	OpIn
	OpContains
	OpEq
	OpNeq
	OpEquiv
	OpNotEquiv
	OpLt
	OpLe
	OpGt
	OpGe
	OpIs
	OpAs
	OpAdd
	OpSub
	OpConcat // &
	OpMul
	OpDiv
	OpIntDiv // div
	OpMod
)

// UnaryOp identifies a prefix unary operator.
type UnaryOp int

const (
	OpPos UnaryOp = iota
	OpNeg
)

// Node is a single AST node. FHIRPath's grammar is small enough that a
// single tagged struct (rather than one Go type per node kind) keeps the
// evaluator's dispatch a flat switch, matching the closed-variant design
// called for by the value model.
type Node struct {
	Kind Kind
	Span diag.Span

	// Literals
	BoolVal    bool
	IntVal     int64
	DecimalVal string // canonical decimal text, parsed lazily by the evaluator
	StringVal  string
	DateVal    string // raw literal body, e.g. "2012-04-15"
	QuantityUnit string

	// Ident / Variable
	Name string

	// Unary / Binary
	UnaryOp  UnaryOp
	BinOp    BinOp
	Left     *Node
	Right    *Node
	ShortCircuit shortCircuit // set by the optimizer

	// Invoke: Left is the receiver (nil at the root of a chain), Right
	// is the next step (Ident, Call, or Indexer).
	// Indexer: Left is indexed expression, Right is the index expression.

	// Call
	FuncName string
	Args     []*Node

	// Group
	Inner *Node

	fingerprint uint64
	fpValid     bool
}

type shortCircuit int

const (
	scNone shortCircuit = iota
	scLeftTrue
	scLeftFalse
)

// Fingerprint returns a stable 64-bit structural hash of the subtree,
// used as a memoization key component. It is computed lazily and cached;
// call Invalidate after mutating a node in place (the optimizer instead
// always builds fresh nodes, so this is mainly a safety net).
func (n *Node) Fingerprint() uint64 {
	if n == nil {
		return 0
	}
	if n.fpValid {
		return n.fingerprint
	}
	h := fnv.New64a()
	n.writeFingerprint(h)
	n.fingerprint = h.Sum64()
	n.fpValid = true
	return n.fingerprint
}

// Invalidate clears any cached fingerprint so it is recomputed on next
// access, for callers that mutate a node in place. The AST optimizer
// does not call it, since it always builds fresh nodes.
func (n *Node) Invalidate() {
	if n != nil {
		n.fpValid = false
	}
}

func (n *Node) writeFingerprint(h interface{ Write([]byte) (int, error) }) {
	write := func(s string) { _, _ = h.Write([]byte(s)) }
	write("K")
	write(strconv.Itoa(int(n.Kind)))
	switch n.Kind {
	case KindBoolLit:
		write(strconv.FormatBool(n.BoolVal))
	case KindIntLit:
		write(strconv.FormatInt(n.IntVal, 10))
	case KindDecimalLit, KindDateLit, KindTimeLit, KindDateTimeLit:
		write(n.DecimalVal)
		write(n.DateVal)
	case KindStringLit:
		write(n.StringVal)
	case KindQuantityLit:
		write(n.DecimalVal)
		write(n.QuantityUnit)
	case KindIdent, KindVariable, KindTypeExpr:
		write(n.Name)
	case KindUnary:
		write(strconv.Itoa(int(n.UnaryOp)))
	case KindBinary, KindUnion:
		write(strconv.Itoa(int(n.BinOp)))
	case KindCall:
		write(n.FuncName)
	}
	if n.Left != nil {
		write("L(")
		n.Left.writeFingerprint(h)
		write(")")
	}
	if n.Right != nil {
		write("R(")
		n.Right.writeFingerprint(h)
		write(")")
	}
	if n.Inner != nil {
		write("I(")
		n.Inner.writeFingerprint(h)
		write(")")
	}
	for i, a := range n.Args {
		write("A" + strconv.Itoa(i) + "(")
		a.writeFingerprint(h)
		write(")")
	}
}

// HasLazyFunction reports whether the subtree contains a call to one of
// the functions whose arguments capture a per-element $this/$index
// binding (where/select/repeat/all/iif). Such subtrees are never
// memoizer-eligible per the memoizer's cache-eligibility rule.
func (n *Node) HasLazyFunction() bool {
	if n == nil {
		return false
	}
	if n.Kind == KindCall {
		switch n.FuncName {
		case "where", "select", "repeat", "all", "iif":
			return true
		}
	}
	if n.Left.HasLazyFunction() || n.Right.HasLazyFunction() || n.Inner.HasLazyFunction() {
		return true
	}
	for _, a := range n.Args {
		if a.HasLazyFunction() {
			return true
		}
	}
	return false
}
