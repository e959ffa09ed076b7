package eval

import (
	"context"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/ast"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/memo"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/types"
)

// FuncImpl is the signature for function implementations.
type FuncImpl func(ctx *Context, input types.Collection, args []interface{}) (types.Collection, error)

// FuncDef defines a FHIRPath function.
type FuncDef struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      FuncImpl
}

// FuncRegistry is an interface for function lookup. List is used to
// build "unknown function" suggestions.
type FuncRegistry interface {
	Get(name string) (FuncDef, bool)
	List() []string
}

// Resolver handles FHIR reference resolution.
type Resolver interface {
	Resolve(ctx context.Context, reference string) ([]byte, error)
}

// maxNodeVisits bounds a single evaluation's work so a pathological
// expression (deep repeat()/select() nesting over a large resource)
// fails fast instead of consuming unbounded CPU.
const maxNodeVisits = 1_000_000

// maxRepeatDepth bounds repeat()'s breadth-first closure so a cyclic
// graph (e.g. reference loops resolved by a Resolver) terminates.
const maxRepeatDepth = 64

// Context holds the evaluation state threaded through every node visit:
// the resource root, the current focus ($this), loop-local $index/$total,
// bound variables, resource-size/depth limits, and the Go context used
// for cancellation.
type Context struct {
	root      types.Collection
	this      types.Collection
	index     int
	total     types.Value
	variables map[string]types.Collection
	limits    map[string]int
	goCtx     context.Context
	resolver  Resolver
}

// NewContext creates a new evaluation context over the given resource
// JSON. It populates %resource, %context, and %rootResource, all
// pointing at the root resource for top-level evaluation, per FHIRPath's
// environment-variable rules.
func NewContext(resource []byte) *Context {
	root, _ := types.JSONToCollection(resource)

	variables := make(map[string]types.Collection)
	variables["resource"] = root
	variables["context"] = root
	variables["rootResource"] = root

	return &Context{
		root:      root,
		this:      root,
		variables: variables,
		limits:    make(map[string]int),
		goCtx:     context.Background(),
	}
}

// SetLimit sets a limit value (e.g., maxDepth, maxCollectionSize).
func (c *Context) SetLimit(name string, value int) {
	if c.limits == nil {
		c.limits = make(map[string]int)
	}
	c.limits[name] = value
}

// GetLimit gets a limit value.
func (c *Context) GetLimit(name string) int {
	if c.limits == nil {
		return 0
	}
	return c.limits[name]
}

// SetContext sets the Go context for cancellation.
func (c *Context) SetContext(ctx context.Context) {
	c.goCtx = ctx
}

// Context returns the Go context.
func (c *Context) Context() context.Context {
	if c.goCtx == nil {
		return context.Background()
	}
	return c.goCtx
}

// SetResolver sets the reference resolver.
func (c *Context) SetResolver(r Resolver) {
	c.resolver = r
}

// GetResolver returns the reference resolver.
func (c *Context) GetResolver() Resolver {
	return c.resolver
}

// CheckCancellation checks if the context has been canceled.
func (c *Context) CheckCancellation() error {
	if c.goCtx == nil {
		return nil
	}
	select {
	case <-c.goCtx.Done():
		return c.goCtx.Err()
	default:
		return nil
	}
}

// CheckCollectionSize validates that a collection doesn't exceed the
// maximum size.
func (c *Context) CheckCollectionSize(col types.Collection) error {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && len(col) > maxSize {
		return NewEvalError(ErrInvalidExpression,
			"collection size %d exceeds maximum allowed %d", len(col), maxSize)
	}
	return nil
}

// EnforceCollectionLimit truncates a collection if it exceeds the
// maximum size. Returns the (possibly truncated) collection and whether
// truncation occurred.
func (c *Context) EnforceCollectionLimit(col types.Collection) (types.Collection, bool) {
	maxSize := c.GetLimit("maxCollectionSize")
	if maxSize > 0 && len(col) > maxSize {
		return col[:maxSize], true
	}
	return col, false
}

// Root returns the root collection.
func (c *Context) Root() types.Collection {
	return c.root
}

// This returns the current $this value.
func (c *Context) This() types.Collection {
	return c.this
}

// WithThis returns a new context with the given $this value.
func (c *Context) WithThis(this types.Collection) *Context {
	newCtx := *c
	newCtx.this = this
	return &newCtx
}

// WithIndex returns a new context with the given $index value.
func (c *Context) WithIndex(index int) *Context {
	newCtx := *c
	newCtx.index = index
	return &newCtx
}

// SetVariable sets an external variable.
func (c *Context) SetVariable(name string, value types.Collection) {
	c.variables[name] = value
}

// GetVariable gets an external variable.
func (c *Context) GetVariable(name string) (types.Collection, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// Evaluator walks a parsed, optimized *ast.Node tree against a Context,
// producing a types.Collection or halting on a *diag.Diagnostic. Unlike
// the value-level operator errors in operators.go (which the evaluator
// converts to Empty), a returned Diagnostic always stops evaluation.
type Evaluator struct {
	ctx    *Context
	funcs  FuncRegistry
	memo   *memo.Memoizer
	visits int
}

// NewEvaluator creates a new evaluator with the given context and
// function registry, and its own per-evaluation memoizer.
func NewEvaluator(ctx *Context, funcs FuncRegistry) *Evaluator {
	return &Evaluator{ctx: ctx, funcs: funcs, memo: memo.New(memo.DefaultCapacity)}
}

// NewEvaluatorWithMemoCapacity is like NewEvaluator but lets the caller
// size (or disable, with a negative capacity) the per-evaluation
// memoizer.
func NewEvaluatorWithMemoCapacity(ctx *Context, funcs FuncRegistry, capacity int) *Evaluator {
	return &Evaluator{ctx: ctx, funcs: funcs, memo: memo.New(capacity)}
}

// Evaluate evaluates a parsed tree and returns the result.
func (e *Evaluator) Evaluate(tree *ast.Node) (types.Collection, error) {
	col, derr := e.eval(tree)
	if derr != nil {
		return nil, derr
	}
	return col, nil
}

// eval is the root dispatch: one case per ast.Kind. It enforces the
// node-visit cap and polls for cancellation, then delegates to a
// per-kind helper.
func (e *Evaluator) eval(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	if n == nil {
		return types.Collection{}, nil
	}
	e.visits++
	if e.visits > maxNodeVisits {
		return nil, diag.Internalf(n.Span, "evaluation exceeded %d node visits", maxNodeVisits)
	}
	if e.visits%256 == 0 {
		if err := e.ctx.CheckCancellation(); err != nil {
			return nil, diag.Internalf(n.Span, "%s", err.Error())
		}
	}

	switch n.Kind {
	case ast.KindNull:
		return types.Collection{}, nil
	case ast.KindBoolLit:
		return types.Collection{types.NewBoolean(n.BoolVal)}, nil
	case ast.KindIntLit:
		return e.evalIntLit(n)
	case ast.KindDecimalLit:
		return e.evalDecimalLit(n)
	case ast.KindStringLit:
		return types.Collection{types.NewString(n.StringVal)}, nil
	case ast.KindDateLit:
		return e.evalDateLit(n)
	case ast.KindTimeLit:
		return e.evalTimeLit(n)
	case ast.KindDateTimeLit:
		return e.evalDateTimeLit(n)
	case ast.KindQuantityLit:
		return e.evalQuantityLit(n)
	case ast.KindIdent:
		return e.navigateMember(e.ctx.This(), n.Name), nil
	case ast.KindThis:
		return e.ctx.This(), nil
	case ast.KindIndex:
		return types.Collection{types.NewInteger(int64(e.ctx.index))}, nil
	case ast.KindTotal:
		if e.ctx.total != nil {
			return types.Collection{e.ctx.total}, nil
		}
		return types.Collection{}, nil
	case ast.KindVariable:
		return e.evalVariable(n)
	case ast.KindUnary:
		return e.evalUnary(n)
	case ast.KindBinary:
		return e.evalBinary(n)
	case ast.KindUnion:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return Union(left, right), nil
	case ast.KindInvoke:
		return e.evalInvoke(n)
	case ast.KindIndexer:
		return e.evalIndexer(n)
	case ast.KindCall:
		return e.evalCall(n, e.ctx.This())
	case ast.KindGroup:
		return e.eval(n.Inner)
	default:
		return nil, diag.Internalf(n.Span, "unhandled node kind %d", int(n.Kind))
	}
}

func (e *Evaluator) evalIntLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	v, perr := parseInt64(n.DecimalVal)
	if perr != nil {
		return nil, diag.New(diag.Parse, n.Span, "invalid integer literal '%s'", n.DecimalVal)
	}
	return types.Collection{types.NewInteger(v)}, nil
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, errEmptyDigits
	}
	var neg bool
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var v int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errEmptyDigits
		}
		v = v*10 + int64(c-'0')
	}
	if neg {
		v = -v
	}
	return v, nil
}

var errEmptyDigits = diag.New(diag.Parse, diag.Span{}, "not a valid integer")

func (e *Evaluator) evalDecimalLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	d, err := types.NewDecimal(n.DecimalVal)
	if err != nil {
		return nil, diag.New(diag.Parse, n.Span, "invalid decimal literal '%s'", n.DecimalVal)
	}
	return types.Collection{d}, nil
}

func (e *Evaluator) evalDateLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	d, err := types.NewDate(n.DateVal)
	if err != nil {
		return nil, diag.New(diag.InvalidDateTime, n.Span, "invalid date literal '@%s': %s", n.DateVal, err.Error())
	}
	return types.Collection{d}, nil
}

func (e *Evaluator) evalDateTimeLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	dt, err := types.NewDateTime(n.DateVal)
	if err != nil {
		return nil, diag.New(diag.InvalidDateTime, n.Span, "invalid datetime literal '@%s': %s", n.DateVal, err.Error())
	}
	return types.Collection{dt}, nil
}

func (e *Evaluator) evalTimeLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	t, err := types.NewTime(n.DateVal)
	if err != nil {
		return nil, diag.New(diag.InvalidDateTime, n.Span, "invalid time literal '@T%s': %s", n.DateVal, err.Error())
	}
	return types.Collection{t}, nil
}

func (e *Evaluator) evalQuantityLit(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	text := n.DecimalVal
	if n.QuantityUnit != "" {
		text += " '" + n.QuantityUnit + "'"
	}
	q, err := types.NewQuantity(text)
	if err != nil {
		return nil, diag.New(diag.Parse, n.Span, "invalid quantity literal: %s", err.Error())
	}
	return types.Collection{q}, nil
}

// evalVariable resolves a %name reference against bound variables.
// %resource/%context/%rootResource are always bound by NewContext. An
// unbound name yields the empty collection.
func (e *Evaluator) evalVariable(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	if v, ok := e.ctx.GetVariable(n.Name); ok {
		return v, nil
	}
	return types.Collection{}, nil
}

func (e *Evaluator) evalUnary(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	col, err := e.eval(n.Inner)
	if err != nil {
		return nil, err
	}
	if col.Empty() {
		return col, nil
	}
	if len(col) != 1 {
		return nil, diag.TypeErrorf(n.Span, "unary operator requires a single value, got %d", len(col))
	}
	if n.UnaryOp == ast.OpPos {
		return col, nil
	}
	negated, nerr := Negate(col[0])
	if nerr != nil {
		// Negate only fails on a type mismatch (e.g. negating a String):
		// a value-level fault, not a halting condition.
		return types.Collection{}, nil
	}
	return types.Collection{negated}, nil
}

// evalInvoke evaluates A.B: evaluate the receiver, rebind $this to its
// result for the duration of evaluating the step, then restore.
func (e *Evaluator) evalInvoke(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	base, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	oldThis := e.ctx.this
	e.ctx.this = base
	defer func() { e.ctx.this = oldThis }()

	if n.Right.Kind == ast.KindCall {
		return e.evalCall(n.Right, base)
	}
	return e.eval(n.Right)
}

// evalIndexer evaluates A[i]: the index expression is evaluated against
// the surrounding focus, not against A.
func (e *Evaluator) evalIndexer(n *ast.Node) (types.Collection, *diag.Diagnostic) {
	base, err := e.eval(n.Left)
	if err != nil {
		return nil, err
	}
	idxCol, err := e.eval(n.Right)
	if err != nil {
		return nil, err
	}
	if idxCol.Empty() {
		return types.Collection{}, nil
	}
	idx, ok := idxCol[0].(types.Integer)
	if !ok {
		return nil, diag.TypeErrorf(n.Span, "indexer requires an Integer, got %s", idxCol[0].Type())
	}
	i := int(idx.Value())
	if i < 0 || i >= len(base) {
		return types.Collection{}, nil
	}
	return types.Collection{base[i]}, nil
}

// navigateMember resolves a bare member name against each ObjectValue in
// input: a resourceType match, a direct field, or (failing both) a
// value[x]-pattern polymorphic field.
func (e *Evaluator) navigateMember(input types.Collection, name string) types.Collection {
	result := types.Collection{}
	for _, item := range input {
		obj, ok := item.(*types.ObjectValue)
		if !ok {
			continue
		}
		if IsSubtypeOf(obj.Type(), name) {
			result = append(result, obj)
			continue
		}
		if children := obj.GetCollection(name); len(children) > 0 {
			result = append(result, children...)
			continue
		}
		result = append(result, e.resolvePolymorphicField(obj, name)...)
	}
	return result
}

func (e *Evaluator) resolvePolymorphicField(obj *types.ObjectValue, name string) types.Collection {
	for _, suffix := range polymorphicTypeSuffixes {
		if children := obj.GetCollection(name + suffix); len(children) > 0 {
			return children
		}
	}
	return types.Collection{}
}

// typeNameFromArgNode reads a type name directly off an unevaluated
// argument AST node, for is()/as()/ofType(): the argument is a type
// specifier (possibly namespace-qualified, e.g. FHIR.Patient), never a
// path expression to be evaluated against $this.
func typeNameFromArgNode(n *ast.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case ast.KindTypeExpr, ast.KindIdent:
		return n.Name
	case ast.KindInvoke:
		return typeNameFromArgNode(n.Right)
	}
	return ""
}
