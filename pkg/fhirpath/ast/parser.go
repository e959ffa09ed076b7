package ast

import (
	"strings"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/lex"
)

// Parser is a hand-written precedence-climbing recursive descent parser.
// FHIRPath's grammar is small and its precedence table is fixed, so a
// table-driven Pratt loop over binary operators plus a small recursive
// set of prefix/postfix parse functions covers it without needing a
// generated grammar.
type Parser struct {
	toks []lex.Token
	pos  int
}

// Parse tokenizes and parses expr, returning the AST root.
func Parse(expr string) (*Node, *diag.Diagnostic) {
	toks, err := lex.Tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	node, perr := p.parseExpr(precImplies)
	if perr != nil {
		return nil, perr
	}
	if !p.at(lex.EOF) {
		return nil, diag.New(diag.Parse, p.cur().Span, "unexpected token %q after expression", p.cur().Text)
	}
	return node, nil
}

func (p *Parser) cur() lex.Token  { return p.toks[p.pos] }
func (p *Parser) at(k lex.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lex.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lex.Kind, what string) (lex.Token, *diag.Diagnostic) {
	if !p.at(k) {
		return lex.Token{}, diag.New(diag.Parse, p.cur().Span, "expected %s, got %q", what, p.cur().Text)
	}
	return p.advance(), nil
}

// precedence levels, low to high; binary operators only (implies is
// lowest, mul/div/div/mod is highest before unary/invocation).
const (
	precImplies = iota + 1
	precOrXor
	precAnd
	precMembership // in, contains
	precEquality   // = != ~ !~
	precRelational // < <= > >=
	precTypeOp     // is, as
	precUnion      // |
	precAdditive   // + - &
	precMultiplicative // * / div mod
)

type binInfo struct {
	prec      int
	op        BinOp
	rightAssoc bool
}

func (p *Parser) binInfo(k lex.Kind) (binInfo, bool) {
	switch k {
	case lex.KwImplies:
		return binInfo{precImplies, OpImplies, true}, true
	case lex.KwOr:
		return binInfo{precOrXor, OpOr, false}, true
	case lex.KwXor:
		return binInfo{precOrXor, OpXor, false}, true
	case lex.KwAnd:
		return binInfo{precAnd, OpAnd, false}, true
	case lex.KwIn:
		return binInfo{precMembership, OpIn, false}, true
	case lex.KwContains:
		return binInfo{precMembership, OpContains, false}, true
	case lex.Eq:
		return binInfo{precEquality, OpEq, false}, true
	case lex.Neq, lex.NotEq2:
		return binInfo{precEquality, OpNeq, false}, true
	case lex.Equiv:
		return binInfo{precEquality, OpEquiv, false}, true
	case lex.NotEquiv:
		return binInfo{precEquality, OpNotEquiv, false}, true
	case lex.Lt:
		return binInfo{precRelational, OpLt, false}, true
	case lex.Le:
		return binInfo{precRelational, OpLe, false}, true
	case lex.Gt:
		return binInfo{precRelational, OpGt, false}, true
	case lex.Ge:
		return binInfo{precRelational, OpGe, false}, true
	case lex.KwIs:
		return binInfo{precTypeOp, OpIs, false}, true
	case lex.KwAs:
		return binInfo{precTypeOp, OpAs, false}, true
	case lex.Pipe:
		return binInfo{precUnion, 0, false}, true
	case lex.Plus:
		return binInfo{precAdditive, OpAdd, false}, true
	case lex.Minus:
		return binInfo{precAdditive, OpSub, false}, true
	case lex.Amp:
		return binInfo{precAdditive, OpConcat, false}, true
	case lex.Star:
		return binInfo{precMultiplicative, OpMul, false}, true
	case lex.Slash:
		return binInfo{precMultiplicative, OpDiv, false}, true
	case lex.KwDiv:
		return binInfo{precMultiplicative, OpIntDiv, false}, true
	case lex.KwMod:
		return binInfo{precMultiplicative, OpMod, false}, true
	default:
		return binInfo{}, false
	}
}

// parseExpr implements precedence climbing: it parses a unary/invocation
// expression, then repeatedly consumes binary operators whose precedence
// is >= minPrec.
func (p *Parser) parseExpr(minPrec int) (*Node, *diag.Diagnostic) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		info, ok := p.binInfo(p.cur().Kind)
		if !ok || info.prec < minPrec {
			return left, nil
		}
		opTok := p.advance()

		if opTok.Kind == lex.KwIs || opTok.Kind == lex.KwAs {
			typeNode, terr := p.parseTypeSpecifier()
			if terr != nil {
				return nil, terr
			}
			left = &Node{
				Kind:  KindBinary,
				BinOp: info.op,
				Left:  left,
				Right: typeNode,
				Span:  diag.Span{Start: left.Span.Start, End: typeNode.Span.End},
			}
			continue
		}

		if opTok.Kind == lex.Pipe {
			nextMin := info.prec + 1
			right, rerr := p.parseExpr(nextMin)
			if rerr != nil {
				return nil, rerr
			}
			left = &Node{Kind: KindUnion, Left: left, Right: right, Span: diag.Span{Start: left.Span.Start, End: right.Span.End}}
			continue
		}

		nextMin := info.prec + 1
		if info.rightAssoc {
			nextMin = info.prec
		}
		right, rerr := p.parseExpr(nextMin)
		if rerr != nil {
			return nil, rerr
		}
		left = &Node{
			Kind:  KindBinary,
			BinOp: info.op,
			Left:  left,
			Right: right,
			Span:  diag.Span{Start: left.Span.Start, End: right.Span.End},
		}
	}
}

// parseTypeSpecifier parses the type-name operand of is/as/ofType: a
// possibly-qualified identifier, e.g. `Patient` or `FHIR.Patient`.
func (p *Parser) parseTypeSpecifier() (*Node, *diag.Diagnostic) {
	start := p.cur().Span
	var parts []string
	for {
		tok := p.cur()
		if tok.Kind != lex.Ident {
			return nil, diag.New(diag.Parse, tok.Span, "expected type name, got %q", tok.Text)
		}
		parts = append(parts, tok.Text)
		p.advance()
		if p.at(lex.Dot) {
			p.advance()
			continue
		}
		break
	}
	name := parts[len(parts)-1]
	return &Node{Kind: KindTypeExpr, Name: name, Span: diag.Span{Start: start.Start, End: p.prevEnd()}}, nil
}

func (p *Parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].Span.End
}

func (p *Parser) parseUnary() (*Node, *diag.Diagnostic) {
	switch p.cur().Kind {
	case lex.Plus:
		start := p.advance().Span
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnary, UnaryOp: OpPos, Inner: inner, Span: diag.Span{Start: start.Start, End: inner.Span.End}}, nil
	case lex.Minus:
		start := p.advance().Span
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindUnary, UnaryOp: OpNeg, Inner: inner, Span: diag.Span{Start: start.Start, End: inner.Span.End}}, nil
	default:
		return p.parseInvocation()
	}
}

// parseInvocation parses a primary expression followed by a chain of
// `.member`, `.func(args)`, and `[index]` postfix operators, which
// together form FHIRPath's highest-precedence invocation level.
func (p *Parser) parseInvocation() (*Node, *diag.Diagnostic) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case lex.Dot:
			p.advance()
			step, serr := p.parseInvocationStep()
			if serr != nil {
				return nil, serr
			}
			left = &Node{Kind: KindInvoke, Left: left, Right: step, Span: diag.Span{Start: left.Span.Start, End: step.Span.End}}
		case lex.LBracket:
			p.advance()
			idx, ierr := p.parseExpr(precImplies)
			if ierr != nil {
				return nil, ierr
			}
			closeTok, cerr := p.expect(lex.RBracket, "']'")
			if cerr != nil {
				return nil, cerr
			}
			left = &Node{Kind: KindIndexer, Left: left, Right: idx, Span: diag.Span{Start: left.Span.Start, End: closeTok.Span.End}}
		default:
			return left, nil
		}
	}
}

// parseInvocationStep parses the right-hand side of a `.` step: either a
// bare member name or a function call.
func (p *Parser) parseInvocationStep() (*Node, *diag.Diagnostic) {
	tok := p.cur()
	name, nerr := p.memberName()
	if nerr != nil {
		return nil, nerr
	}
	if p.at(lex.LParen) {
		return p.parseCallArgs(name, tok.Span.Start)
	}
	switch tok.Kind {
	case lex.KwThis:
		return &Node{Kind: KindThis, Span: tok.Span}, nil
	case lex.KwIndex:
		return &Node{Kind: KindIndex, Span: tok.Span}, nil
	case lex.KwTotal:
		return &Node{Kind: KindTotal, Span: tok.Span}, nil
	}
	return &Node{Kind: KindIdent, Name: name, Span: diag.Span{Start: tok.Span.Start, End: p.prevEnd()}}, nil
}

// memberName accepts an unquoted identifier, a keyword used
// syntactically as a member name (FHIRPath allows e.g. `.as`, `.is` as
// plain member/function names since the parser already knows it's in
// invocation position), or a delimited identifier.
func (p *Parser) memberName() (string, *diag.Diagnostic) {
	tok := p.cur()
	switch tok.Kind {
	case lex.Ident, lex.Delimited:
		p.advance()
		if tok.Kind == lex.Delimited {
			return tok.Value, nil
		}
		return tok.Text, nil
	case lex.KwAnd, lex.KwOr, lex.KwXor, lex.KwImplies, lex.KwIn, lex.KwContains,
		lex.KwDiv, lex.KwMod, lex.KwIs, lex.KwAs, lex.KwTrue, lex.KwFalse,
		lex.KwThis, lex.KwIndex, lex.KwTotal:
		p.advance()
		return tok.Text, nil
	default:
		return "", diag.New(diag.Parse, tok.Span, "expected identifier, got %q", tok.Text)
	}
}

func (p *Parser) parseCallArgs(name string, start int) (*Node, *diag.Diagnostic) {
	if _, err := p.expect(lex.LParen, "'('"); err != nil {
		return nil, err
	}
	var args []*Node
	if !p.at(lex.RParen) {
		for {
			arg, aerr := p.parseExpr(precImplies)
			if aerr != nil {
				return nil, aerr
			}
			args = append(args, arg)
			if p.at(lex.Comma) {
				p.advance()
				continue
			}
			break
		}
	}
	closeTok, cerr := p.expect(lex.RParen, "')'")
	if cerr != nil {
		return nil, cerr
	}
	return &Node{Kind: KindCall, FuncName: name, Args: args, Span: diag.Span{Start: start, End: closeTok.Span.End}}, nil
}

func (p *Parser) parsePrimary() (*Node, *diag.Diagnostic) {
	tok := p.cur()
	switch tok.Kind {
	case lex.KwTrue:
		p.advance()
		return &Node{Kind: KindBoolLit, BoolVal: true, Span: tok.Span}, nil
	case lex.KwFalse:
		p.advance()
		return &Node{Kind: KindBoolLit, BoolVal: false, Span: tok.Span}, nil
	case lex.KwThis:
		p.advance()
		return &Node{Kind: KindThis, Span: tok.Span}, nil
	case lex.KwIndex:
		p.advance()
		return &Node{Kind: KindIndex, Span: tok.Span}, nil
	case lex.KwTotal:
		p.advance()
		return &Node{Kind: KindTotal, Span: tok.Span}, nil
	case lex.Number:
		p.advance()
		return p.numberNode(tok)
	case lex.String:
		p.advance()
		return &Node{Kind: KindStringLit, StringVal: tok.Value, Span: tok.Span}, nil
	case lex.DateLit:
		p.advance()
		return &Node{Kind: KindDateLit, DateVal: tok.Value, Span: tok.Span}, nil
	case lex.DateTimeLit:
		p.advance()
		return &Node{Kind: KindDateTimeLit, DateVal: tok.Value, Span: tok.Span}, nil
	case lex.TimeLit:
		p.advance()
		return &Node{Kind: KindTimeLit, DateVal: tok.Value, Span: tok.Span}, nil
	case lex.Percent:
		p.advance()
		return &Node{Kind: KindVariable, Name: tok.Text, Span: tok.Span}, nil
	case lex.LParen:
		p.advance()
		inner, ierr := p.parseExpr(precImplies)
		if ierr != nil {
			return nil, ierr
		}
		closeTok, cerr := p.expect(lex.RParen, "')'")
		if cerr != nil {
			return nil, cerr
		}
		return &Node{Kind: KindGroup, Inner: inner, Span: diag.Span{Start: tok.Span.Start, End: closeTok.Span.End}}, nil
	case lex.LBrace:
		// empty set literal `{}`
		p.advance()
		closeTok, cerr := p.expect(lex.RBrace, "'}'")
		if cerr != nil {
			return nil, cerr
		}
		return &Node{Kind: KindNull, Span: diag.Span{Start: tok.Span.Start, End: closeTok.Span.End}}, nil
	case lex.Ident, lex.Delimited,
		lex.KwAnd, lex.KwOr, lex.KwXor, lex.KwImplies, lex.KwIn, lex.KwContains,
		lex.KwDiv, lex.KwMod, lex.KwIs, lex.KwAs:
		name, nerr := p.memberName()
		if nerr != nil {
			return nil, nerr
		}
		if p.at(lex.LParen) {
			return p.parseCallArgs(name, tok.Span.Start)
		}
		return &Node{Kind: KindIdent, Name: name, Span: diag.Span{Start: tok.Span.Start, End: p.prevEnd()}}, nil
	default:
		return nil, diag.New(diag.Parse, tok.Span, "unexpected token %q", tok.Text)
	}
}

// numberNode distinguishes an Integer literal from a Decimal literal,
// and recognizes a trailing quantity unit (`4 'mg'` or `4 days`).
func (p *Parser) numberNode(tok lex.Token) (*Node, *diag.Diagnostic) {
	var node *Node
	if tok.HasDot {
		node = &Node{Kind: KindDecimalLit, DecimalVal: tok.Text, Span: tok.Span}
	} else {
		node = &Node{Kind: KindIntLit, DecimalVal: tok.Text, Span: tok.Span}
	}
	if p.at(lex.String) {
		unitTok := p.advance()
		return &Node{Kind: KindQuantityLit, DecimalVal: tok.Text, QuantityUnit: unitTok.Value, Span: diag.Span{Start: tok.Span.Start, End: unitTok.Span.End}}, nil
	}
	if p.at(lex.Ident) && isCalendarUnit(p.cur().Text) {
		unitTok := p.advance()
		return &Node{Kind: KindQuantityLit, DecimalVal: tok.Text, QuantityUnit: unitTok.Text, Span: diag.Span{Start: tok.Span.Start, End: unitTok.Span.End}}, nil
	}
	return node, nil
}

var calendarUnits = map[string]bool{
	"year": true, "years": true, "month": true, "months": true,
	"week": true, "weeks": true, "day": true, "days": true,
	"hour": true, "hours": true, "minute": true, "minutes": true,
	"second": true, "seconds": true, "millisecond": true, "milliseconds": true,
}

func isCalendarUnit(s string) bool {
	return calendarUnits[strings.ToLower(s)]
}
