package lex

import (
	"strings"

	"github.com/octoshikari/aether-fhirpath/pkg/fhirpath/diag"
)

// Lexer turns FHIRPath source text into a token stream. It is
// non-restartable: once exhausted it always yields EOF.
type Lexer struct {
	src  string
	pos  int // byte offset of the next unread rune
	done bool
}

// New creates a Lexer over expr.
func New(expr string) *Lexer {
	return &Lexer{src: expr}
}

// Tokenize consumes the entire input and returns the token list (always
// EOF-terminated) or the first Lex diagnostic encountered.
func Tokenize(expr string) ([]Token, *diag.Diagnostic) {
	l := New(expr)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(offset int) byte {
	if l.pos+offset >= len(l.src) {
		return 0
	}
	return l.src[l.pos+offset]
}

func (l *Lexer) skipTrivia() *diag.Diagnostic {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '/' && l.peekByteAt(1) == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekByteAt(1) == '*':
			start := l.pos
			l.pos += 2
			closed := false
			for l.pos+1 < len(l.src) {
				if l.src[l.pos] == '*' && l.src[l.pos+1] == '/' {
					l.pos += 2
					closed = true
					break
				}
				l.pos++
			}
			if !closed {
				return diag.New(diag.Lex, diag.Span{Start: start, End: len(l.src)}, "unterminated block comment")
			}
		default:
			return nil
		}
	}
	return nil
}

// Next returns the next token, or an EOF token once the input is
// exhausted.
func (l *Lexer) Next() (Token, *diag.Diagnostic) {
	if err := l.skipTrivia(); err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Span: Span{Start: l.pos, End: l.pos}}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '@':
		return l.lexDateTime(start)
	case c == '\'':
		return l.lexString(start)
	case c == '`':
		return l.lexDelimitedIdent(start)
	case c == '%':
		l.pos++
		return l.lexVariableRef(start)
	case c == '$':
		return l.lexSpecialVar(start)
	case isDigit(c):
		return l.lexNumber(start)
	case isIdentStart(c):
		return l.lexIdentOrKeyword(start)
	default:
		return l.lexOperator(start)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func (l *Lexer) lexIdentOrKeyword(start int) (Token, *diag.Diagnostic) {
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	span := Span{Start: start, End: l.pos}

	switch text {
	case "and":
		return Token{Kind: KwAnd, Text: text, Span: span}, nil
	case "or":
		return Token{Kind: KwOr, Text: text, Span: span}, nil
	case "xor":
		return Token{Kind: KwXor, Text: text, Span: span}, nil
	case "implies":
		return Token{Kind: KwImplies, Text: text, Span: span}, nil
	case "in":
		return Token{Kind: KwIn, Text: text, Span: span}, nil
	case "contains":
		return Token{Kind: KwContains, Text: text, Span: span}, nil
	case "div":
		return Token{Kind: KwDiv, Text: text, Span: span}, nil
	case "mod":
		return Token{Kind: KwMod, Text: text, Span: span}, nil
	case "is":
		return Token{Kind: KwIs, Text: text, Span: span}, nil
	case "as":
		return Token{Kind: KwAs, Text: text, Span: span}, nil
	case "true":
		return Token{Kind: KwTrue, Text: text, Span: span}, nil
	case "false":
		return Token{Kind: KwFalse, Text: text, Span: span}, nil
	default:
		return Token{Kind: Ident, Text: text, Value: text, Span: span}, nil
	}
}

func (l *Lexer) lexSpecialVar(start int) (Token, *diag.Diagnostic) {
	l.pos++ // consume '$'
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	span := Span{Start: start, End: l.pos}
	switch text {
	case "$this":
		return Token{Kind: KwThis, Text: text, Span: span}, nil
	case "$index":
		return Token{Kind: KwIndex, Text: text, Span: span}, nil
	case "$total":
		return Token{Kind: KwTotal, Text: text, Span: span}, nil
	default:
		return Token{}, diag.New(diag.Lex, span, "unknown special variable %q", text)
	}
}

func (l *Lexer) lexVariableRef(start int) (Token, *diag.Diagnostic) {
	// '%' already consumed. %`quoted` or %identifier
	if l.peekByte() == '`' {
		tok, err := l.lexDelimitedIdent(l.pos)
		if err != nil {
			return Token{}, err
		}
		tok.Kind = Percent
		tok.Span.Start = start
		return tok, nil
	}
	nameStart := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == nameStart {
		return Token{}, diag.New(diag.Lex, Span{Start: start, End: l.pos}, "expected identifier after '%%'")
	}
	name := l.src[nameStart:l.pos]
	return Token{Kind: Percent, Text: name, Value: name, Span: Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) lexDelimitedIdent(start int) (Token, *diag.Diagnostic) {
	l.pos = start + 1 // skip opening backtick
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, diag.New(diag.Lex, Span{Start: start, End: l.pos}, "unterminated delimited identifier")
		}
		c := l.src[l.pos]
		if c == '`' {
			l.pos++
			break
		}
		if c == '\\' {
			decoded, n, derr := decodeEscape(l.src, l.pos)
			if derr != nil {
				return Token{}, diag.New(diag.Lex, Span{Start: l.pos, End: l.pos + 1}, derr.Error())
			}
			sb.WriteRune(decoded)
			l.pos += n
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return Token{Kind: Delimited, Text: l.src[start:l.pos], Value: sb.String(), Span: Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) lexString(start int) (Token, *diag.Diagnostic) {
	l.pos = start + 1
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, diag.New(diag.Lex, Span{Start: start, End: l.pos}, "unterminated string literal")
		}
		c := l.src[l.pos]
		if c == '\'' {
			l.pos++
			break
		}
		if c == '\\' {
			decoded, n, derr := decodeEscape(l.src, l.pos)
			if derr != nil {
				return Token{}, diag.New(diag.Lex, Span{Start: l.pos, End: l.pos + 1}, derr.Error())
			}
			sb.WriteRune(decoded)
			l.pos += n
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	return Token{Kind: String, Text: l.src[start:l.pos], Value: sb.String(), Span: Span{Start: start, End: l.pos}}, nil
}

type escapeError struct{ msg string }

func (e *escapeError) Error() string { return e.msg }

// decodeEscape decodes a single backslash escape starting at src[pos]
// (src[pos] == '\\'). Returns the decoded rune, the number of bytes
// consumed (including the backslash), or an error for an unknown escape.
func decodeEscape(src string, pos int) (rune, int, error) {
	if pos+1 >= len(src) {
		return 0, 0, &escapeError{"unterminated escape sequence"}
	}
	switch src[pos+1] {
	case '\'':
		return '\'', 2, nil
	case '"':
		return '"', 2, nil
	case '`':
		return '`', 2, nil
	case '\\':
		return '\\', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'r':
		return '\r', 2, nil
	case 't':
		return '\t', 2, nil
	case 'f':
		return '\f', 2, nil
	case '/':
		return '/', 2, nil
	case 'u':
		if pos+6 > len(src) {
			return 0, 0, &escapeError{"incomplete \\u escape"}
		}
		hex := src[pos+2 : pos+6]
		var r rune
		for _, c := range hex {
			r <<= 4
			switch {
			case c >= '0' && c <= '9':
				r |= c - '0'
			case c >= 'a' && c <= 'f':
				r |= c - 'a' + 10
			case c >= 'A' && c <= 'F':
				r |= c - 'A' + 10
			default:
				return 0, 0, &escapeError{"invalid \\u escape"}
			}
		}
		return r, 6, nil
	default:
		return 0, 0, &escapeError{"unsupported escape sequence \\" + string(src[pos+1])}
	}
}

func (l *Lexer) lexNumber(start int) (Token, *diag.Diagnostic) {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	hasDot := false
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		hasDot = true
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	text := l.src[start:l.pos]
	return Token{Kind: Number, Text: text, HasDot: hasDot, Span: Span{Start: start, End: l.pos}}, nil
}

// lexDateTime handles @-prefixed Date/DateTime/Time literals per FHIRPath
// grammar: @YYYY[-MM[-DD]], @YYYY-MM-DDThh:mm:ss[.fff][Z|+hh:mm], @Thh:mm:ss[.fff].
func (l *Lexer) lexDateTime(start int) (Token, *diag.Diagnostic) {
	l.pos = start + 1
	if l.peekByte() == 'T' {
		l.pos++
		timeStart := l.pos
		for l.pos < len(l.src) && isTimeBodyByte(l.src[l.pos]) {
			l.pos++
		}
		return Token{Kind: TimeLit, Text: l.src[start:l.pos], Value: l.src[timeStart:l.pos], Span: Span{Start: start, End: l.pos}}, nil
	}
	bodyStart := l.pos
	for l.pos < len(l.src) && isDateTimeBodyByte(l.src[l.pos]) {
		l.pos++
	}
	if l.pos == bodyStart {
		return Token{}, diag.New(diag.Lex, Span{Start: start, End: l.pos + 1}, "empty date/time literal")
	}
	text := l.src[start:l.pos]
	kind := DateLit
	if strings.Contains(text, "T") {
		kind = DateTimeLit
	}
	return Token{Kind: kind, Text: text, Value: l.src[bodyStart:l.pos], Span: Span{Start: start, End: l.pos}}, nil
}

func isDateTimeBodyByte(c byte) bool {
	return isDigit(c) || c == '-' || c == 'T' || c == ':' || c == '.' || c == '+' || c == 'Z'
}

func isTimeBodyByte(c byte) bool {
	return isDigit(c) || c == ':' || c == '.'
}

var twoByteOps = map[string]Kind{
	"!=": Neq,
	"!~": NotEquiv,
	"<=": Le,
	">=": Ge,
	"<>": NotEq2,
}

func (l *Lexer) lexOperator(start int) (Token, *diag.Diagnostic) {
	c := l.src[start]
	if two := l.peekTwoByteOp(start); two != 0 {
		l.pos = start + 2
		return Token{Kind: two, Text: l.src[start:l.pos], Span: Span{Start: start, End: l.pos}}, nil
	}
	l.pos = start + 1
	var kind Kind
	switch c {
	case '.':
		kind = Dot
	case ',':
		kind = Comma
	case '(':
		kind = LParen
	case ')':
		kind = RParen
	case '[':
		kind = LBracket
	case ']':
		kind = RBracket
	case '{':
		kind = LBrace
	case '}':
		kind = RBrace
	case '|':
		kind = Pipe
	case '&':
		kind = Amp
	case '+':
		kind = Plus
	case '-':
		kind = Minus
	case '*':
		kind = Star
	case '/':
		kind = Slash
	case '=':
		kind = Eq
	case '~':
		kind = Equiv
	case '<':
		kind = Lt
	case '>':
		kind = Gt
	default:
		return Token{}, diag.New(diag.Lex, Span{Start: start, End: start + 1}, "unexpected character %q", c)
	}
	return Token{Kind: kind, Text: l.src[start:l.pos], Span: Span{Start: start, End: l.pos}}, nil
}

func (l *Lexer) peekTwoByteOp(start int) Kind {
	if start+2 > len(l.src) {
		return 0
	}
	if k, ok := twoByteOps[l.src[start:start+2]]; ok {
		return k
	}
	return 0
}
