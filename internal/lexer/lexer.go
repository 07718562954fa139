// Package lexer turns Tocin source text into a token stream. It is a
// collaborator of the compiler core: the type checker and IR generator
// only ever see the parser's AST, never raw tokens.
package lexer

import (
	"fmt"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"tocin/internal/diag"
	"tocin/internal/source"
	"tocin/internal/token"
)

// Lexer scans one file. Diagnostics go to the reporter; scanning always
// continues so a single pass surfaces every lexical problem.
type Lexer struct {
	cur      Cursor
	reporter diag.Reporter
}

func New(f *source.File, reporter diag.Reporter) *Lexer {
	return &Lexer{cur: NewCursor(f), reporter: reporter}
}

// Tokenize scans the whole file and appends an EOF token.
func Tokenize(f *source.File, reporter diag.Reporter) []token.Token {
	lx := New(f, reporter)
	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

// Next scans and returns the next token.
func (lx *Lexer) Next() token.Token {
	lx.skipTrivia()
	start := lx.cur.Off
	if lx.cur.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.cur.SpanFrom(start)}
	}

	b := lx.cur.Peek()
	switch {
	case isIdentStart(b):
		return lx.scanIdent(start)
	case b >= '0' && b <= '9':
		return lx.scanNumber(start)
	case b == '"':
		return lx.scanString(start)
	default:
		return lx.scanOperator(start)
	}
}

// skipTrivia consumes whitespace and comments (# line, // line).
func (lx *Lexer) skipTrivia() {
	for !lx.cur.EOF() {
		b := lx.cur.Peek()
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			lx.cur.Bump()
		case b == '#':
			lx.skipLine()
		case b == '/' && lx.cur.PeekAt(1) == '/':
			lx.skipLine()
		default:
			return
		}
	}
}

func (lx *Lexer) skipLine() {
	for !lx.cur.EOF() && lx.cur.Peek() != '\n' {
		lx.cur.Bump()
	}
}

func (lx *Lexer) scanIdent(start uint32) token.Token {
	for !lx.cur.EOF() {
		b := lx.cur.Peek()
		if isIdentPart(b) {
			lx.cur.Bump()
			continue
		}
		if b < 0x80 {
			break
		}
		r, size := lx.cur.PeekRune()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		lx.cur.Off += size
	}
	// Identifiers are NFC-normalized so visually identical names compare
	// equal regardless of how the editor encoded them.
	text := norm.NFC.String(lx.cur.Slice(start))
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: lx.cur.SpanFrom(start), Text: text}
	}
	return token.Token{Kind: token.Ident, Span: lx.cur.SpanFrom(start), Text: text}
}

func (lx *Lexer) scanNumber(start uint32) token.Token {
	kind := token.IntLit
	for !lx.cur.EOF() && isDigit(lx.cur.Peek()) {
		lx.cur.Bump()
	}
	if lx.cur.Peek() == '.' && isDigit(lx.cur.PeekAt(1)) {
		kind = token.FloatLit
		lx.cur.Bump()
		for !lx.cur.EOF() && isDigit(lx.cur.Peek()) {
			lx.cur.Bump()
		}
	}
	if isIdentStart(lx.cur.Peek()) {
		for !lx.cur.EOF() && isIdentPart(lx.cur.Peek()) {
			lx.cur.Bump()
		}
		sp := lx.cur.SpanFrom(start)
		diag.Errorf(lx.reporter, diag.LexBadNumber, sp,
			fmt.Sprintf("malformed numeric literal %q", lx.cur.Slice(start)))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cur.Slice(start)}
	}
	return token.Token{Kind: kind, Span: lx.cur.SpanFrom(start), Text: lx.cur.Slice(start)}
}

func (lx *Lexer) scanString(start uint32) token.Token {
	lx.cur.Bump() // opening quote
	for !lx.cur.EOF() {
		b := lx.cur.Peek()
		if b == '\\' {
			lx.cur.Bump()
			lx.cur.Bump()
			continue
		}
		if b == '"' {
			lx.cur.Bump()
			text := lx.cur.Slice(start)
			return token.Token{Kind: token.StringLit, Span: lx.cur.SpanFrom(start), Text: text}
		}
		if b == '\n' {
			break
		}
		lx.cur.Bump()
	}
	sp := lx.cur.SpanFrom(start)
	diag.Errorf(lx.reporter, diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cur.Slice(start)}
}

func (lx *Lexer) scanOperator(start uint32) token.Token {
	b := lx.cur.Peek()
	lx.cur.Bump()
	two := func(next byte, ifTwo, ifOne token.Kind) token.Kind {
		if lx.cur.Peek() == next {
			lx.cur.Bump()
			return ifTwo
		}
		return ifOne
	}

	var kind token.Kind
	switch b {
	case '+':
		kind = token.Plus
	case '-':
		kind = two('>', token.Arrow, token.Minus)
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case '=':
		kind = two('=', token.Eq, token.Assign)
		if kind == token.Assign && lx.cur.Peek() == '>' {
			lx.cur.Bump()
			kind = token.FatArrow
		}
	case '!':
		kind = two('=', token.NotEq, token.Bang)
	case '<':
		kind = two('=', token.LtEq, token.Lt)
	case '>':
		kind = two('=', token.GtEq, token.Gt)
	case '&':
		kind = two('&', token.AndAnd, token.Amp)
	case '|':
		kind = two('|', token.OrOr, token.Pipe)
	case '?':
		kind = token.Question
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ',':
		kind = token.Comma
	case ':':
		kind = token.Colon
	case ';':
		kind = token.Semi
	case '.':
		kind = token.Dot
	default:
		sp := lx.cur.SpanFrom(start)
		diag.Errorf(lx.reporter, diag.LexUnknownChar, sp,
			fmt.Sprintf("unknown character %q", string(rune(b))))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cur.Slice(start)}
	}
	return token.Token{Kind: kind, Span: lx.cur.SpanFrom(start), Text: lx.cur.Slice(start)}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
