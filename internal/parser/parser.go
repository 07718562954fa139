// Package parser builds the Tocin AST from a token stream. Like the
// lexer it is a collaborator of the core pipeline: it reports syntax
// diagnostics and keeps going, so one run surfaces as many problems as
// possible.
package parser

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/lexer"
	"tocin/internal/source"
	"tocin/internal/token"
)

// Parser consumes one file's token stream.
type Parser struct {
	toks     []token.Token
	pos      int
	fileID   source.FileID
	strings  *source.Interner
	reporter diag.Reporter
}

// ParseFile lexes and parses one source file.
func ParseFile(f *source.File, strings *source.Interner, reporter diag.Reporter) *ast.File {
	return Parse(lexer.Tokenize(f, reporter), f.ID, strings, reporter)
}

// Parse builds the AST from an already-lexed token stream. The driver
// uses it to keep tokenization a separately timed stage.
func Parse(toks []token.Token, fileID source.FileID, strings *source.Interner, reporter diag.Reporter) *ast.File {
	p := &Parser{
		toks:     toks,
		fileID:   fileID,
		strings:  strings,
		reporter: reporter,
	}
	return p.parseFile()
}

func (p *Parser) parseFile() *ast.File {
	file := &ast.File{FileID: p.fileID}
	for !p.at(token.EOF) {
		before := p.pos
		if stmt := p.parseStmt(); stmt != nil {
			file.Stmts = append(file.Stmts, stmt)
		}
		if p.pos == before {
			// Nothing consumed: skip the offending token to guarantee progress.
			p.bump()
		}
	}
	return file
}

// --- token plumbing ---------------------------------------------------------

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) bump() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.bump(), true
	}
	return token.Token{}, false
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	if t, ok := p.accept(k); ok {
		return t, true
	}
	got := p.peek()
	diag.Errorf(p.reporter, diag.SynUnexpectedToken, got.Span,
		fmt.Sprintf("expected %q, found %q", k.String(), got.String()))
	return token.Token{}, false
}

func (p *Parser) expectSemi() {
	if _, ok := p.accept(token.Semi); ok {
		return
	}
	// Closing brace and EOF terminate a statement without a semicolon.
	if p.at(token.RBrace) || p.at(token.EOF) {
		return
	}
	diag.Errorf(p.reporter, diag.SynExpectSemicolon, p.peek().Span,
		fmt.Sprintf("expected ';', found %q", p.peek().String()))
}

func (p *Parser) intern(t token.Token) source.StringID {
	return p.strings.Intern(t.Text)
}

// sync skips tokens until a plausible statement boundary, so one syntax
// error does not cascade through the rest of the file.
func (p *Parser) sync() {
	for !p.at(token.EOF) {
		if _, ok := p.accept(token.Semi); ok {
			return
		}
		switch p.peek().Kind {
		case token.KwLet, token.KwConst, token.KwDef, token.KwClass,
			token.KwTrait, token.KwIf, token.KwWhile, token.KwFor,
			token.KwReturn, token.KwMatch, token.RBrace:
			return
		}
		p.bump()
	}
}
