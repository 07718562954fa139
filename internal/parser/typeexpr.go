package parser

import (
	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/token"
)

// parseTypeExpr parses a type annotation, including unions: `A | B | C`.
func (p *Parser) parseTypeExpr() *ast.TypeExpr {
	first := p.parseTypePrimary()
	if first == nil {
		return nil
	}
	if !p.at(token.Pipe) {
		return first
	}
	members := []*ast.TypeExpr{first}
	for {
		if _, ok := p.accept(token.Pipe); !ok {
			break
		}
		if m := p.parseTypePrimary(); m != nil {
			members = append(members, m)
		}
	}
	return &ast.TypeExpr{Kind: ast.TypeUnion, Span: first.Span, Members: members}
}

// parseTypePrimary parses a non-union type, with the `?` optional suffix.
func (p *Parser) parseTypePrimary() *ast.TypeExpr {
	var te *ast.TypeExpr
	t := p.peek()
	switch t.Kind {
	case token.Ident, token.KwNone:
		p.bump()
		te = &ast.TypeExpr{Kind: ast.TypeName, Span: t.Span, Name: p.intern(t)}
		if p.at(token.Lt) {
			p.bump()
			for !p.at(token.Gt) && !p.at(token.EOF) {
				if arg := p.parseTypeExpr(); arg != nil {
					te.Args = append(te.Args, arg)
				}
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			p.expect(token.Gt)
		}
	case token.LParen:
		// Function type: (A, B) -> R
		p.bump()
		te = &ast.TypeExpr{Kind: ast.TypeFunction, Span: t.Span}
		for !p.at(token.RParen) && !p.at(token.EOF) {
			if param := p.parseTypeExpr(); param != nil {
				te.Params = append(te.Params, param)
			}
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.RParen)
		if _, ok := p.expect(token.Arrow); ok {
			te.Result = p.parseTypeExpr()
		}
	default:
		diag.Errorf(p.reporter, diag.SynExpectType, t.Span, "expected type")
		return nil
	}

	for p.at(token.Question) {
		q := p.bump()
		te = &ast.TypeExpr{Kind: ast.TypeOptional, Span: te.Span.Cover(q.Span), Elem: te}
	}
	return te
}
