package parser

import (
	"fmt"
	"strconv"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/token"
)

// Binding powers, low to high. Assignment is handled at statement level.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
)

func binaryPrec(k token.Kind) (ast.BinaryOp, int) {
	switch k {
	case token.OrOr:
		return ast.BinOr, precOr
	case token.AndAnd:
		return ast.BinAnd, precAnd
	case token.Eq:
		return ast.BinEq, precEquality
	case token.NotEq:
		return ast.BinNotEq, precEquality
	case token.Lt:
		return ast.BinLt, precComparison
	case token.LtEq:
		return ast.BinLtEq, precComparison
	case token.Gt:
		return ast.BinGt, precComparison
	case token.GtEq:
		return ast.BinGtEq, precComparison
	case token.Plus:
		return ast.BinAdd, precAdditive
	case token.Minus:
		return ast.BinSub, precAdditive
	case token.Star:
		return ast.BinMul, precMultiplicative
	case token.Slash:
		return ast.BinDiv, precMultiplicative
	case token.Percent:
		return ast.BinMod, precMultiplicative
	}
	return 0, precNone
}

func (p *Parser) parseExpr() *ast.Expr {
	return p.parseBinary(precNone + 1)
}

func (p *Parser) parseBinary(minPrec int) *ast.Expr {
	left := p.parseUnary()
	if left == nil {
		return nil
	}
	for {
		op, prec := binaryPrec(p.peek().Kind)
		if prec < minPrec {
			return left
		}
		p.bump()
		right := p.parseBinary(prec + 1)
		if right == nil {
			return left
		}
		left = &ast.Expr{
			Kind: ast.ExprBinary,
			Span: left.Span.Cover(right.Span),
			Data: ast.BinaryData{Op: op, Left: left, Right: right},
		}
	}
}

func (p *Parser) parseUnary() *ast.Expr {
	t := p.peek()
	switch t.Kind {
	case token.Minus:
		p.bump()
		return p.unary(ast.UnaryNeg, t)
	case token.Bang:
		p.bump()
		return p.unary(ast.UnaryNot, t)
	case token.Amp:
		p.bump()
		if _, ok := p.accept(token.KwMut); ok {
			return p.unary(ast.UnaryBorrowMut, t)
		}
		return p.unary(ast.UnaryBorrow, t)
	case token.KwMove:
		p.bump()
		return p.unary(ast.UnaryMove, t)
	case token.KwAwait:
		p.bump()
		operand := p.parseUnary()
		return &ast.Expr{
			Kind: ast.ExprAwait,
			Span: t.Span,
			Data: ast.AwaitData{Operand: operand},
		}
	}
	return p.parsePostfix()
}

func (p *Parser) unary(op ast.UnaryOp, t token.Token) *ast.Expr {
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.Expr{
		Kind: ast.ExprUnary,
		Span: t.Span.Cover(operand.Span),
		Data: ast.UnaryData{Op: op, Operand: operand},
	}
}

func (p *Parser) parsePostfix() *ast.Expr {
	expr := p.parsePrimary()
	if expr == nil {
		return nil
	}
	for {
		switch p.peek().Kind {
		case token.LParen:
			p.bump()
			var args []*ast.Expr
			for !p.at(token.RParen) && !p.at(token.EOF) {
				if arg := p.parseExpr(); arg != nil {
					args = append(args, arg)
				}
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			closeTok, _ := p.expect(token.RParen)
			expr = &ast.Expr{
				Kind: ast.ExprCall,
				Span: expr.Span.Cover(closeTok.Span),
				Data: ast.CallData{Callee: expr, Args: args},
			}
		case token.Dot:
			p.bump()
			nameTok, ok := p.expect(token.Ident)
			if !ok {
				return expr
			}
			expr = &ast.Expr{
				Kind: ast.ExprField,
				Span: expr.Span.Cover(nameTok.Span),
				Data: ast.FieldData{Object: expr, Name: p.intern(nameTok)},
			}
		case token.LBracket:
			p.bump()
			idx := p.parseExpr()
			closeTok, _ := p.expect(token.RBracket)
			expr = &ast.Expr{
				Kind: ast.ExprIndex,
				Span: expr.Span.Cover(closeTok.Span),
				Data: ast.IndexData{Object: expr, Index: idx},
			}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() *ast.Expr {
	t := p.peek()
	switch t.Kind {
	case token.IntLit:
		p.bump()
		v, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			diag.Errorf(p.reporter, diag.LexBadNumber, t.Span,
				fmt.Sprintf("integer literal %q out of range", t.Text))
		}
		return litExpr(t, ast.LiteralData{Kind: ast.LitInt, Int: v, Text: t.Text})
	case token.FloatLit:
		p.bump()
		v, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			diag.Errorf(p.reporter, diag.LexBadNumber, t.Span,
				fmt.Sprintf("float literal %q out of range", t.Text))
		}
		return litExpr(t, ast.LiteralData{Kind: ast.LitFloat, Float: v, Text: t.Text})
	case token.StringLit:
		p.bump()
		unquoted, err := strconv.Unquote(t.Text)
		if err != nil {
			unquoted = t.Text
		}
		return litExpr(t, ast.LiteralData{Kind: ast.LitString, String: unquoted, Text: t.Text})
	case token.KwTrue, token.KwFalse:
		p.bump()
		return litExpr(t, ast.LiteralData{Kind: ast.LitBool, Bool: t.Kind == token.KwTrue, Text: t.Text})
	case token.KwNone:
		p.bump()
		return litExpr(t, ast.LiteralData{Kind: ast.LitNone, Text: t.Text})
	case token.Ident:
		p.bump()
		return &ast.Expr{Kind: ast.ExprVarRef, Span: t.Span, Data: ast.VarRefData{Name: p.intern(t)}}
	case token.KwNew:
		return p.parseNew()
	case token.KwDef:
		return p.parseLambda()
	case token.LParen:
		p.bump()
		inner := p.parseExpr()
		closeTok, _ := p.expect(token.RParen)
		if inner == nil {
			return nil
		}
		return &ast.Expr{
			Kind: ast.ExprGroup,
			Span: t.Span.Cover(closeTok.Span),
			Data: ast.GroupData{Inner: inner},
		}
	case token.LBracket:
		p.bump()
		var elems []*ast.Expr
		for !p.at(token.RBracket) && !p.at(token.EOF) {
			if e := p.parseExpr(); e != nil {
				elems = append(elems, e)
			}
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		closeTok, _ := p.expect(token.RBracket)
		return &ast.Expr{
			Kind: ast.ExprList,
			Span: t.Span.Cover(closeTok.Span),
			Data: ast.ListData{Elems: elems},
		}
	default:
		diag.Errorf(p.reporter, diag.SynExpectExpression, t.Span,
			fmt.Sprintf("expected expression, found %q", t.String()))
		return nil
	}
}

func litExpr(t token.Token, data ast.LiteralData) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprLiteral, Span: t.Span, Data: data}
}

// parseNew handles `new Class<TypeArgs>(args)`.
func (p *Parser) parseNew() *ast.Expr {
	kw := p.bump()
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		return nil
	}
	data := ast.NewData{Class: p.intern(nameTok)}
	if p.at(token.Lt) {
		p.bump()
		for !p.at(token.Gt) && !p.at(token.EOF) {
			data.TypeArgs = append(data.TypeArgs, p.parseTypeExpr())
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
		p.expect(token.Gt)
	}
	p.expect(token.LParen)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if arg := p.parseExpr(); arg != nil {
			data.Args = append(data.Args, arg)
		}
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	closeTok, _ := p.expect(token.RParen)
	return &ast.Expr{Kind: ast.ExprNew, Span: kw.Span.Cover(closeTok.Span), Data: data}
}

// parseLambda handles `def (params) -> T { body }` in expression position.
func (p *Parser) parseLambda() *ast.Expr {
	kw := p.bump()
	data := ast.LambdaData{Params: p.parseParams()}
	if _, ok := p.accept(token.Arrow); ok {
		data.Return = p.parseTypeExpr()
	}
	data.Body = p.parseBlock()
	return &ast.Expr{Kind: ast.ExprLambda, Span: kw.Span, Data: data}
}
