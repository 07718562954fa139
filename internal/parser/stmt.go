package parser

import (
	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/token"
)

func (p *Parser) parseStmt() *ast.Stmt {
	switch p.peek().Kind {
	case token.KwLet, token.KwConst:
		return p.parseVarDecl()
	case token.KwDef:
		return p.parseFunc(false)
	case token.KwAsync:
		start := p.bump()
		if !p.at(token.KwDef) {
			diag.Errorf(p.reporter, diag.SynUnexpectedToken, start.Span, "'async' must be followed by 'def'")
			p.sync()
			return nil
		}
		return p.parseFunc(true)
	case token.KwClass:
		return p.parseClass()
	case token.KwTrait:
		return p.parseTrait()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwMatch:
		return p.parseMatch()
	case token.KwReturn:
		start := p.bump()
		data := ast.ReturnData{}
		if !p.at(token.Semi) && !p.at(token.RBrace) && !p.at(token.EOF) {
			data.Value = p.parseExpr()
		}
		p.expectSemi()
		return &ast.Stmt{Kind: ast.StmtReturn, Span: start.Span, Data: data}
	case token.KwBreak:
		t := p.bump()
		p.expectSemi()
		return &ast.Stmt{Kind: ast.StmtBreak, Span: t.Span, Data: ast.BreakData{}}
	case token.KwContinue:
		t := p.bump()
		p.expectSemi()
		return &ast.Stmt{Kind: ast.StmtContinue, Span: t.Span, Data: ast.ContinueData{}}
	case token.LBrace:
		return p.parseBlock()
	default:
		return p.parseExprOrAssign()
	}
}

func (p *Parser) parseVarDecl() *ast.Stmt {
	kw := p.bump()
	isConst := kw.Kind == token.KwConst
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		p.sync()
		return nil
	}
	data := ast.VarDeclData{Name: p.intern(nameTok), Const: isConst}
	if _, ok := p.accept(token.Colon); ok {
		data.Declared = p.parseTypeExpr()
	}
	if _, ok := p.accept(token.Assign); ok {
		data.Init = p.parseExpr()
	}
	p.expectSemi()
	span := kw.Span.Cover(nameTok.Span)
	return &ast.Stmt{Kind: ast.StmtVarDecl, Span: span, Data: data}
}

func (p *Parser) parseBlock() *ast.Stmt {
	open, ok := p.expect(token.LBrace)
	if !ok {
		p.sync()
		return nil
	}
	var stmts []*ast.Stmt
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			p.bump()
		}
	}
	closeTok, _ := p.expect(token.RBrace)
	return &ast.Stmt{
		Kind: ast.StmtBlock,
		Span: open.Span.Cover(closeTok.Span),
		Data: ast.BlockData{Stmts: stmts},
	}
}

func (p *Parser) parseIf() *ast.Stmt {
	kw := p.bump()
	cond := p.parseExpr()
	then := p.parseBlock()
	data := ast.IfData{Cond: cond, Then: then}
	if _, ok := p.accept(token.KwElse); ok {
		if p.at(token.KwIf) {
			data.Else = p.parseIf()
		} else {
			data.Else = p.parseBlock()
		}
	}
	return &ast.Stmt{Kind: ast.StmtIf, Span: kw.Span, Data: data}
}

func (p *Parser) parseWhile() *ast.Stmt {
	kw := p.bump()
	cond := p.parseExpr()
	body := p.parseBlock()
	return &ast.Stmt{Kind: ast.StmtWhile, Span: kw.Span, Data: ast.WhileData{Cond: cond, Body: body}}
}

// parseFor handles `for init; cond; update { body }` with any header part
// optional.
func (p *Parser) parseFor() *ast.Stmt {
	kw := p.bump()
	data := ast.ForData{}
	if !p.at(token.Semi) {
		if p.at(token.KwLet) || p.at(token.KwConst) {
			data.Init = p.parseVarDecl() // consumes the first ';'
		} else {
			data.Init = p.parseExprOrAssignNoSemi()
			p.expectSemi()
		}
	} else {
		p.bump()
	}
	if !p.at(token.Semi) {
		data.Cond = p.parseExpr()
	}
	p.expectSemi()
	if !p.at(token.LBrace) {
		data.Update = p.parseExprOrAssignNoSemi()
	}
	data.Body = p.parseBlock()
	return &ast.Stmt{Kind: ast.StmtFor, Span: kw.Span, Data: data}
}

func (p *Parser) parseFunc(isAsync bool) *ast.Stmt {
	kw := p.bump() // def
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		p.sync()
		return nil
	}
	data := ast.FuncData{Name: p.intern(nameTok), Async: isAsync}
	data.TypeParams = p.parseTypeParams()
	data.Params = p.parseParams()
	if _, ok := p.accept(token.Arrow); ok {
		data.Return = p.parseTypeExpr()
	}
	data.Body = p.parseBlock()
	return &ast.Stmt{Kind: ast.StmtFunc, Span: kw.Span.Cover(nameTok.Span), Data: data}
}

// parseTypeParams parses an optional `<T, U: Bound>` list.
func (p *Parser) parseTypeParams() []ast.TypeParam {
	if !p.at(token.Lt) {
		return nil
	}
	p.bump()
	var params []ast.TypeParam
	for !p.at(token.Gt) && !p.at(token.EOF) {
		nameTok, ok := p.expect(token.Ident)
		if !ok {
			break
		}
		tp := ast.TypeParam{Name: p.intern(nameTok), Span: nameTok.Span}
		if _, ok := p.accept(token.Colon); ok {
			if boundTok, ok := p.expect(token.Ident); ok {
				tp.Bound = p.intern(boundTok)
			}
		}
		params = append(params, tp)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.Gt)
	return params
}

func (p *Parser) parseParams() []ast.Param {
	if _, ok := p.expect(token.LParen); !ok {
		return nil
	}
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		nameTok, ok := p.expect(token.Ident)
		if !ok {
			break
		}
		param := ast.Param{Name: p.intern(nameTok), Span: nameTok.Span}
		// The annotation is optional in the grammar so `self` can stay
		// bare; the checker rejects unannotated value parameters.
		if _, ok := p.accept(token.Colon); ok {
			param.Type = p.parseTypeExpr()
		}
		params = append(params, param)
		if _, ok := p.accept(token.Comma); !ok {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *Parser) parseClass() *ast.Stmt {
	kw := p.bump()
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		p.sync()
		return nil
	}
	data := ast.ClassData{Name: p.intern(nameTok)}
	data.TypeParams = p.parseTypeParams()
	if _, ok := p.accept(token.Colon); ok {
		if baseTok, ok := p.expect(token.Ident); ok {
			data.Base = p.intern(baseTok)
		}
	}
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.KwDef:
			if m := p.parseFunc(false); m != nil {
				data.Methods = append(data.Methods, m)
			}
		case token.KwAsync:
			p.bump()
			if m := p.parseFunc(true); m != nil {
				data.Methods = append(data.Methods, m)
			}
		case token.Ident:
			fieldTok := p.bump()
			field := ast.FieldDecl{Name: p.intern(fieldTok), Span: fieldTok.Span}
			if _, ok := p.expect(token.Colon); ok {
				field.Type = p.parseTypeExpr()
			}
			p.expectSemi()
			data.Fields = append(data.Fields, field)
		default:
			diag.Errorf(p.reporter, diag.SynUnexpectedToken, p.peek().Span,
				"expected field or method declaration")
			p.bump()
		}
	}
	p.expect(token.RBrace)
	return &ast.Stmt{Kind: ast.StmtClass, Span: kw.Span.Cover(nameTok.Span), Data: data}
}

func (p *Parser) parseTrait() *ast.Stmt {
	kw := p.bump()
	nameTok, ok := p.expect(token.Ident)
	if !ok {
		p.sync()
		return nil
	}
	data := ast.TraitData{Name: p.intern(nameTok)}
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if _, ok := p.accept(token.KwDef); !ok {
			diag.Errorf(p.reporter, diag.SynUnexpectedToken, p.peek().Span,
				"expected method signature")
			p.bump()
			continue
		}
		mTok, ok := p.expect(token.Ident)
		if !ok {
			continue
		}
		m := ast.TraitMethod{Name: p.intern(mTok), Span: mTok.Span}
		m.Params = p.parseParams()
		if _, ok := p.accept(token.Arrow); ok {
			m.Return = p.parseTypeExpr()
		}
		p.expectSemi()
		data.Methods = append(data.Methods, m)
	}
	p.expect(token.RBrace)
	return &ast.Stmt{Kind: ast.StmtTrait, Span: kw.Span.Cover(nameTok.Span), Data: data}
}

func (p *Parser) parseMatch() *ast.Stmt {
	kw := p.bump()
	scrutinee := p.parseExpr()
	data := ast.MatchData{Scrutinee: scrutinee}
	p.expect(token.LBrace)
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		caseTok, ok := p.expect(token.KwCase)
		if !ok {
			p.bump()
			continue
		}
		pat := p.parsePattern()
		p.expect(token.FatArrow)
		var body *ast.Stmt
		if p.at(token.LBrace) {
			body = p.parseBlock()
		} else {
			body = p.parseExprOrAssign()
		}
		data.Cases = append(data.Cases, ast.MatchCase{Pattern: pat, Body: body, Span: caseTok.Span})
	}
	p.expect(token.RBrace)
	return &ast.Stmt{Kind: ast.StmtMatch, Span: kw.Span, Data: data}
}

func (p *Parser) parsePattern() *ast.Pattern {
	t := p.peek()
	switch t.Kind {
	case token.Ident:
		if t.Text == "_" {
			p.bump()
			return &ast.Pattern{Kind: ast.PatWildcard, Span: t.Span}
		}
		p.bump()
		name := p.intern(t)
		if p.at(token.LParen) {
			p.bump()
			var subs []*ast.Pattern
			for !p.at(token.RParen) && !p.at(token.EOF) {
				subs = append(subs, p.parsePattern())
				if _, ok := p.accept(token.Comma); !ok {
					break
				}
			}
			p.expect(token.RParen)
			return &ast.Pattern{Kind: ast.PatConstructor, Span: t.Span, Name: name, Subs: subs}
		}
		return &ast.Pattern{Kind: ast.PatBinding, Span: t.Span, Name: name}
	case token.IntLit, token.FloatLit, token.StringLit, token.KwTrue, token.KwFalse, token.KwNone:
		lit := p.parsePrimary()
		return &ast.Pattern{Kind: ast.PatLiteral, Span: lit.Span, Literal: lit}
	default:
		diag.Errorf(p.reporter, diag.SynExpectExpression, t.Span, "expected pattern")
		p.bump()
		return &ast.Pattern{Kind: ast.PatWildcard, Span: t.Span}
	}
}

// parseExprOrAssign parses either an expression statement or an
// assignment, then the statement terminator.
func (p *Parser) parseExprOrAssign() *ast.Stmt {
	stmt := p.parseExprOrAssignNoSemi()
	p.expectSemi()
	return stmt
}

func (p *Parser) parseExprOrAssignNoSemi() *ast.Stmt {
	expr := p.parseExpr()
	if expr == nil {
		p.sync()
		return nil
	}
	if _, ok := p.accept(token.Assign); ok {
		value := p.parseExpr()
		return &ast.Stmt{
			Kind: ast.StmtAssign,
			Span: expr.Span,
			Data: ast.AssignData{Target: expr, Value: value},
		}
	}
	return &ast.Stmt{Kind: ast.StmtExpr, Span: expr.Span, Data: ast.ExprStmtData{Expr: expr}}
}
