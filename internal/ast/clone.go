package ast

// CloneStmt deep-copies a statement tree. Generic templates are checked
// once per instantiation, and each check writes type annotations into
// the expression nodes; instances therefore work on private copies so
// one instantiation cannot clobber another's annotations.
//
// TypeExpr nodes are shared: they are read-only syntax the checker never
// annotates.
func CloneStmt(s *Stmt) *Stmt {
	if s == nil {
		return nil
	}
	c := *s
	switch d := s.Data.(type) {
	case ExprStmtData:
		d.Expr = CloneExpr(d.Expr)
		c.Data = d
	case VarDeclData:
		d.Init = CloneExpr(d.Init)
		c.Data = d
	case AssignData:
		d.Target = CloneExpr(d.Target)
		d.Value = CloneExpr(d.Value)
		c.Data = d
	case BlockData:
		stmts := make([]*Stmt, len(d.Stmts))
		for i, inner := range d.Stmts {
			stmts[i] = CloneStmt(inner)
		}
		d.Stmts = stmts
		c.Data = d
	case IfData:
		d.Cond = CloneExpr(d.Cond)
		d.Then = CloneStmt(d.Then)
		d.Else = CloneStmt(d.Else)
		c.Data = d
	case WhileData:
		d.Cond = CloneExpr(d.Cond)
		d.Body = CloneStmt(d.Body)
		c.Data = d
	case ForData:
		d.Init = CloneStmt(d.Init)
		d.Cond = CloneExpr(d.Cond)
		d.Update = CloneStmt(d.Update)
		d.Body = CloneStmt(d.Body)
		c.Data = d
	case ReturnData:
		d.Value = CloneExpr(d.Value)
		c.Data = d
	case FuncData:
		d.Body = CloneStmt(d.Body)
		c.Data = d
	case ClassData:
		methods := make([]*Stmt, len(d.Methods))
		for i, m := range d.Methods {
			methods[i] = CloneStmt(m)
		}
		d.Methods = methods
		c.Data = d
	case MatchData:
		d.Scrutinee = CloneExpr(d.Scrutinee)
		cases := make([]MatchCase, len(d.Cases))
		for i, cs := range d.Cases {
			cases[i] = MatchCase{
				Pattern: ClonePattern(cs.Pattern),
				Body:    CloneStmt(cs.Body),
				Span:    cs.Span,
			}
		}
		d.Cases = cases
		c.Data = d
	}
	return &c
}

// CloneExpr deep-copies an expression tree, dropping any existing type
// annotations.
func CloneExpr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	c := *e
	c.Type = 0
	switch d := e.Data.(type) {
	case UnaryData:
		d.Operand = CloneExpr(d.Operand)
		c.Data = d
	case BinaryData:
		d.Left = CloneExpr(d.Left)
		d.Right = CloneExpr(d.Right)
		c.Data = d
	case CallData:
		d.Callee = CloneExpr(d.Callee)
		d.Args = cloneExprs(d.Args)
		c.Data = d
	case FieldData:
		d.Object = CloneExpr(d.Object)
		c.Data = d
	case IndexData:
		d.Object = CloneExpr(d.Object)
		d.Index = CloneExpr(d.Index)
		c.Data = d
	case LambdaData:
		d.Body = CloneStmt(d.Body)
		c.Data = d
	case AwaitData:
		d.Operand = CloneExpr(d.Operand)
		c.Data = d
	case NewData:
		d.Args = cloneExprs(d.Args)
		c.Data = d
	case GroupData:
		d.Inner = CloneExpr(d.Inner)
		c.Data = d
	case ListData:
		d.Elems = cloneExprs(d.Elems)
		c.Data = d
	}
	return &c
}

func cloneExprs(es []*Expr) []*Expr {
	out := make([]*Expr, len(es))
	for i, e := range es {
		out[i] = CloneExpr(e)
	}
	return out
}

// ClonePattern deep-copies a match pattern.
func ClonePattern(p *Pattern) *Pattern {
	if p == nil {
		return nil
	}
	c := *p
	c.Literal = CloneExpr(p.Literal)
	subs := make([]*Pattern, len(p.Subs))
	for i, s := range p.Subs {
		subs[i] = ClonePattern(s)
	}
	c.Subs = subs
	return &c
}
