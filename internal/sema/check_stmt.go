package sema

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/types"
)

func (c *Checker) checkStmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtExpr:
		c.checkExpr(s.Data.(ast.ExprStmtData).Expr)
	case ast.StmtVarDecl:
		c.checkVarDecl(s)
	case ast.StmtAssign:
		c.checkAssign(s)
	case ast.StmtBlock:
		c.pushScope()
		for _, inner := range s.Data.(ast.BlockData).Stmts {
			c.checkStmt(inner)
		}
		c.popScope()
	case ast.StmtIf:
		data := s.Data.(ast.IfData)
		c.checkCondition(data.Cond)
		c.checkStmt(data.Then)
		c.checkStmt(data.Else)
	case ast.StmtWhile:
		data := s.Data.(ast.WhileData)
		c.checkCondition(data.Cond)
		c.checkLoop(func() {
			c.checkStmt(data.Body)
		})
	case ast.StmtFor:
		data := s.Data.(ast.ForData)
		c.pushScope()
		c.checkStmt(data.Init)
		if data.Cond != nil {
			c.checkCondition(data.Cond)
		}
		c.checkLoop(func() {
			c.checkStmt(data.Body)
			c.checkStmt(data.Update)
		})
		c.popScope()
	case ast.StmtReturn:
		c.checkReturn(s)
	case ast.StmtBreak:
		if c.loopDepth == 0 {
			diag.Errorf(c.reporter, diag.JumpOutsideLoop, s.Span, "break outside a loop")
		}
	case ast.StmtContinue:
		if c.loopDepth == 0 {
			diag.Errorf(c.reporter, diag.JumpOutsideLoop, s.Span, "continue outside a loop")
		}
	case ast.StmtFunc:
		data := s.Data.(ast.FuncData)
		if c.env != c.global {
			// Nested declaration: top-level ones were pre-declared.
			c.declareFuncStmt(s, &data, c.env)
		}
		if len(data.TypeParams) == 0 {
			c.checkFunctionBody(&data, types.NoTypeID)
		}
	case ast.StmtClass:
		data := s.Data.(ast.ClassData)
		if len(data.TypeParams) == 0 {
			c.checkClassBody(&data)
		}
	case ast.StmtTrait:
		// Registered in the pre-pass; traits carry no bodies to check.
	case ast.StmtMatch:
		c.checkMatch(s)
	}
}

// checkLoop runs a loop body once, then reports variables visible
// before the loop that the body moved: a second iteration would read a
// moved value.
func (c *Checker) checkLoop(body func()) {
	before := c.own.OwnedVars()
	c.loopDepth++
	body()
	c.loopDepth--
	c.own.ReportLoopMoves(before)
}

func (c *Checker) checkVarDecl(s *ast.Stmt) {
	data := s.Data.(ast.VarDeclData)
	if c.env.DefinedHere(data.Name) {
		diag.Errorf(c.reporter, diag.DuplicateDefinition, s.Span,
			fmt.Sprintf("'%s' is already declared in this scope", c.nameOf(data.Name)))
	}

	var declared types.TypeID
	if data.Declared != nil {
		declared = c.resolveTypeExpr(data.Declared)
	}
	switch {
	case data.Declared != nil && data.Init != nil:
		got := c.checkInit(data.Init, declared)
		if !c.types.Assignable(got, declared) {
			diag.Errorf(c.reporter, diag.TypeMismatch, data.Init.Span,
				fmt.Sprintf("cannot initialize '%s' of type %s with %s",
					c.nameOf(data.Name), c.types.Format(declared), c.types.Format(got)))
		}
		c.moveOnTransfer(data.Init)
	case data.Init != nil:
		declared = c.checkExpr(data.Init)
		if c.types.Kind(declared) == types.KindUnit {
			diag.Errorf(c.reporter, diag.CannotInferType, s.Span,
				fmt.Sprintf("cannot infer a type for '%s' from a None value", c.nameOf(data.Name)))
			declared = c.invalid()
		}
		c.moveOnTransfer(data.Init)
	case data.Declared == nil:
		diag.Errorf(c.reporter, diag.CannotInferType, s.Span,
			fmt.Sprintf("'%s' needs a type annotation or an initializer", c.nameOf(data.Name)))
		declared = c.invalid()
	}

	c.env.Define(data.Name, declared, data.Const)
	c.own.Declare(data.Name)
	c.decls[s] = declared
}

// checkInit types an initializer against a known target type: an empty
// list literal takes its element type from the target, since the
// literal alone cannot supply one.
func (c *Checker) checkInit(e *ast.Expr, want types.TypeID) types.TypeID {
	if e != nil && e.Kind == ast.ExprList && len(e.Data.(ast.ListData).Elems) == 0 {
		if tt, ok := c.types.Lookup(want); ok && tt.Kind == types.KindList {
			e.Type = want
			return want
		}
	}
	return c.checkExpr(e)
}

func (c *Checker) checkAssign(s *ast.Stmt) {
	data := s.Data.(ast.AssignData)

	// The target resolves first so a typed slot can give an empty list
	// initializer its element type.
	switch data.Target.Kind {
	case ast.ExprVarRef:
		ref := data.Target.Data.(ast.VarRefData)
		b, ok := c.env.Lookup(ref.Name)
		if !ok {
			diag.Errorf(c.reporter, diag.UndefinedVariable, data.Target.Span,
				fmt.Sprintf("undefined variable '%s'", c.nameOf(ref.Name)))
			data.Target.Type = c.invalid()
			c.checkExpr(data.Value)
			return
		}
		if b.Const {
			diag.Errorf(c.reporter, diag.AssignToConstant, s.Span,
				fmt.Sprintf("cannot assign to constant '%s'", c.nameOf(ref.Name)))
		}
		data.Target.Type = b.Type
		got := c.checkInit(data.Value, b.Type)
		if !c.types.Assignable(got, b.Type) {
			diag.Errorf(c.reporter, diag.TypeMismatch, data.Value.Span,
				fmt.Sprintf("cannot assign %s to '%s' of type %s",
					c.types.Format(got), c.nameOf(ref.Name), c.types.Format(b.Type)))
		}
		c.moveOnTransfer(data.Value)
		c.own.Assign(ref.Name, s.Span)
	case ast.ExprField:
		want := c.checkExpr(data.Target)
		got := c.checkInit(data.Value, want)
		if !c.types.Assignable(got, want) {
			diag.Errorf(c.reporter, diag.TypeMismatch, data.Value.Span,
				fmt.Sprintf("cannot assign %s to field of type %s",
					c.types.Format(got), c.types.Format(want)))
		}
		c.moveOnTransfer(data.Value)
	case ast.ExprIndex:
		want := c.checkExpr(data.Target)
		got := c.checkInit(data.Value, want)
		if !c.types.Assignable(got, want) {
			diag.Errorf(c.reporter, diag.TypeMismatch, data.Value.Span,
				fmt.Sprintf("cannot assign %s to element of type %s",
					c.types.Format(got), c.types.Format(want)))
		}
		c.moveOnTransfer(data.Value)
	default:
		diag.Errorf(c.reporter, diag.TypeMismatch, data.Target.Span,
			"left side of assignment is not assignable")
		c.checkExpr(data.Target)
		c.checkExpr(data.Value)
	}
}

// checkCondition accepts bool directly and numeric types via the zero
// comparison the IR generator inserts.
func (c *Checker) checkCondition(e *ast.Expr) {
	t := c.checkExpr(e)
	k := c.types.Kind(t)
	if k == types.KindBool || k == types.KindInt || k == types.KindFloat || k == types.KindInvalid {
		return
	}
	diag.Errorf(c.reporter, diag.TypeMismatch, e.Span,
		fmt.Sprintf("condition must be bool or numeric, got %s", c.types.Format(t)))
}

func (c *Checker) checkReturn(s *ast.Stmt) {
	data := s.Data.(ast.ReturnData)
	if len(c.returnStack) == 0 {
		diag.Errorf(c.reporter, diag.InvalidReturn, s.Span, "return outside a function")
		if data.Value != nil {
			c.checkExpr(data.Value)
		}
		return
	}
	want := c.returnStack[len(c.returnStack)-1]
	if data.Value == nil {
		if c.types.Kind(want) != types.KindUnit &&
			!c.types.Assignable(c.types.Builtins().Unit, want) {
			diag.Errorf(c.reporter, diag.InvalidReturn, s.Span,
				fmt.Sprintf("function must return %s", c.types.Format(want)))
		}
		return
	}
	got := c.checkExpr(data.Value)
	if !c.types.Assignable(got, want) {
		diag.Errorf(c.reporter, diag.InvalidReturn, data.Value.Span,
			fmt.Sprintf("cannot return %s from a function returning %s",
				c.types.Format(got), c.types.Format(want)))
	}
}

// checkClassBody checks every method body of a non-generic class with
// `self` bound to the class.
func (c *Checker) checkClassBody(data *ast.ClassData) {
	id, ok := c.types.ClassByName(data.Name)
	if !ok {
		return
	}
	for _, m := range data.Methods {
		fn := m.Data.(ast.FuncData)
		c.checkFunctionBody(&fn, id)
	}
}

func (c *Checker) checkMatch(s *ast.Stmt) {
	data := s.Data.(ast.MatchData)
	scrutinee := c.checkExpr(data.Scrutinee)
	sawWildcard := false
	for i := range data.Cases {
		cs := &data.Cases[i]
		c.pushScope()
		c.checkPattern(cs.Pattern, scrutinee)
		c.checkStmt(cs.Body)
		c.popScope()
		if cs.Pattern != nil &&
			(cs.Pattern.Kind == ast.PatWildcard || cs.Pattern.Kind == ast.PatBinding) {
			sawWildcard = true
		}
	}
	// Union scrutinees without a catch-all arm may fall through at run
	// time; warn rather than reject, since literal coverage is not
	// tracked.
	if !sawWildcard && c.types.Kind(scrutinee) == types.KindUnion {
		diag.Warningf(c.reporter, diag.NonExhaustivePattern, s.Span,
			"match on a union without a catch-all case may not be exhaustive")
	}
}

// checkPattern validates a pattern against the scrutinee type and binds
// any names into the current (case-local) scope.
func (c *Checker) checkPattern(p *ast.Pattern, scrutinee types.TypeID) {
	if p == nil {
		return
	}
	switch p.Kind {
	case ast.PatWildcard:
	case ast.PatLiteral:
		got := c.checkExpr(p.Literal)
		if !c.types.Assignable(got, scrutinee) && !c.types.Assignable(scrutinee, got) {
			diag.Errorf(c.reporter, diag.TypeMismatch, p.Span,
				fmt.Sprintf("pattern of type %s can never match %s",
					c.types.Format(got), c.types.Format(scrutinee)))
		}
	case ast.PatBinding:
		c.env.Define(p.Name, scrutinee, false)
		c.own.Declare(p.Name)
	case ast.PatConstructor:
		class, ok := c.types.ClassByName(p.Name)
		if !ok {
			diag.Errorf(c.reporter, diag.UndefinedType, p.Span,
				fmt.Sprintf("undefined class '%s' in pattern", c.nameOf(p.Name)))
			return
		}
		if !c.types.Assignable(class, scrutinee) && !c.types.Assignable(scrutinee, class) {
			diag.Errorf(c.reporter, diag.TypeMismatch, p.Span,
				fmt.Sprintf("pattern class %s can never match %s",
					c.types.Format(class), c.types.Format(scrutinee)))
		}
		fields := c.flattenedFields(class)
		if len(p.Subs) != len(fields) {
			diag.Errorf(c.reporter, diag.WrongArgumentCount, p.Span,
				fmt.Sprintf("class %s has %d field(s), pattern has %d",
					c.types.Format(class), len(fields), len(p.Subs)))
			return
		}
		for i, sub := range p.Subs {
			c.checkPattern(sub, fields[i].Type)
		}
	}
}

// flattenedFields lists a class's fields base-first, the same layout the
// constructor takes and lowering emits.
func (c *Checker) flattenedFields(class types.TypeID) []types.Field {
	info, ok := c.types.ClassInfo(class)
	if !ok {
		return nil
	}
	var fields []types.Field
	if info.Base != types.NoTypeID {
		fields = append(fields, c.flattenedFields(info.Base)...)
	}
	return append(fields, info.Fields...)
}
