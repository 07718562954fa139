package sema

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/types"
)

// checkExpr infers and validates the type of e, annotates the node in
// place, and returns the type. On error the node is annotated with the
// invalid type, which downstream checks accept silently so one mistake
// produces one diagnostic.
func (c *Checker) checkExpr(e *ast.Expr) types.TypeID {
	if e == nil {
		return c.invalid()
	}
	t := c.inferExpr(e)
	e.Type = t
	return t
}

func (c *Checker) inferExpr(e *ast.Expr) types.TypeID {
	b := c.types.Builtins()
	switch e.Kind {
	case ast.ExprLiteral:
		switch e.Data.(ast.LiteralData).Kind {
		case ast.LitInt:
			return b.Int
		case ast.LitFloat:
			return b.Float
		case ast.LitBool:
			return b.Bool
		case ast.LitString:
			return b.String
		case ast.LitNone:
			return b.Unit
		}
		return c.invalid()
	case ast.ExprVarRef:
		return c.checkVarRef(e)
	case ast.ExprUnary:
		return c.checkUnary(e)
	case ast.ExprBinary:
		return c.checkBinary(e)
	case ast.ExprCall:
		return c.checkCall(e)
	case ast.ExprField:
		return c.checkField(e)
	case ast.ExprIndex:
		return c.checkIndex(e)
	case ast.ExprLambda:
		return c.checkLambda(e)
	case ast.ExprAwait:
		return c.checkAwait(e)
	case ast.ExprNew:
		return c.checkNew(e)
	case ast.ExprGroup:
		return c.checkExpr(e.Data.(ast.GroupData).Inner)
	case ast.ExprList:
		return c.checkList(e)
	}
	return c.invalid()
}

func (c *Checker) checkVarRef(e *ast.Expr) types.TypeID {
	name := e.Data.(ast.VarRefData).Name
	if bnd, ok := c.env.Lookup(name); ok {
		c.own.CheckUse(name, e.Span)
		return bnd.Type
	}
	if _, ok := c.genericFns[name]; ok {
		diag.Errorf(c.reporter, diag.CannotInferType, e.Span,
			fmt.Sprintf("generic function '%s' must be called to infer its type arguments", c.nameOf(name)))
		return c.invalid()
	}
	diag.Errorf(c.reporter, diag.UndefinedVariable, e.Span,
		fmt.Sprintf("undefined variable '%s'", c.nameOf(name)))
	return c.invalid()
}

func (c *Checker) checkUnary(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.UnaryData)
	switch data.Op {
	case ast.UnaryNeg:
		t := c.checkExpr(data.Operand)
		if !c.isNumeric(t) && c.types.Kind(t) != types.KindInvalid {
			diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
				fmt.Sprintf("operator - needs a numeric operand, got %s", c.types.Format(t)))
			return c.invalid()
		}
		return t
	case ast.UnaryNot:
		t := c.checkExpr(data.Operand)
		if k := c.types.Kind(t); k != types.KindBool && k != types.KindInvalid {
			diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
				fmt.Sprintf("operator ! needs a bool operand, got %s", c.types.Format(t)))
			return c.invalid()
		}
		return c.types.Builtins().Bool
	case ast.UnaryBorrow, ast.UnaryBorrowMut, ast.UnaryMove:
		return c.checkOwnershipOp(e, data)
	}
	return c.invalid()
}

// checkOwnershipOp handles &x, &mut x, and move x. The operand must be a
// plain variable: ownership is tracked per binding, not per value.
func (c *Checker) checkOwnershipOp(e *ast.Expr, data ast.UnaryData) types.TypeID {
	if data.Operand.Kind != ast.ExprVarRef {
		code := diag.InvalidOwnershipBorrow
		if data.Op == ast.UnaryMove {
			code = diag.InvalidOwnershipMove
		}
		diag.Errorf(c.reporter, code, e.Span,
			fmt.Sprintf("%s applies only to variables", data.Op))
		c.checkExpr(data.Operand)
		return c.invalid()
	}
	name := data.Operand.Data.(ast.VarRefData).Name
	bnd, ok := c.env.Lookup(name)
	if !ok {
		diag.Errorf(c.reporter, diag.UndefinedVariable, data.Operand.Span,
			fmt.Sprintf("undefined variable '%s'", c.nameOf(name)))
		return c.invalid()
	}
	data.Operand.Type = bnd.Type
	switch data.Op {
	case ast.UnaryBorrow:
		c.own.Borrow(name, e.Span)
	case ast.UnaryBorrowMut:
		c.own.BorrowMut(name, e.Span)
	case ast.UnaryMove:
		c.own.Move(name, e.Span)
	}
	return bnd.Type
}

// moveOnTransfer applies the implicit move of a by-value transfer: a
// bare variable passed to a call or used as an assignment source gives
// its value away. Copyable values are duplicated instead.
func (c *Checker) moveOnTransfer(e *ast.Expr) {
	if e == nil || e.Kind != ast.ExprVarRef || e.Type == types.NoTypeID {
		return
	}
	if c.copyable(e.Type) {
		return
	}
	c.own.Move(e.Data.(ast.VarRefData).Name, e.Span)
}

// copyable reports whether a by-value transfer duplicates the value
// rather than moving it. Scalars, strings, and function addresses are
// copies; owning aggregates change hands.
func (c *Checker) copyable(t types.TypeID) bool {
	switch c.types.Kind(t) {
	case types.KindClass, types.KindList, types.KindUnion, types.KindOptional:
		return false
	}
	return true
}

func (c *Checker) checkBinary(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.BinaryData)
	lt := c.checkExpr(data.Left)
	rt := c.checkExpr(data.Right)
	b := c.types.Builtins()
	if c.types.Kind(lt) == types.KindInvalid || c.types.Kind(rt) == types.KindInvalid {
		if data.Op.IsComparison() || data.Op.IsEquality() || data.Op == ast.BinAnd || data.Op == ast.BinOr {
			return b.Bool
		}
		return c.invalid()
	}

	switch {
	case data.Op.IsArithmetic():
		if data.Op == ast.BinAdd &&
			c.types.Kind(lt) == types.KindString && c.types.Kind(rt) == types.KindString {
			return b.String
		}
		if !c.isNumeric(lt) || !c.isNumeric(rt) {
			diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
				fmt.Sprintf("operator %s needs numeric operands, got %s and %s",
					data.Op, c.types.Format(lt), c.types.Format(rt)))
			return c.invalid()
		}
		// Mixed int/float widens to float.
		if c.types.Kind(lt) == types.KindFloat || c.types.Kind(rt) == types.KindFloat {
			return b.Float
		}
		return b.Int
	case data.Op.IsComparison():
		if !c.isNumeric(lt) || !c.isNumeric(rt) {
			diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
				fmt.Sprintf("operator %s needs numeric operands, got %s and %s",
					data.Op, c.types.Format(lt), c.types.Format(rt)))
		}
		return b.Bool
	case data.Op.IsEquality():
		// Deliberately loose: any two values may be compared; mismatched
		// types simply compare unequal at run time.
		return b.Bool
	default: // && and ||
		if c.types.Kind(lt) != types.KindBool || c.types.Kind(rt) != types.KindBool {
			diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
				fmt.Sprintf("operator %s needs bool operands, got %s and %s",
					data.Op, c.types.Format(lt), c.types.Format(rt)))
		}
		return b.Bool
	}
}

func (c *Checker) checkCall(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.CallData)

	// Calls through a bare name resolve specially: local binding first,
	// then generic templates, then builtins.
	if data.Callee.Kind == ast.ExprVarRef {
		name := data.Callee.Data.(ast.VarRefData).Name
		if bnd, ok := c.env.Lookup(name); ok {
			data.Callee.Type = bnd.Type
			c.own.CheckUse(name, data.Callee.Span)
			return c.checkCallOf(e, bnd.Type, data.Args,
				fmt.Sprintf("'%s'", c.nameOf(name)))
		}
		if tmpl, ok := c.genericFns[name]; ok {
			return c.checkGenericCall(e, tmpl, data)
		}
		if bi, ok := lookupBuiltin(c.nameOf(name)); ok {
			return c.checkBuiltinCall(e, bi, data.Args)
		}
		diag.Errorf(c.reporter, diag.UndefinedFunction, data.Callee.Span,
			fmt.Sprintf("undefined function '%s'", c.nameOf(name)))
		for _, a := range data.Args {
			c.checkExpr(a)
		}
		return c.invalid()
	}

	// Method call: obj.m(args).
	if data.Callee.Kind == ast.ExprField {
		fd := data.Callee.Data.(ast.FieldData)
		objType := c.checkExpr(fd.Object)
		if c.types.Kind(objType) == types.KindInvalid {
			return c.invalid()
		}
		if m, ok := c.types.FindMethod(objType, fd.Name); ok {
			data.Callee.Type = m.Sig
			return c.checkCallOf(e, m.Sig, data.Args,
				fmt.Sprintf("method '%s'", c.nameOf(fd.Name)))
		}
		// Fall back to a function-typed field.
		if f, _, ok := c.types.FindField(objType, fd.Name); ok {
			data.Callee.Type = f.Type
			return c.checkCallOf(e, f.Type, data.Args,
				fmt.Sprintf("field '%s'", c.nameOf(fd.Name)))
		}
		diag.Errorf(c.reporter, diag.UndefinedFunction, data.Callee.Span,
			fmt.Sprintf("type %s has no method '%s'",
				c.types.Format(objType), c.nameOf(fd.Name)))
		return c.invalid()
	}

	callee := c.checkExpr(data.Callee)
	return c.checkCallOf(e, callee, data.Args, "expression")
}

// checkCallOf validates arguments against a resolved function type.
func (c *Checker) checkCallOf(e *ast.Expr, callee types.TypeID, args []*ast.Expr, what string) types.TypeID {
	info, ok := c.types.FnInfo(callee)
	if !ok {
		if c.types.Kind(callee) != types.KindInvalid {
			diag.Errorf(c.reporter, diag.TypeMismatch, e.Span,
				fmt.Sprintf("%s of type %s is not callable", what, c.types.Format(callee)))
		}
		for _, a := range args {
			c.checkExpr(a)
		}
		return c.invalid()
	}
	if len(args) != len(info.Params) {
		diag.Errorf(c.reporter, diag.WrongArgumentCount, e.Span,
			fmt.Sprintf("%s takes %d argument(s), got %d", what, len(info.Params), len(args)))
		for _, a := range args {
			c.checkExpr(a)
		}
		return info.Result
	}
	for i, a := range args {
		got := c.checkExpr(a)
		if !c.types.Assignable(got, info.Params[i]) {
			diag.Errorf(c.reporter, diag.TypeMismatch, a.Span,
				fmt.Sprintf("argument %d: cannot pass %s where %s is expected",
					i+1, c.types.Format(got), c.types.Format(info.Params[i])))
		}
		c.moveOnTransfer(a)
	}
	return info.Result
}

func (c *Checker) checkField(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.FieldData)
	objType := c.checkExpr(data.Object)
	if c.types.Kind(objType) == types.KindInvalid {
		return c.invalid()
	}
	if f, _, ok := c.types.FindField(objType, data.Name); ok {
		return f.Type
	}
	if m, ok := c.types.FindMethod(objType, data.Name); ok {
		return m.Sig
	}
	diag.Errorf(c.reporter, diag.TypeMismatch, e.Span,
		fmt.Sprintf("type %s has no field '%s'", c.types.Format(objType), c.nameOf(data.Name)))
	return c.invalid()
}

func (c *Checker) checkIndex(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.IndexData)
	objType := c.checkExpr(data.Object)
	idxType := c.checkExpr(data.Index)
	if k := c.types.Kind(idxType); k != types.KindInt && k != types.KindInvalid {
		diag.Errorf(c.reporter, diag.TypeMismatch, data.Index.Span,
			fmt.Sprintf("index must be int, got %s", c.types.Format(idxType)))
	}
	tt, _ := c.types.Lookup(objType)
	switch tt.Kind {
	case types.KindList:
		return tt.Elem
	case types.KindString:
		return c.types.Builtins().String
	case types.KindInvalid:
		return c.invalid()
	}
	diag.Errorf(c.reporter, diag.InvalidOperatorForType, e.Span,
		fmt.Sprintf("type %s is not indexable", c.types.Format(objType)))
	return c.invalid()
}

// checkLambda types a lambda in the current environment: bodies close
// over enclosing locals.
func (c *Checker) checkLambda(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.LambdaData)
	params := make([]types.TypeID, len(data.Params))

	c.pushScope()
	for i, p := range data.Params {
		params[i] = c.paramType(p)
		c.env.Define(p.Name, params[i], false)
		c.own.Declare(p.Name)
	}
	ret := c.resolveTypeExpr(data.Return)
	c.returnStack = append(c.returnStack, ret)
	c.asyncStack = append(c.asyncStack, false)
	savedLoop := c.loopDepth
	c.loopDepth = 0

	c.checkStmt(data.Body)

	c.loopDepth = savedLoop
	c.asyncStack = c.asyncStack[:len(c.asyncStack)-1]
	c.returnStack = c.returnStack[:len(c.returnStack)-1]
	c.popScope()

	return c.types.RegisterFn(params, ret)
}

func (c *Checker) checkAwait(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.AwaitData)
	t := c.checkExpr(data.Operand)
	if len(c.asyncStack) == 0 || !c.asyncStack[len(c.asyncStack)-1] {
		diag.Errorf(c.reporter, diag.AwaitOutsideAsync, e.Span,
			"await is only allowed inside async functions")
		return c.invalid()
	}
	if elem, ok := c.futureElem[t]; ok {
		return elem
	}
	if c.types.Kind(t) == types.KindInvalid {
		return c.invalid()
	}
	diag.Errorf(c.reporter, diag.TypeMismatch, data.Operand.Span,
		fmt.Sprintf("await needs a Future, got %s", c.types.Format(t)))
	return c.invalid()
}

func (c *Checker) checkNew(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.NewData)

	var class types.TypeID
	if tmpl, ok := c.genericClasses[data.Class]; ok {
		if len(data.TypeArgs) == 0 {
			diag.Errorf(c.reporter, diag.CannotInferType, e.Span,
				fmt.Sprintf("generic class '%s' needs explicit type arguments", c.nameOf(data.Class)))
			for _, a := range data.Args {
				c.checkExpr(a)
			}
			return c.invalid()
		}
		args := make([]types.TypeID, len(data.TypeArgs))
		for i, a := range data.TypeArgs {
			args[i] = c.resolveTypeExpr(a)
		}
		if len(args) != len(tmpl.TypeParams) {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, e.Span,
				fmt.Sprintf("'%s' needs %d type argument(s), got %d",
					c.nameOf(data.Class), len(tmpl.TypeParams), len(args)))
			return c.invalid()
		}
		class = c.instantiateClass(tmpl, args, e.Span)
	} else if id, ok := c.types.ClassByName(data.Class); ok {
		if len(data.TypeArgs) > 0 {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, e.Span,
				fmt.Sprintf("class '%s' is not generic", c.nameOf(data.Class)))
		}
		class = id
	} else {
		diag.Errorf(c.reporter, diag.UndefinedType, e.Span,
			fmt.Sprintf("undefined class '%s'", c.nameOf(data.Class)))
		for _, a := range data.Args {
			c.checkExpr(a)
		}
		return c.invalid()
	}
	if c.types.Kind(class) == types.KindInvalid {
		return c.invalid()
	}

	// The implicit constructor takes every field base-first.
	fields := c.flattenedFields(class)
	if len(data.Args) != len(fields) {
		diag.Errorf(c.reporter, diag.WrongArgumentCount, e.Span,
			fmt.Sprintf("constructor of %s takes %d argument(s), got %d",
				c.types.Format(class), len(fields), len(data.Args)))
		for _, a := range data.Args {
			c.checkExpr(a)
		}
		return class
	}
	for i, a := range data.Args {
		got := c.checkExpr(a)
		if !c.types.Assignable(got, fields[i].Type) {
			diag.Errorf(c.reporter, diag.TypeMismatch, a.Span,
				fmt.Sprintf("field '%s': cannot pass %s where %s is expected",
					c.nameOf(fields[i].Name), c.types.Format(got), c.types.Format(fields[i].Type)))
		}
	}
	return class
}

func (c *Checker) checkList(e *ast.Expr) types.TypeID {
	data := e.Data.(ast.ListData)
	if len(data.Elems) == 0 {
		diag.Errorf(c.reporter, diag.CannotInferType, e.Span,
			"cannot infer the element type of an empty list literal")
		return c.invalid()
	}
	elem := c.checkExpr(data.Elems[0])
	for _, el := range data.Elems[1:] {
		got := c.checkExpr(el)
		switch {
		case c.types.Assignable(got, elem):
		case c.types.Assignable(elem, got):
			elem = got // widen, e.g. [1, 2.5] is list<float>
		default:
			diag.Errorf(c.reporter, diag.TypeMismatch, el.Span,
				fmt.Sprintf("list element of type %s does not fit element type %s",
					c.types.Format(got), c.types.Format(elem)))
		}
	}
	return c.types.List(elem)
}
