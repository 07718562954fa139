package irgen

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/ir"
	"tocin/internal/source"
	"tocin/internal/types"
)

// genExpr lowers an expression to a register holding its value.
func (g *Generator) genExpr(e *ast.Expr) ir.Value {
	if e == nil {
		return ir.NoValue
	}
	switch e.Kind {
	case ast.ExprLiteral:
		return g.genLiteral(e)
	case ast.ExprVarRef:
		return g.genVarRef(e)
	case ast.ExprUnary:
		return g.genUnary(e)
	case ast.ExprBinary:
		return g.genBinary(e)
	case ast.ExprCall:
		return g.genCall(e)
	case ast.ExprField:
		return g.genField(e)
	case ast.ExprIndex:
		return g.genIndex(e)
	case ast.ExprLambda:
		return g.genLambda(e)
	case ast.ExprAwait:
		return g.genAwait(e)
	case ast.ExprNew:
		return g.genNew(e)
	case ast.ExprGroup:
		return g.genExpr(e.Data.(ast.GroupData).Inner)
	case ast.ExprList:
		return g.genList(e)
	}
	g.fatal(e.Span, fmt.Sprintf("unknown expression kind %d", e.Kind))
	return ir.NoValue
}

func (g *Generator) genLiteral(e *ast.Expr) ir.Value {
	data := e.Data.(ast.LiteralData)
	t := g.typeOf(e)
	switch data.Kind {
	case ast.LitInt:
		return g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: t, Int: data.Int})
	case ast.LitFloat:
		return g.emitDest(ir.Instr{Kind: ir.OpConstFloat, Type: t, Float: data.Float})
	case ast.LitBool:
		return g.emitDest(ir.Instr{Kind: ir.OpConstBool, Type: t, Bool: data.Bool})
	case ast.LitString:
		return g.emitDest(ir.Instr{Kind: ir.OpConstString, Type: t, Str: data.String})
	case ast.LitNone:
		return g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: t})
	}
	return ir.NoValue
}

func (g *Generator) genVarRef(e *ast.Expr) ir.Value {
	name := e.Data.(ast.VarRefData).Name
	if slot, ok := g.lookup(name); ok {
		return g.emitDest(ir.Instr{Kind: ir.OpLoad, Local: slot, Type: g.typeOf(e)})
	}
	if g.globalFns[name] {
		return g.emitDest(ir.Instr{Kind: ir.OpFuncAddr, Symbol: g.nameOf(name), Type: g.typeOf(e)})
	}
	g.fatal(e.Span, fmt.Sprintf("unbound variable '%s' reached lowering", g.nameOf(name)))
	return g.zeroValue(g.typeOf(e))
}

func (g *Generator) genUnary(e *ast.Expr) ir.Value {
	data := e.Data.(ast.UnaryData)
	switch data.Op {
	case ast.UnaryNeg:
		v := g.genExpr(data.Operand)
		return g.emitDest(ir.Instr{Kind: ir.OpUn, UnOp: ir.UnNeg, A: v, Type: g.typeOf(e)})
	case ast.UnaryNot:
		v := g.genExpr(data.Operand)
		return g.emitDest(ir.Instr{Kind: ir.OpUn, UnOp: ir.UnNot, A: v, Type: g.typeOf(e)})
	default:
		// Borrows and moves are checker-side facts; at run time the
		// value itself flows through.
		return g.genExpr(data.Operand)
	}
}

func (g *Generator) genBinary(e *ast.Expr) ir.Value {
	data := e.Data.(ast.BinaryData)
	b := g.types.Builtins()
	lt, rt := g.typeOf(data.Left), g.typeOf(data.Right)

	// String concatenation and comparison route through the runtime.
	if g.types.Kind(lt) == types.KindString && g.types.Kind(rt) == types.KindString {
		l := g.genExpr(data.Left)
		r := g.genExpr(data.Right)
		switch data.Op {
		case ast.BinAdd:
			g.extern("string_concat", []types.TypeID{b.String, b.String}, b.String)
			return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: "string_concat", Args: []ir.Value{l, r}, Type: b.String})
		case ast.BinEq, ast.BinNotEq:
			eq := g.equality(l, r, b.String)
			if data.Op == ast.BinNotEq {
				return g.emitDest(ir.Instr{Kind: ir.OpUn, UnOp: ir.UnNot, A: eq, Type: b.Bool})
			}
			return eq
		}
	}

	// Logical operators get real control flow: the right operand must
	// not evaluate when the left one already decides.
	if data.Op == ast.BinAnd || data.Op == ast.BinOr {
		return g.genShortCircuit(data)
	}

	l := g.genExpr(data.Left)
	r := g.genExpr(data.Right)

	// Mixed-width numeric operands widen to float before the operation.
	opType := lt
	if g.types.Kind(lt) == types.KindFloat || g.types.Kind(rt) == types.KindFloat {
		if g.types.Kind(lt) == types.KindInt {
			l = g.emitDest(ir.Instr{Kind: ir.OpIntToFloat, A: l, Type: b.Float})
		}
		if g.types.Kind(rt) == types.KindInt {
			r = g.emitDest(ir.Instr{Kind: ir.OpIntToFloat, A: r, Type: b.Float})
		}
		opType = b.Float
	}
	// Equality across boxed operands compares raw payload words.
	if data.Op.IsEquality() && lt != rt && opType == lt {
		opType = b.Int
	}

	op, ok := binOp(data.Op)
	if !ok {
		g.fatal(e.Span, fmt.Sprintf("unmapped operator %s", data.Op))
		return ir.NoValue
	}
	return g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: op, A: l, B: r, Type: opType})
}

// genShortCircuit lowers && and || by branching around the right
// operand. The result flows through a temporary slot; blocks carry no
// phis.
func (g *Generator) genShortCircuit(data ast.BinaryData) ir.Value {
	b := g.types.Builtins()
	l := g.genExpr(data.Left)
	slot := g.newLocal(g.strings.Intern("$bool"), b.Bool)
	g.emit(ir.Instr{Kind: ir.OpStore, Local: slot, A: l, Type: b.Bool})

	name := "and"
	if data.Op == ast.BinOr {
		name = "or"
	}
	rhsB := g.newBlock(name + ".rhs")
	endB := g.newBlock(name + ".end")
	if data.Op == ast.BinAnd {
		g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: l, Then: rhsB.ID, Else: endB.ID})
	} else {
		g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: l, Then: endB.ID, Else: rhsB.ID})
	}

	g.blk = rhsB
	r := g.genExpr(data.Right)
	g.emit(ir.Instr{Kind: ir.OpStore, Local: slot, A: r, Type: b.Bool})
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: endB.ID})

	g.blk = endB
	return g.emitDest(ir.Instr{Kind: ir.OpLoad, Local: slot, Type: b.Bool})
}

func binOp(op ast.BinaryOp) (ir.BinOp, bool) {
	switch op {
	case ast.BinAdd:
		return ir.BinAdd, true
	case ast.BinSub:
		return ir.BinSub, true
	case ast.BinMul:
		return ir.BinMul, true
	case ast.BinDiv:
		return ir.BinDiv, true
	case ast.BinMod:
		return ir.BinMod, true
	case ast.BinLt:
		return ir.BinLt, true
	case ast.BinLtEq:
		return ir.BinLe, true
	case ast.BinGt:
		return ir.BinGt, true
	case ast.BinGtEq:
		return ir.BinGe, true
	case ast.BinEq:
		return ir.BinEq, true
	case ast.BinNotEq:
		return ir.BinNe, true
	case ast.BinAnd:
		return ir.BinAnd, true
	case ast.BinOr:
		return ir.BinOr, true
	}
	return 0, false
}

func (g *Generator) genCall(e *ast.Expr) ir.Value {
	data := e.Data.(ast.CallData)

	// Monomorphized instance resolved by the checker.
	if inst, ok := g.res.CallTargets[e]; ok {
		info, _ := g.types.FnInfo(inst.Sig)
		args := g.genArgs(e.Span, data.Args, info.Params)
		return g.callDirect(inst.Name, args, info.Result)
	}

	if data.Callee.Kind == ast.ExprVarRef {
		name := data.Callee.Data.(ast.VarRefData).Name
		if slot, ok := g.lookup(name); ok {
			// Call through a local function value.
			fnType := g.fn.Locals[slot].Type
			info, ok := g.types.FnInfo(fnType)
			if !ok {
				g.fatal(e.Span, "call through non-function local reached lowering")
				return ir.NoValue
			}
			fv := g.emitDest(ir.Instr{Kind: ir.OpLoad, Local: slot, Type: fnType})
			args := g.genArgs(e.Span, data.Args, info.Params)
			return g.callIndirect(fv, args, info.Result)
		}
		if g.globalFns[name] {
			info, ok := g.types.FnInfo(g.typeOf(data.Callee))
			if !ok {
				g.fatal(e.Span, "direct call without a signature annotation")
				return ir.NoValue
			}
			args := g.genArgs(e.Span, data.Args, info.Params)
			return g.callDirect(g.nameOf(name), args, info.Result)
		}
		return g.genBuiltinCall(e, name, data.Args)
	}

	// Method call.
	if data.Callee.Kind == ast.ExprField && g.typeOf(data.Callee) != types.NoTypeID {
		fd := data.Callee.Data.(ast.FieldData)
		objType := g.typeOf(fd.Object)
		if decl := g.declaringClass(objType, fd.Name); decl != types.NoTypeID {
			obj := g.genExpr(fd.Object)
			info, _ := g.types.FnInfo(g.typeOf(data.Callee))
			args := append([]ir.Value{obj}, g.genArgs(e.Span, data.Args, info.Params)...)
			return g.callDirect(g.methodSymbol(decl, fd.Name), args, info.Result)
		}
		// Function-typed field: indirect call.
		fv := g.genExpr(data.Callee)
		info, ok := g.types.FnInfo(g.typeOf(data.Callee))
		if !ok {
			g.fatal(e.Span, "call through non-function field reached lowering")
			return ir.NoValue
		}
		args := g.genArgs(e.Span, data.Args, info.Params)
		return g.callIndirect(fv, args, info.Result)
	}

	fv := g.genExpr(data.Callee)
	info, ok := g.types.FnInfo(g.typeOf(data.Callee))
	if !ok {
		g.fatal(e.Span, "uncallable callee reached lowering")
		return ir.NoValue
	}
	args := g.genArgs(e.Span, data.Args, info.Params)
	return g.callIndirect(fv, args, info.Result)
}

// genArgs lowers call arguments with per-parameter coercion. Arity was
// settled during checking; a mismatch here is a compiler bug, not a
// user diagnostic.
func (g *Generator) genArgs(sp source.Span, args []*ast.Expr, params []types.TypeID) []ir.Value {
	if len(args) != len(params) {
		g.fatal(sp, fmt.Sprintf("call with %d argument(s) against %d parameter(s) reached lowering",
			len(args), len(params)))
	}
	out := make([]ir.Value, len(args))
	for i, a := range args {
		v := g.genExpr(a)
		if i < len(params) {
			v = g.coerce(v, g.typeOf(a), params[i])
		}
		out[i] = v
	}
	return out
}

func (g *Generator) callDirect(symbol string, args []ir.Value, result types.TypeID) ir.Value {
	if g.types.Kind(result) == types.KindUnit {
		g.emit(ir.Instr{Kind: ir.OpCall, Symbol: symbol, Args: args, Type: result})
		return g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: result})
	}
	return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: symbol, Args: args, Type: result})
}

func (g *Generator) callIndirect(fv ir.Value, args []ir.Value, result types.TypeID) ir.Value {
	if g.types.Kind(result) == types.KindUnit {
		g.emit(ir.Instr{Kind: ir.OpCallInd, A: fv, Args: args, Type: result})
		return g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: result})
	}
	return g.emitDest(ir.Instr{Kind: ir.OpCallInd, A: fv, Args: args, Type: result})
}

// genBuiltinCall lowers the compiler-provided functions against the
// runtime's extern table; print dispatches on the argument type.
func (g *Generator) genBuiltinCall(e *ast.Expr, name source.StringID, args []*ast.Expr) ir.Value {
	b := g.types.Builtins()
	unit := func() ir.Value {
		return g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: b.Unit})
	}
	switch g.nameOf(name) {
	case "print":
		if len(args) == 1 {
			g.emitPrint(args[0])
		}
		return unit()
	case "println":
		if len(args) == 1 {
			g.emitPrint(args[0])
		}
		g.extern("println", nil, b.Unit)
		g.emit(ir.Instr{Kind: ir.OpCall, Symbol: "println", Type: b.Unit})
		return unit()
	case "sqrt":
		if len(args) != 1 {
			g.fatal(e.Span, "sqrt arity survived checking")
			return g.zeroValue(b.Float)
		}
		v := g.genExpr(args[0])
		v = g.coerce(v, g.typeOf(args[0]), b.Float)
		g.extern("sqrt", []types.TypeID{b.Float}, b.Float)
		return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: "sqrt", Args: []ir.Value{v}, Type: b.Float})
	case "len":
		if len(args) != 1 {
			g.fatal(e.Span, "len arity survived checking")
			return g.zeroValue(b.Int)
		}
		v := g.genExpr(args[0])
		if g.types.Kind(g.typeOf(args[0])) == types.KindString {
			g.extern("string_len", []types.TypeID{b.String}, b.Int)
			return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: "string_len", Args: []ir.Value{v}, Type: b.Int})
		}
		return g.emitDest(ir.Instr{Kind: ir.OpListLen, A: v, Type: b.Int})
	}
	g.fatal(e.Span, fmt.Sprintf("call to unknown function '%s' survived checking", g.nameOf(name)))
	return ir.NoValue
}

// emitPrint selects the typed runtime printer for one value.
func (g *Generator) emitPrint(arg *ast.Expr) {
	b := g.types.Builtins()
	v := g.genExpr(arg)
	var symbol string
	var pt types.TypeID
	switch g.types.Kind(g.typeOf(arg)) {
	case types.KindInt:
		symbol, pt = "print_int", b.Int
	case types.KindFloat:
		symbol, pt = "print_float", b.Float
	case types.KindBool:
		symbol, pt = "print_bool", b.Bool
	case types.KindString:
		symbol, pt = "print_string", b.String
	default:
		g.fatal(arg.Span, fmt.Sprintf("unprintable type %s survived checking", g.types.Format(g.typeOf(arg))))
		return
	}
	g.extern(symbol, []types.TypeID{pt}, b.Unit)
	g.emit(ir.Instr{Kind: ir.OpCall, Symbol: symbol, Args: []ir.Value{v}, Type: b.Unit})
}

func (g *Generator) genField(e *ast.Expr) ir.Value {
	data := e.Data.(ast.FieldData)
	obj := g.genExpr(data.Object)
	class := g.typeOf(data.Object)
	idx, ft, ok := g.fieldSlot(class, data.Name)
	if !ok {
		g.fatal(e.Span, fmt.Sprintf("field '%s' vanished after checking", g.nameOf(data.Name)))
		return g.zeroValue(g.typeOf(e))
	}
	return g.emitDest(ir.Instr{Kind: ir.OpGetField, A: obj, Field: idx, Type: ft})
}

func (g *Generator) genIndex(e *ast.Expr) ir.Value {
	data := e.Data.(ast.IndexData)
	obj := g.genExpr(data.Object)
	idx := g.genExpr(data.Index)
	b := g.types.Builtins()
	if g.types.Kind(g.typeOf(data.Object)) == types.KindString {
		g.extern("string_index", []types.TypeID{b.String, b.Int}, b.String)
		return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: "string_index", Args: []ir.Value{obj, idx}, Type: b.String})
	}
	return g.emitDest(ir.Instr{Kind: ir.OpListGet, A: obj, B: idx, Type: g.typeOf(e)})
}

// genLambda lifts a lambda into a private function and yields its
// address. Lowering has no closure environment, so a body that reaches
// enclosing locals is rejected here.
func (g *Generator) genLambda(e *ast.Expr) ir.Value {
	data := e.Data.(ast.LambdaData)
	sig := g.typeOf(e)
	if g.capturesLocals(data) {
		diag.Errorf(g.reporter, diag.GenUnloweredConstruct, e.Span,
			"lambdas that capture enclosing variables are not supported yet")
		return g.zeroValue(sig)
	}
	symbol := fmt.Sprintf("%s$lambda%d", g.fn.Name, len(g.mod.Funcs))
	fn := &ast.FuncData{
		Name:   g.strings.Intern(symbol),
		Params: data.Params,
		Return: data.Return,
		Body:   data.Body,
	}
	g.liftNested(fn, sig)
	// liftNested lowered under the source name; fix the symbol.
	g.mod.Funcs[len(g.mod.Funcs)-1].Name = symbol
	return g.emitDest(ir.Instr{Kind: ir.OpFuncAddr, Symbol: symbol, Type: sig})
}

// capturesLocals reports whether the lambda body references a name bound
// in the enclosing function's scopes.
func (g *Generator) capturesLocals(data ast.LambdaData) bool {
	own := make(map[source.StringID]bool, len(data.Params))
	for _, p := range data.Params {
		own[p.Name] = true
	}
	captured := false
	var walkStmt func(*ast.Stmt)
	var walkExpr func(*ast.Expr)
	walkExpr = func(e *ast.Expr) {
		if e == nil || captured {
			return
		}
		switch d := e.Data.(type) {
		case ast.VarRefData:
			if _, ok := g.lookup(d.Name); ok && !own[d.Name] {
				captured = true
			}
		case ast.UnaryData:
			walkExpr(d.Operand)
		case ast.BinaryData:
			walkExpr(d.Left)
			walkExpr(d.Right)
		case ast.CallData:
			walkExpr(d.Callee)
			for _, a := range d.Args {
				walkExpr(a)
			}
		case ast.FieldData:
			walkExpr(d.Object)
		case ast.IndexData:
			walkExpr(d.Object)
			walkExpr(d.Index)
		case ast.AwaitData:
			walkExpr(d.Operand)
		case ast.NewData:
			for _, a := range d.Args {
				walkExpr(a)
			}
		case ast.GroupData:
			walkExpr(d.Inner)
		case ast.ListData:
			for _, el := range d.Elems {
				walkExpr(el)
			}
		case ast.LambdaData:
			walkStmt(d.Body)
		}
	}
	walkStmt = func(s *ast.Stmt) {
		if s == nil || captured {
			return
		}
		switch d := s.Data.(type) {
		case ast.ExprStmtData:
			walkExpr(d.Expr)
		case ast.VarDeclData:
			own[d.Name] = true
			walkExpr(d.Init)
		case ast.AssignData:
			walkExpr(d.Target)
			walkExpr(d.Value)
		case ast.BlockData:
			for _, inner := range d.Stmts {
				walkStmt(inner)
			}
		case ast.IfData:
			walkExpr(d.Cond)
			walkStmt(d.Then)
			walkStmt(d.Else)
		case ast.WhileData:
			walkExpr(d.Cond)
			walkStmt(d.Body)
		case ast.ForData:
			walkStmt(d.Init)
			walkExpr(d.Cond)
			walkStmt(d.Update)
			walkStmt(d.Body)
		case ast.ReturnData:
			walkExpr(d.Value)
		case ast.MatchData:
			walkExpr(d.Scrutinee)
			for _, cs := range d.Cases {
				walkStmt(cs.Body)
			}
		}
	}
	walkStmt(data.Body)
	return captured
}

// genAwait blocks on a future and reads its payload: the ready flag is
// polled in a loop, and the value field is read only after it is set.
// Async functions currently return ready futures, so the poll passes on
// the first trip.
func (g *Generator) genAwait(e *ast.Expr) ir.Value {
	data := e.Data.(ast.AwaitData)
	fut := g.genExpr(data.Operand)
	b := g.types.Builtins()

	checkB := g.newBlock("await.check")
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: checkB.ID})
	g.blk = checkB
	ready := g.emitDest(ir.Instr{Kind: ir.OpGetField, A: fut, Field: 0, Type: b.Bool})
	readyB := g.newBlock("await.ready")
	g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: ready, Then: readyB.ID, Else: checkB.ID})

	g.blk = readyB
	return g.emitDest(ir.Instr{Kind: ir.OpGetField, A: fut, Field: 1, Type: g.typeOf(e)})
}

func (g *Generator) genNew(e *ast.Expr) ir.Value {
	data := e.Data.(ast.NewData)
	class := g.typeOf(e)
	g.noteClass(class)
	obj := g.emitDest(ir.Instr{Kind: ir.OpNew, Type: class})
	fields := g.flatFields(class)
	for i, a := range data.Args {
		if i >= len(fields) {
			break
		}
		v := g.genExpr(a)
		v = g.coerce(v, g.typeOf(a), fields[i].Type)
		g.emit(ir.Instr{Kind: ir.OpSetField, A: obj, Field: i, B: v, Type: fields[i].Type})
	}
	return obj
}

func (g *Generator) genList(e *ast.Expr) ir.Value {
	data := e.Data.(ast.ListData)
	t := g.typeOf(e)
	tt, _ := g.types.Lookup(t)
	b := g.types.Builtins()
	n := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: int64(len(data.Elems))})
	lst := g.emitDest(ir.Instr{Kind: ir.OpListNew, A: n, Type: t})
	for i, el := range data.Elems {
		v := g.genExpr(el)
		v = g.coerce(v, g.typeOf(el), tt.Elem)
		idx := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: int64(i)})
		g.emit(ir.Instr{Kind: ir.OpListSet, A: lst, B: idx, C: v, Type: tt.Elem})
	}
	return lst
}

// coerce adapts a value of type from into a slot of type to: int widens
// to float, concrete values box into unions and optionals, boxed values
// pass between compatible boxed types unchanged, and derived classes
// pass as their base.
func (g *Generator) coerce(v ir.Value, from, to types.TypeID) ir.Value {
	if from == to || from == types.NoTypeID || to == types.NoTypeID {
		return v
	}
	fk, tk := g.types.Kind(from), g.types.Kind(to)
	if fk == types.KindInvalid || tk == types.KindInvalid {
		return v
	}
	switch {
	case tk == types.KindFloat && fk == types.KindInt:
		return g.emitDest(ir.Instr{Kind: ir.OpIntToFloat, A: v, Type: to})
	case tk == types.KindUnion || tk == types.KindOptional:
		if fk == types.KindUnion || fk == types.KindOptional {
			return v // same boxed representation, tags are global
		}
		return g.emitDest(ir.Instr{Kind: ir.OpUnionNew, A: v, Int: int64(from), Type: to})
	case fk == types.KindUnion || fk == types.KindOptional:
		return g.emitDest(ir.Instr{Kind: ir.OpUnionPayload, A: v, Type: to})
	}
	return v
}
