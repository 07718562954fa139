package irgen

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/ir"
	"tocin/internal/types"
)

func (g *Generator) genStmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtExpr:
		g.genExpr(s.Data.(ast.ExprStmtData).Expr)
	case ast.StmtVarDecl:
		g.genVarDecl(s)
	case ast.StmtAssign:
		g.genAssign(s)
	case ast.StmtBlock:
		g.pushScope()
		for _, inner := range s.Data.(ast.BlockData).Stmts {
			g.genStmt(inner)
		}
		g.popScope()
	case ast.StmtIf:
		g.genIf(s)
	case ast.StmtWhile:
		g.genWhile(s)
	case ast.StmtFor:
		g.genFor(s)
	case ast.StmtReturn:
		g.genReturn(s)
	case ast.StmtBreak:
		if len(g.loops) > 0 {
			g.setTerm(ir.Term{Kind: ir.TermBr, Target: g.loops[len(g.loops)-1].brk})
		}
		g.blk = g.newBlock("dead")
	case ast.StmtContinue:
		if len(g.loops) > 0 {
			g.setTerm(ir.Term{Kind: ir.TermBr, Target: g.loops[len(g.loops)-1].cont})
		}
		g.blk = g.newBlock("dead")
	case ast.StmtFunc, ast.StmtClass, ast.StmtTrait:
		// Declarations are lowered separately; nested function values go
		// through lambda lifting at the expression level.
		if s.Kind == ast.StmtFunc {
			data := s.Data.(ast.FuncData)
			if len(data.TypeParams) == 0 {
				if sig, ok := g.res.Sigs[s]; ok {
					g.liftNested(&data, sig)
				}
			}
		}
	case ast.StmtMatch:
		g.genMatch(s)
	}
}

// liftNested lowers a nested function declaration as a private symbol.
// The body must not capture enclosing locals; lowering has no closure
// environment to put them in.
func (g *Generator) liftNested(fn *ast.FuncData, sig types.TypeID) {
	outerFn, outerBlk, outerVal := g.fn, g.blk, g.nextVal
	outerScopes, outerLoops := g.scopes, g.loops
	outerRet, outerAsync := g.retType, g.isAsync

	g.lowerFunc(g.nameOf(fn.Name), fn, sig, types.NoTypeID)

	g.fn, g.blk, g.nextVal = outerFn, outerBlk, outerVal
	g.scopes, g.loops = outerScopes, outerLoops
	g.retType, g.isAsync = outerRet, outerAsync
}

func (g *Generator) genVarDecl(s *ast.Stmt) {
	data := s.Data.(ast.VarDeclData)
	declared, ok := g.res.Decls[s]
	if !ok {
		// Every declaration that reaches lowering was checked; annotation
		// syntax is never re-resolved here.
		g.fatal(s.Span, fmt.Sprintf("declaration of '%s' carries no checked type", g.nameOf(data.Name)))
		if data.Init == nil {
			return
		}
		declared = g.typeOf(data.Init)
	}
	slot := g.newLocal(data.Name, declared)
	if data.Init != nil {
		v := g.genExpr(data.Init)
		v = g.coerce(v, g.typeOf(data.Init), declared)
		g.emit(ir.Instr{Kind: ir.OpStore, Local: slot, A: v, Type: declared})
	}
}

func (g *Generator) genAssign(s *ast.Stmt) {
	data := s.Data.(ast.AssignData)
	v := g.genExpr(data.Value)
	from := g.typeOf(data.Value)

	switch data.Target.Kind {
	case ast.ExprVarRef:
		name := data.Target.Data.(ast.VarRefData).Name
		slot, ok := g.lookup(name)
		if !ok {
			g.fatal(data.Target.Span, fmt.Sprintf("assignment to unbound '%s'", g.nameOf(name)))
			return
		}
		t := g.fn.Locals[slot].Type
		g.emit(ir.Instr{Kind: ir.OpStore, Local: slot, A: g.coerce(v, from, t), Type: t})
	case ast.ExprField:
		fd := data.Target.Data.(ast.FieldData)
		obj := g.genExpr(fd.Object)
		class := g.typeOf(fd.Object)
		idx, ft, ok := g.fieldSlot(class, fd.Name)
		if !ok {
			g.fatal(data.Target.Span, "field assignment target vanished after checking")
			return
		}
		g.emit(ir.Instr{Kind: ir.OpSetField, A: obj, Field: idx, B: g.coerce(v, from, ft), Type: ft})
	case ast.ExprIndex:
		id := data.Target.Data.(ast.IndexData)
		obj := g.genExpr(id.Object)
		idx := g.genExpr(id.Index)
		elem := g.typeOf(data.Target)
		g.emit(ir.Instr{Kind: ir.OpListSet, A: obj, B: idx, C: g.coerce(v, from, elem), Type: elem})
	default:
		g.fatal(data.Target.Span, "unassignable target reached lowering")
	}
}

func (g *Generator) genIf(s *ast.Stmt) {
	data := s.Data.(ast.IfData)
	cond := g.genCondition(data.Cond)
	thenB := g.newBlock("then")
	var elseB *ir.Block
	if data.Else != nil {
		elseB = g.newBlock("else")
	}
	endB := g.newBlock("endif")
	elseID := endB.ID
	if elseB != nil {
		elseID = elseB.ID
	}
	g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: cond, Then: thenB.ID, Else: elseID})

	g.blk = thenB
	g.genStmt(data.Then)
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: endB.ID})

	if elseB != nil {
		g.blk = elseB
		g.genStmt(data.Else)
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: endB.ID})
	}
	g.blk = endB
}

func (g *Generator) genWhile(s *ast.Stmt) {
	data := s.Data.(ast.WhileData)
	condB := g.newBlock("while.cond")
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: condB.ID})

	g.blk = condB
	cond := g.genCondition(data.Cond)
	bodyB := g.newBlock("while.body")
	endB := g.newBlock("while.end")
	g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: cond, Then: bodyB.ID, Else: endB.ID})

	g.loops = append(g.loops, loopTarget{brk: endB.ID, cont: condB.ID})
	g.blk = bodyB
	g.genStmt(data.Body)
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: condB.ID})
	g.loops = g.loops[:len(g.loops)-1]

	g.blk = endB
}

func (g *Generator) genFor(s *ast.Stmt) {
	data := s.Data.(ast.ForData)
	g.pushScope()
	g.genStmt(data.Init)

	condB := g.newBlock("for.cond")
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: condB.ID})
	g.blk = condB
	var cond ir.Value
	if data.Cond != nil {
		cond = g.genCondition(data.Cond)
	} else {
		cond = g.emitDest(ir.Instr{Kind: ir.OpConstBool, Type: g.types.Builtins().Bool, Bool: true})
	}
	bodyB := g.newBlock("for.body")
	stepB := g.newBlock("for.step")
	endB := g.newBlock("for.end")
	g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: cond, Then: bodyB.ID, Else: endB.ID})

	g.loops = append(g.loops, loopTarget{brk: endB.ID, cont: stepB.ID})
	g.blk = bodyB
	g.genStmt(data.Body)
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: stepB.ID})
	g.loops = g.loops[:len(g.loops)-1]

	g.blk = stepB
	g.genStmt(data.Update)
	g.setTerm(ir.Term{Kind: ir.TermBr, Target: condB.ID})

	g.blk = endB
	g.popScope()
}

func (g *Generator) genReturn(s *ast.Stmt) {
	data := s.Data.(ast.ReturnData)
	if data.Value == nil {
		if g.isAsync {
			unit := g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: g.types.Builtins().Unit})
			g.setTerm(ir.Term{Kind: ir.TermRet, Value: g.wrapFuture(unit)})
		} else if g.types.Kind(g.fn.Result) == types.KindUnit {
			g.setTerm(ir.Term{Kind: ir.TermRet})
		} else {
			g.setTerm(ir.Term{Kind: ir.TermRet, Value: g.zeroValue(g.fn.Result)})
		}
		g.blk = g.newBlock("dead")
		return
	}
	v := g.genExpr(data.Value)
	v = g.coerce(v, g.typeOf(data.Value), g.retType)
	if g.isAsync {
		v = g.wrapFuture(v)
	}
	g.setTerm(ir.Term{Kind: ir.TermRet, Value: v})
	g.blk = g.newBlock("dead")
}

// genMatch lowers a match as a chain of test blocks. The scrutinee is
// evaluated once into a temporary slot; each arm tests, binds its
// case-local names, runs its body, and jumps to the join block.
func (g *Generator) genMatch(s *ast.Stmt) {
	data := s.Data.(ast.MatchData)
	scrType := g.typeOf(data.Scrutinee)
	scr := g.genExpr(data.Scrutinee)
	tmp := g.newLocal(g.strings.Intern("$match"), scrType)
	g.emit(ir.Instr{Kind: ir.OpStore, Local: tmp, A: scr, Type: scrType})

	endB := g.newBlock("match.end")
	for i := range data.Cases {
		cs := &data.Cases[i]
		bodyB := g.newBlock("case.body")
		nextB := endB
		if i+1 < len(data.Cases) {
			nextB = g.newBlock("case.next")
		}

		g.pushScope()
		loaded := g.emitDest(ir.Instr{Kind: ir.OpLoad, Local: tmp, Type: scrType})
		g.genPatternTest(cs.Pattern, loaded, scrType, bodyB.ID, nextB.ID)

		g.blk = bodyB
		g.genStmt(cs.Body)
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: endB.ID})
		g.popScope()

		g.blk = nextB
	}
	if g.blk != endB {
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: endB.ID})
		g.blk = endB
	}
}

// genPatternTest emits the test for one pattern in the current block,
// branching to match on success and miss otherwise. Bindings go into the
// current scope.
func (g *Generator) genPatternTest(p *ast.Pattern, v ir.Value, vt types.TypeID, match, miss ir.BlockID) {
	if p == nil {
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: miss})
		return
	}
	b := g.types.Builtins()
	switch p.Kind {
	case ast.PatWildcard:
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: match})
	case ast.PatBinding:
		slot := g.newLocal(p.Name, vt)
		g.emit(ir.Instr{Kind: ir.OpStore, Local: slot, A: v, Type: vt})
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: match})
	case ast.PatLiteral:
		lit := g.genExpr(p.Literal)
		lt := g.typeOf(p.Literal)
		cmp := v
		if g.types.Kind(vt) == types.KindUnion || g.types.Kind(vt) == types.KindOptional {
			// Tag check first, then compare the unboxed payload.
			tag := g.emitDest(ir.Instr{Kind: ir.OpUnionTag, A: v, Type: b.Int})
			want := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: int64(lt)})
			tagOK := g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: ir.BinEq, A: tag, B: want, Type: b.Int})
			payB := g.newBlock("case.payload")
			g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: tagOK, Then: payB.ID, Else: miss})
			g.blk = payB
			cmp = g.emitDest(ir.Instr{Kind: ir.OpUnionPayload, A: v, Type: lt})
		}
		eq := g.equality(cmp, lit, lt)
		g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: eq, Then: match, Else: miss})
	case ast.PatConstructor:
		class, ok := g.types.ClassByName(p.Name)
		if !ok {
			g.fatal(p.Span, "pattern class vanished after checking")
			g.setTerm(ir.Term{Kind: ir.TermBr, Target: miss})
			return
		}
		obj := v
		if g.types.Kind(vt) == types.KindUnion || g.types.Kind(vt) == types.KindOptional {
			tag := g.emitDest(ir.Instr{Kind: ir.OpUnionTag, A: v, Type: b.Int})
			want := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: int64(class)})
			tagOK := g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: ir.BinEq, A: tag, B: want, Type: b.Int})
			unboxB := g.newBlock("case.unbox")
			g.setTerm(ir.Term{Kind: ir.TermCondBr, Cond: tagOK, Then: unboxB.ID, Else: miss})
			g.blk = unboxB
			obj = g.emitDest(ir.Instr{Kind: ir.OpUnionPayload, A: v, Type: class})
		}
		fields := g.flatFields(class)
		if len(fields) != len(p.Subs) {
			g.fatal(p.Span, "pattern arity changed after checking")
			g.setTerm(ir.Term{Kind: ir.TermBr, Target: miss})
			return
		}
		for i, sub := range p.Subs {
			fv := g.emitDest(ir.Instr{Kind: ir.OpGetField, A: obj, Field: i, Type: fields[i].Type})
			if i == len(p.Subs)-1 {
				g.genPatternTest(sub, fv, fields[i].Type, match, miss)
				return
			}
			stepB := g.newBlock("case.field")
			g.genPatternTest(sub, fv, fields[i].Type, stepB.ID, miss)
			g.blk = stepB
		}
		g.setTerm(ir.Term{Kind: ir.TermBr, Target: match})
	}
}

// equality emits the == test for two same-typed values.
func (g *Generator) equality(a, bv ir.Value, t types.TypeID) ir.Value {
	b := g.types.Builtins()
	if g.types.Kind(t) == types.KindString {
		g.extern("string_eq", []types.TypeID{b.String, b.String}, b.Bool)
		return g.emitDest(ir.Instr{Kind: ir.OpCall, Symbol: "string_eq", Args: []ir.Value{a, bv}, Type: b.Bool})
	}
	return g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: ir.BinEq, A: a, B: bv, Type: t})
}

// genCondition lowers a condition with the numeric zero-compare rule:
// ints and floats count as true when nonzero.
func (g *Generator) genCondition(e *ast.Expr) ir.Value {
	v := g.genExpr(e)
	t := g.typeOf(e)
	b := g.types.Builtins()
	switch g.types.Kind(t) {
	case types.KindBool:
		return v
	case types.KindInt:
		zero := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: 0})
		return g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: ir.BinNe, A: v, B: zero, Type: b.Int})
	case types.KindFloat:
		zero := g.emitDest(ir.Instr{Kind: ir.OpConstFloat, Type: b.Float})
		return g.emitDest(ir.Instr{Kind: ir.OpBin, BinOp: ir.BinNe, A: v, B: zero, Type: b.Float})
	}
	diag.Errorf(g.reporter, diag.GenInvalidCondition, e.Span,
		fmt.Sprintf("cannot branch on a value of type %s", g.types.Format(t)))
	return g.emitDest(ir.Instr{Kind: ir.OpConstBool, Type: b.Bool, Bool: true})
}
