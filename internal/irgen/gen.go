// Package irgen lowers the checked syntax tree into the ir package's
// block representation. It trusts the checker's annotations completely:
// a missing annotation is a phase-contract violation reported as a fatal
// diagnostic, never silently repaired.
package irgen

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/ir"
	"tocin/internal/sema"
	"tocin/internal/source"
	"tocin/internal/types"
)

// Generator lowers one checked file into an ir.Module.
type Generator struct {
	types    *types.Interner
	strings  *source.Interner
	reporter diag.Reporter
	res      *sema.Result

	mod        *ir.Module
	classSeen  map[types.TypeID]bool
	externSeen map[string]bool
	globalFns  map[source.StringID]bool

	// Per-function state.
	fn      *ir.Func
	blk     *ir.Block
	nextVal ir.Value
	scopes  []map[source.StringID]ir.LocalID
	loops   []loopTarget
	retType types.TypeID
	isAsync bool

	selfID source.StringID
}

type loopTarget struct {
	brk, cont ir.BlockID
}

// Generate lowers file into a module named name. The checker must have
// run error-free; Generate assumes every expression is annotated.
func Generate(ti *types.Interner, strs *source.Interner, res *sema.Result,
	file *ast.File, name string, reporter diag.Reporter) *ir.Module {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	g := &Generator{
		types:      ti,
		strings:    strs,
		reporter:   reporter,
		res:        res,
		mod:        &ir.Module{Name: name},
		classSeen:  make(map[types.TypeID]bool),
		externSeen: make(map[string]bool),
		globalFns:  make(map[source.StringID]bool),
		selfID:     strs.Intern("self"),
	}

	// Global function names decide direct vs indirect calls.
	for _, s := range file.Stmts {
		if s != nil && s.Kind == ast.StmtFunc {
			g.globalFns[s.Data.(ast.FuncData).Name] = true
		}
	}

	for _, s := range file.Stmts {
		if s == nil {
			continue
		}
		switch s.Kind {
		case ast.StmtFunc:
			data := s.Data.(ast.FuncData)
			if len(data.TypeParams) > 0 {
				continue // instances cover generic templates
			}
			g.lowerFunc(g.nameOf(data.Name), &data, g.res.Sigs[s], types.NoTypeID)
		case ast.StmtClass:
			data := s.Data.(ast.ClassData)
			if len(data.TypeParams) > 0 {
				continue
			}
			class, ok := g.types.ClassByName(data.Name)
			if !ok {
				continue
			}
			g.noteClass(class)
			for _, m := range data.Methods {
				fn := m.Data.(ast.FuncData)
				g.lowerFunc(g.methodSymbol(class, fn.Name), &fn, g.res.Sigs[m], class)
			}
		}
	}
	for _, inst := range res.Instances {
		g.lowerFunc(inst.Name, inst.Template, inst.Sig, inst.Self)
	}
	g.lowerMain(file)
	return g.mod
}

// lowerMain wraps the file's loose top-level statements into the program
// entry point.
func (g *Generator) lowerMain(file *ast.File) {
	b := g.types.Builtins()
	g.beginFunc("main", nil, b.Int, false)
	for _, s := range file.Stmts {
		if s == nil || s.Kind == ast.StmtFunc || s.Kind == ast.StmtClass || s.Kind == ast.StmtTrait {
			continue
		}
		g.genStmt(s)
	}
	if g.blk.Term == nil {
		zero := g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: b.Int, Int: 0})
		g.setTerm(ir.Term{Kind: ir.TermRet, Value: zero})
	}
	g.endFunc()
}

// lowerFunc lowers one function or method body. self is the receiver
// class for methods; sig is the checked signature.
func (g *Generator) lowerFunc(symbol string, fn *ast.FuncData, sig types.TypeID, self types.TypeID) {
	info, ok := g.types.FnInfo(sig)
	if !ok {
		g.fatal(source.Span{}, fmt.Sprintf("missing signature for %s", symbol))
		return
	}
	result := info.Result

	var params []ir.Local
	if self != types.NoTypeID {
		params = append(params, ir.Local{Name: "self", Type: self})
		g.noteClass(self)
	}
	declared := g.valueParams(fn.Params)
	for i, p := range declared {
		t := types.NoTypeID
		if i < len(info.Params) {
			t = info.Params[i]
		}
		params = append(params, ir.Local{Name: g.nameOf(p.Name), Type: t})
		g.noteType(t)
	}

	g.beginFunc(symbol, params, result, fn.Async)

	// Bind the spilled parameter slots.
	slot := 0
	if self != types.NoTypeID {
		g.bind(g.selfID, ir.LocalID(slot))
		slot++
	}
	for _, p := range declared {
		g.bind(p.Name, ir.LocalID(slot))
		slot++
	}

	if fn.Body != nil {
		g.genStmt(fn.Body)
	}
	g.sealReturn()
	g.endFunc()
}

// futurePayload resolves Future<T> -> T via the registered field layout.
func (g *Generator) futurePayload(future types.TypeID) (types.TypeID, bool) {
	info, ok := g.types.ClassInfo(future)
	if !ok || len(info.Fields) != 2 {
		return types.NoTypeID, false
	}
	return info.Fields[1].Type, true
}

// sealReturn gives every unfinished block the implicit function exit:
// control that falls off the end returns the result type's zero value.
func (g *Generator) sealReturn() {
	for _, b := range g.fn.Blocks {
		if b.Term != nil {
			continue
		}
		g.blk = b
		if g.types.Kind(g.fn.Result) == types.KindUnit {
			b.Term = &ir.Term{Kind: ir.TermRet}
			continue
		}
		v := g.zeroValue(g.fn.Result)
		if g.isAsync {
			v = g.wrapFuture(v)
		}
		b.Term = &ir.Term{Kind: ir.TermRet, Value: v}
	}
}

func (g *Generator) beginFunc(name string, params []ir.Local, result types.TypeID, isAsync bool) {
	g.fn = &ir.Func{Name: name, Params: params, Result: result}
	g.fn.Locals = append(g.fn.Locals, params...)
	g.nextVal = 0
	g.scopes = []map[source.StringID]ir.LocalID{make(map[source.StringID]ir.LocalID)}
	g.loops = nil
	g.retType = result
	g.isAsync = isAsync
	if isAsync {
		if elem, ok := g.futurePayload(result); ok {
			g.retType = elem
		}
	}
	g.blk = g.newBlock("entry")
	g.noteType(result)
}

func (g *Generator) endFunc() {
	g.mod.Funcs = append(g.mod.Funcs, g.fn)
	g.fn = nil
	g.blk = nil
}

func (g *Generator) newBlock(name string) *ir.Block {
	b := &ir.Block{ID: ir.BlockID(len(g.fn.Blocks)), Name: fmt.Sprintf("%s%d", name, len(g.fn.Blocks))}
	g.fn.Blocks = append(g.fn.Blocks, b)
	return b
}

// emit appends an instruction without a destination.
func (g *Generator) emit(in ir.Instr) {
	g.blk.Instrs = append(g.blk.Instrs, in)
}

// emitDest appends an instruction and assigns it a fresh register.
func (g *Generator) emitDest(in ir.Instr) ir.Value {
	g.nextVal++
	in.Dest = g.nextVal
	g.blk.Instrs = append(g.blk.Instrs, in)
	return in.Dest
}

// setTerm seals the current block; extra terminators from dead code are
// dropped rather than duplicated.
func (g *Generator) setTerm(t ir.Term) {
	if g.blk.Term == nil {
		term := t
		g.blk.Term = &term
	}
}

func (g *Generator) pushScope() {
	g.scopes = append(g.scopes, make(map[source.StringID]ir.LocalID))
}

func (g *Generator) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

func (g *Generator) bind(name source.StringID, slot ir.LocalID) {
	g.scopes[len(g.scopes)-1][name] = slot
}

func (g *Generator) lookup(name source.StringID) (ir.LocalID, bool) {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if slot, ok := g.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// newLocal allocates a named stack slot.
func (g *Generator) newLocal(name source.StringID, t types.TypeID) ir.LocalID {
	slot := ir.LocalID(len(g.fn.Locals))
	g.fn.Locals = append(g.fn.Locals, ir.Local{Name: g.nameOf(name), Type: t})
	g.bind(name, slot)
	g.noteType(t)
	return slot
}

func (g *Generator) valueParams(params []ast.Param) []ast.Param {
	if len(params) > 0 && params[0].Name == g.selfID {
		return params[1:]
	}
	return params
}

// methodSymbol is ClassName$method, matching the mangling monomorphized
// class methods already carry.
func (g *Generator) methodSymbol(class types.TypeID, method source.StringID) string {
	return g.types.Format(class) + "$" + g.nameOf(method)
}

// declaringClass walks the hierarchy to the class that declares method.
func (g *Generator) declaringClass(class types.TypeID, method source.StringID) types.TypeID {
	for class != types.NoTypeID {
		info, ok := g.types.ClassInfo(class)
		if !ok {
			break
		}
		for _, m := range info.Methods {
			if m.Name == method {
				return class
			}
		}
		class = info.Base
	}
	return types.NoTypeID
}

// noteClass records a class (and everything its layout reaches) for
// struct emission.
func (g *Generator) noteClass(class types.TypeID) {
	if class == types.NoTypeID || g.classSeen[class] {
		return
	}
	g.classSeen[class] = true
	g.mod.Classes = append(g.mod.Classes, class)
	info, ok := g.types.ClassInfo(class)
	if !ok {
		return
	}
	g.noteClass(info.Base)
	for _, f := range info.Fields {
		g.noteType(f.Type)
	}
}

func (g *Generator) noteType(t types.TypeID) {
	tt, ok := g.types.Lookup(t)
	if !ok {
		return
	}
	switch tt.Kind {
	case types.KindClass:
		g.noteClass(t)
	case types.KindList, types.KindOptional:
		g.noteType(tt.Elem)
	}
}

// extern registers a runtime function once.
func (g *Generator) extern(symbol string, params []types.TypeID, result types.TypeID) {
	if g.externSeen[symbol] {
		return
	}
	g.externSeen[symbol] = true
	g.mod.Externs = append(g.mod.Externs, ir.Extern{Symbol: symbol, Params: params, Result: result})
}

// zeroValue materializes the zero of t. Pointer-shaped types reuse the
// integer constant form; the backend emits null for them.
func (g *Generator) zeroValue(t types.TypeID) ir.Value {
	switch g.types.Kind(t) {
	case types.KindFloat:
		return g.emitDest(ir.Instr{Kind: ir.OpConstFloat, Type: t})
	case types.KindBool:
		return g.emitDest(ir.Instr{Kind: ir.OpConstBool, Type: t})
	case types.KindString:
		return g.emitDest(ir.Instr{Kind: ir.OpConstString, Type: t})
	case types.KindUnit:
		return g.emitDest(ir.Instr{Kind: ir.OpConstUnit, Type: t})
	default:
		return g.emitDest(ir.Instr{Kind: ir.OpConstInt, Type: t})
	}
}

// wrapFuture boxes a result value into a ready Future for async returns.
func (g *Generator) wrapFuture(v ir.Value) ir.Value {
	fut := g.emitDest(ir.Instr{Kind: ir.OpNew, Type: g.fn.Result})
	ready := g.emitDest(ir.Instr{Kind: ir.OpConstBool, Type: g.types.Builtins().Bool, Bool: true})
	g.emit(ir.Instr{Kind: ir.OpSetField, A: fut, Field: 0, B: ready, Type: g.types.Builtins().Bool})
	g.emit(ir.Instr{Kind: ir.OpSetField, A: fut, Field: 1, B: v, Type: g.retType})
	return fut
}

func (g *Generator) nameOf(id source.StringID) string {
	s, _ := g.strings.Lookup(id)
	return s
}

// fatal reports a phase-contract violation: the checker let something
// through that lowering cannot express, which is a compiler bug.
func (g *Generator) fatal(sp source.Span, msg string) {
	diag.Fatalf(g.reporter, diag.InternalAssertionFailed, sp, msg)
}

// typeOf reads an annotation, treating its absence as fatal.
func (g *Generator) typeOf(e *ast.Expr) types.TypeID {
	if e.Type == types.NoTypeID {
		g.fatal(e.Span, fmt.Sprintf("unannotated %s expression reached lowering", e.Kind))
		return g.types.Builtins().Invalid
	}
	return e.Type
}

// flatFields lists a class's fields base-first: the aggregate layout.
func (g *Generator) flatFields(class types.TypeID) []types.Field {
	info, ok := g.types.ClassInfo(class)
	if !ok {
		return nil
	}
	var fields []types.Field
	if info.Base != types.NoTypeID {
		fields = append(fields, g.flatFields(info.Base)...)
	}
	return append(fields, info.Fields...)
}

// fieldSlot resolves a field name to its flattened index and type.
func (g *Generator) fieldSlot(class types.TypeID, name source.StringID) (int, types.TypeID, bool) {
	for i, f := range g.flatFields(class) {
		if f.Name == name {
			return i, f.Type, true
		}
	}
	return 0, types.NoTypeID, false
}
