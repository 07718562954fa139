package sema

import (
	"fmt"
	"slices"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/source"
	"tocin/internal/types"
)

// checkGenericCall resolves a call to a generic function template:
// explicit type arguments are taken as given, otherwise arguments are
// unified against the declared parameter patterns. Each distinct binding
// set is checked and recorded once; repeat calls hit the cache.
func (c *Checker) checkGenericCall(e *ast.Expr, tmpl *ast.FuncData, data ast.CallData) types.TypeID {
	argTypes := make([]types.TypeID, len(data.Args))
	for i, a := range data.Args {
		argTypes[i] = c.checkExpr(a)
	}
	name := c.nameOf(tmpl.Name)

	// Resolve the declared signature with free type parameters in scope.
	sigFrame := make(map[source.StringID]types.TypeID, len(tmpl.TypeParams))
	bounds := make(map[source.StringID]types.TypeID, len(tmpl.TypeParams))
	for _, tp := range tmpl.TypeParams {
		bound := types.NoTypeID
		if tp.Bound != source.NoStringID {
			var ok bool
			bound, ok = c.types.TraitByName(tp.Bound)
			if !ok {
				diag.Errorf(c.reporter, diag.UndefinedType, tp.Span,
					fmt.Sprintf("undefined trait '%s' in bound", c.nameOf(tp.Bound)))
				bound = types.NoTypeID
			}
		}
		sigFrame[tp.Name] = c.types.RegisterTypeParam(tp.Name, bound)
		bounds[tp.Name] = bound
	}
	c.paramFrames = append(c.paramFrames, sigFrame)
	params := c.valueParams(tmpl.Params)
	patterns := make([]types.TypeID, len(params))
	for i, p := range params {
		patterns[i] = c.paramType(p)
	}
	c.paramFrames = c.paramFrames[:len(c.paramFrames)-1]

	if len(argTypes) != len(patterns) {
		diag.Errorf(c.reporter, diag.WrongArgumentCount, e.Span,
			fmt.Sprintf("'%s' takes %d argument(s), got %d", name, len(patterns), len(argTypes)))
		return c.invalid()
	}

	bindings := make(types.Bindings, len(tmpl.TypeParams))
	if len(data.TypeArgs) > 0 {
		if len(data.TypeArgs) != len(tmpl.TypeParams) {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, e.Span,
				fmt.Sprintf("'%s' needs %d type argument(s), got %d",
					name, len(tmpl.TypeParams), len(data.TypeArgs)))
			return c.invalid()
		}
		for i, ta := range data.TypeArgs {
			bindings[tmpl.TypeParams[i].Name] = c.resolveTypeExpr(ta)
		}
	} else {
		for i, pat := range patterns {
			c.unify(pat, argTypes[i], bindings)
		}
	}

	argIDs := make([]types.TypeID, len(tmpl.TypeParams))
	for i, tp := range tmpl.TypeParams {
		bound, ok := bindings[tp.Name]
		if !ok {
			diag.Errorf(c.reporter, diag.CannotInferType, e.Span,
				fmt.Sprintf("cannot infer type argument %s of '%s'", c.nameOf(tp.Name), name))
			return c.invalid()
		}
		argIDs[i] = bound
		if trait := bounds[tp.Name]; trait != types.NoTypeID && !c.types.Satisfies(bound, trait) {
			diag.Errorf(c.reporter, diag.TraitBoundUnsatisfied, e.Span,
				fmt.Sprintf("type %s does not satisfy bound %s of '%s'",
					c.types.Format(bound), c.types.Format(trait), name))
		}
	}

	inst := c.instantiateFn(name, tmpl, argIDs, bindings, types.NoTypeID, e.Span)
	c.callTargets[e] = inst
	if data.Callee != nil {
		data.Callee.Type = inst.Sig
	}

	// Validate arguments against the concrete parameter types.
	info, _ := c.types.FnInfo(inst.Sig)
	for i, a := range data.Args {
		if i < len(info.Params) && !c.types.Assignable(argTypes[i], info.Params[i]) {
			diag.Errorf(c.reporter, diag.TypeMismatch, a.Span,
				fmt.Sprintf("argument %d: cannot pass %s where %s is expected",
					i+1, c.types.Format(argTypes[i]), c.types.Format(info.Params[i])))
		}
		c.moveOnTransfer(a)
	}
	return info.Result
}

// instantiateFn returns the memoized instance for (base, argIDs),
// checking the body on first use.
func (c *Checker) instantiateFn(base string, tmpl *ast.FuncData, argIDs []types.TypeID,
	bindings types.Bindings, self types.TypeID, sp source.Span) *FnInstance {
	return c.instantiateAs(c.types.Mangle(base, argIDs), tmpl, bindings, self)
}

// instantiateAs checks one instance under its exact symbol. Free generic
// functions arrive through instantiateFn, which mangles the type
// arguments in; method instances of a class instantiation carry the
// class's mangling already (Box$int$get) and must not be mangled again,
// or calls lowered through methodSymbol would target a missing symbol.
// The cache entry is inserted before the body is checked so recursive
// generics terminate instead of looping.
func (c *Checker) instantiateAs(mangled string, tmpl *ast.FuncData,
	bindings types.Bindings, self types.TypeID) *FnInstance {
	if inst, ok := c.fnInsts[mangled]; ok {
		return inst
	}

	// Each instance checks a private body copy: annotations written for
	// one binding set must not leak into another.
	body := *tmpl
	body.Body = ast.CloneStmt(tmpl.Body)

	frame := make(map[source.StringID]types.TypeID, len(bindings))
	for n, t := range bindings {
		frame[n] = t
	}
	c.paramFrames = append(c.paramFrames, frame)
	sig := c.fnSignature(&body)
	inst := &FnInstance{
		Name:     mangled,
		Template: &body,
		Bindings: bindings,
		Sig:      sig,
		Self:     self,
	}
	c.fnInsts[mangled] = inst
	c.instOrder = append(c.instOrder, inst)
	c.checkFunctionBody(&body, self)
	c.paramFrames = c.paramFrames[:len(c.paramFrames)-1]
	return inst
}

// unify matches a declared parameter pattern against a concrete argument
// type, extending bindings. Failure is silent here; the caller reports a
// single CannotInferType or TypeMismatch afterwards.
func (c *Checker) unify(pattern, arg types.TypeID, b types.Bindings) bool {
	pt, ok := c.types.Lookup(pattern)
	if !ok {
		return false
	}
	if pt.Kind == types.KindTypeParam {
		info, _ := c.types.ParamInfo(pattern)
		if prev, ok := b[info.Name]; ok {
			return prev == arg || c.types.Assignable(arg, prev)
		}
		b[info.Name] = arg
		return true
	}
	at, ok := c.types.Lookup(arg)
	if !ok {
		return false
	}
	switch pt.Kind {
	case types.KindOptional:
		if at.Kind == types.KindOptional {
			return c.unify(pt.Elem, at.Elem, b)
		}
		// T? accepts a bare T argument.
		return c.unify(pt.Elem, arg, b)
	case types.KindList:
		return at.Kind == types.KindList && c.unify(pt.Elem, at.Elem, b)
	case types.KindFunction:
		pi, _ := c.types.FnInfo(pattern)
		ai, ok := c.types.FnInfo(arg)
		if !ok || len(ai.Params) != len(pi.Params) {
			return false
		}
		for i := range pi.Params {
			if !c.unify(pi.Params[i], ai.Params[i], b) {
				return false
			}
		}
		return c.unify(pi.Result, ai.Result, b)
	case types.KindGeneric:
		// Box<T> against an instantiated Box<int> unifies through the
		// reverse map recorded at instantiation time.
		gi, _ := c.types.GenericInfo(pattern)
		key, ok := c.classArgs[arg]
		if !ok || key.name != gi.Name || len(key.args) != len(gi.Args) {
			return false
		}
		for i := range gi.Args {
			if !c.unify(gi.Args[i], key.args[i], b) {
				return false
			}
		}
		return true
	}
	return c.types.Assignable(arg, pattern)
}

// instantiateClass stamps a concrete class out of a generic template.
// The registry entry is created and cached before member resolution so
// self-referential classes (Node<T> holding a Node<T>?) terminate.
func (c *Checker) instantiateClass(tmpl *ast.ClassData, args []types.TypeID, sp source.Span) types.TypeID {
	mangled := c.types.Mangle(c.nameOf(tmpl.Name), args)
	if id, ok := c.classInsts[mangled]; ok {
		return id
	}

	frame := make(map[source.StringID]types.TypeID, len(tmpl.TypeParams))
	bindings := make(types.Bindings, len(tmpl.TypeParams))
	for i, tp := range tmpl.TypeParams {
		frame[tp.Name] = args[i]
		bindings[tp.Name] = args[i]
		if tp.Bound != source.NoStringID {
			if trait, ok := c.types.TraitByName(tp.Bound); ok && !c.types.Satisfies(args[i], trait) {
				diag.Errorf(c.reporter, diag.TraitBoundUnsatisfied, sp,
					fmt.Sprintf("type %s does not satisfy bound %s of '%s'",
						c.types.Format(args[i]), c.types.Format(trait), c.nameOf(tmpl.Name)))
			}
		}
	}

	nameID := c.strings.Intern(mangled)
	id := c.types.RegisterClass(nameID)
	c.classInsts[mangled] = id
	c.classArgs[id] = instKey{name: tmpl.Name, args: slices.Clone(args)}

	c.paramFrames = append(c.paramFrames, frame)
	base := types.NoTypeID
	if tmpl.Base != source.NoStringID {
		var ok bool
		base, ok = c.types.ClassByName(tmpl.Base)
		if !ok {
			base = types.NoTypeID
			diag.Errorf(c.reporter, diag.UndefinedType, sp,
				fmt.Sprintf("undefined base class '%s'", c.nameOf(tmpl.Base)))
		}
	}
	// Resolving member types can instantiate further classes, which grows
	// the registry and invalidates any ClassInfo pointer held across the
	// call. Resolve every member first, fetch the entry, then fill it.
	fields := make([]types.Field, 0, len(tmpl.Fields))
	for _, f := range tmpl.Fields {
		fields = append(fields, types.Field{Name: f.Name, Type: c.resolveTypeExpr(f.Type)})
	}
	methods := make([]types.Method, 0, len(tmpl.Methods))
	for _, m := range tmpl.Methods {
		fn := m.Data.(ast.FuncData)
		methods = append(methods, types.Method{Name: fn.Name, Sig: c.fnSignature(&fn)})
	}
	info, _ := c.types.ClassInfo(id)
	info.Base = base
	info.Fields = fields
	info.Methods = methods
	// Method bodies are instances of their own: one lowered copy per
	// class instantiation, under the symbol lowering dispatches to.
	for _, m := range tmpl.Methods {
		fn := m.Data.(ast.FuncData)
		fnCopy := fn
		c.instantiateAs(mangled+"$"+c.nameOf(fn.Name), &fnCopy, bindings, id)
	}
	c.paramFrames = c.paramFrames[:len(c.paramFrames)-1]
	return id
}

// futureOf returns the Future<elem> class, creating it on first use.
// Futures are ordinary two-field aggregates: a ready flag and the value.
func (c *Checker) futureOf(elem types.TypeID) types.TypeID {
	mangled := c.types.Mangle("Future", []types.TypeID{elem})
	if id, ok := c.classInsts[mangled]; ok {
		return id
	}
	id := c.types.RegisterClass(c.strings.Intern(mangled))
	info, _ := c.types.ClassInfo(id)
	info.Fields = []types.Field{
		{Name: c.strings.Intern("ready"), Type: c.types.Builtins().Bool},
		{Name: c.strings.Intern("value"), Type: elem},
	}
	c.classInsts[mangled] = id
	c.classArgs[id] = instKey{name: c.strings.Intern("Future"), args: []types.TypeID{elem}}
	c.futureElem[id] = elem
	return id
}

// FutureElem reports the payload type of a Future class, if t is one.
func (c *Checker) FutureElem(t types.TypeID) (types.TypeID, bool) {
	elem, ok := c.futureElem[t]
	return elem, ok
}
