// Package sema implements the semantic passes: name resolution, type
// checking, generic instantiation, and ownership tracking. The checker
// annotates expression nodes in place; downstream passes read the
// annotations and never re-infer.
package sema

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/source"
	"tocin/internal/types"
)

// FnInstance is one monomorphized function or method the IR generator
// must lower. Non-generic functions are lowered straight from the AST;
// instances exist because their bodies were checked against concrete
// bindings and must be emitted once per binding set.
type FnInstance struct {
	// Name is the mangled symbol, e.g. id$int or Box$int$get.
	Name string
	// Template is the generic declaration the instance was stamped from.
	Template *ast.FuncData
	// Bindings map the template's type parameters to concrete types.
	Bindings types.Bindings
	// Sig is the concrete function type of the instance.
	Sig types.TypeID
	// Self is the receiver class for method instances, NoTypeID for
	// free functions.
	Self types.TypeID
}

// Result carries everything downstream passes need beyond the annotated
// AST itself.
type Result struct {
	Types *types.Interner
	// Instances are monomorphized functions in creation order. An
	// instance always precedes any instance discovered while checking
	// its body, except for mutual/self recursion, which the memo cache
	// breaks.
	Instances []*FnInstance
	// CallTargets maps generic call expressions to the instance each
	// resolved to; the IR generator emits the instance's mangled symbol.
	CallTargets map[*ast.Expr]*FnInstance
	// Sigs maps non-generic function and method declarations (their
	// StmtFunc nodes) to the resolved signature type.
	Sigs map[*ast.Stmt]types.TypeID
	// Decls maps variable declarations to their resolved type, declared
	// or inferred. The IR generator sizes the slot from this instead of
	// re-resolving annotation syntax.
	Decls map[*ast.Stmt]types.TypeID
}

// Checker runs semantic analysis over one file. One Checker per
// compilation; it is not safe for concurrent use.
type Checker struct {
	types    *types.Interner
	strings  *source.Interner
	reporter diag.Reporter

	global *Env
	env    *Env
	own    *Ownership

	// returnStack tracks the declared result type of the function being
	// checked; asyncStack tracks whether that function is async.
	returnStack []types.TypeID
	asyncStack  []bool
	loopDepth   int

	// selfStack is the receiver class while checking method bodies.
	selfStack []types.TypeID

	// paramFrames map in-scope type-parameter names to their TypeID —
	// a free KindTypeParam during signature resolution, the concrete
	// binding while checking an instance body.
	paramFrames []map[source.StringID]types.TypeID

	// Generic declarations are templates: stored on declaration,
	// checked per instantiation.
	genericFns     map[source.StringID]*ast.FuncData
	genericClasses map[source.StringID]*ast.ClassData

	// fnInsts memoizes function instantiations by mangled name. An
	// entry is inserted before the instance body is checked so that
	// recursive generics terminate.
	fnInsts   map[string]*FnInstance
	instOrder []*FnInstance

	// classInsts memoizes class instantiations; classArgs is the
	// reverse map from an instantiated class back to (template, args),
	// used by unification. futureElem maps Future<T> class types to T.
	classInsts map[string]types.TypeID
	classArgs  map[types.TypeID]instKey
	futureElem map[types.TypeID]types.TypeID

	callTargets map[*ast.Expr]*FnInstance
	sigs        map[*ast.Stmt]types.TypeID
	decls       map[*ast.Stmt]types.TypeID
}

type instKey struct {
	name source.StringID
	args []types.TypeID
}

// NewChecker builds a checker over the given interners and reporter.
func NewChecker(ti *types.Interner, strs *source.Interner, reporter diag.Reporter) *Checker {
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	global := NewEnv(nil)
	return &Checker{
		types:          ti,
		strings:        strs,
		reporter:       reporter,
		global:         global,
		env:            global,
		own:            NewOwnership(strs, reporter),
		genericFns:     make(map[source.StringID]*ast.FuncData),
		genericClasses: make(map[source.StringID]*ast.ClassData),
		fnInsts:        make(map[string]*FnInstance),
		classInsts:     make(map[string]types.TypeID),
		classArgs:      make(map[types.TypeID]instKey),
		futureElem:     make(map[types.TypeID]types.TypeID),
		callTargets:    make(map[*ast.Expr]*FnInstance),
		sigs:           make(map[*ast.Stmt]types.TypeID),
		decls:          make(map[*ast.Stmt]types.TypeID),
	}
}

// CheckFile runs the full semantic pass over one parsed file.
func (c *Checker) CheckFile(f *ast.File) *Result {
	c.declareTopLevel(f.Stmts)
	for _, s := range f.Stmts {
		c.checkStmt(s)
	}
	return &Result{
		Types:       c.types,
		Instances:   c.instOrder,
		CallTargets: c.callTargets,
		Sigs:        c.sigs,
		Decls:       c.decls,
	}
}

// declareTopLevel registers classes, traits, and function signatures
// before any body is checked, so top-level declarations may reference
// each other regardless of order.
func (c *Checker) declareTopLevel(stmts []*ast.Stmt) {
	// Class names first: traits and signatures may mention them.
	for _, s := range stmts {
		if s == nil || s.Kind != ast.StmtClass {
			continue
		}
		data := s.Data.(ast.ClassData)
		if c.duplicateTypeName(data.Name, s.Span) {
			continue
		}
		if len(data.TypeParams) > 0 {
			c.genericClasses[data.Name] = &data
		} else {
			c.types.RegisterClass(data.Name)
		}
	}
	for _, s := range stmts {
		if s == nil || s.Kind != ast.StmtTrait {
			continue
		}
		c.declareTrait(s)
	}
	for _, s := range stmts {
		if s == nil || s.Kind != ast.StmtClass {
			continue
		}
		data := s.Data.(ast.ClassData)
		if len(data.TypeParams) == 0 {
			c.fillClass(&data, s.Span)
		}
	}
	c.checkInheritanceCycles(stmts)
	for _, s := range stmts {
		if s == nil || s.Kind != ast.StmtFunc {
			continue
		}
		data := s.Data.(ast.FuncData)
		c.declareFuncStmt(s, &data, c.global)
	}
}

// declareFuncStmt declares a function and records its signature for the
// IR generator.
func (c *Checker) declareFuncStmt(s *ast.Stmt, fn *ast.FuncData, env *Env) {
	c.declareFunc(fn, s.Span, env)
	if len(fn.TypeParams) == 0 {
		c.sigs[s] = c.fnSignature(fn)
	}
}

func (c *Checker) duplicateTypeName(name source.StringID, sp source.Span) bool {
	_, isClass := c.types.ClassByName(name)
	_, isTrait := c.types.TraitByName(name)
	_, isGeneric := c.genericClasses[name]
	if isClass || isTrait || isGeneric {
		diag.Errorf(c.reporter, diag.DuplicateDefinition, sp,
			fmt.Sprintf("type '%s' is already defined", c.nameOf(name)))
		return true
	}
	return false
}

// declareFunc resolves a function's signature and binds its name. Generic
// functions are stored as templates instead.
func (c *Checker) declareFunc(fn *ast.FuncData, sp source.Span, env *Env) {
	if len(fn.TypeParams) > 0 {
		if _, ok := c.genericFns[fn.Name]; ok {
			diag.Errorf(c.reporter, diag.DuplicateDefinition, sp,
				fmt.Sprintf("function '%s' is already defined", c.nameOf(fn.Name)))
			return
		}
		c.genericFns[fn.Name] = fn
		return
	}
	if env.DefinedHere(fn.Name) {
		diag.Errorf(c.reporter, diag.DuplicateDefinition, sp,
			fmt.Sprintf("function '%s' is already defined", c.nameOf(fn.Name)))
		return
	}
	sig := c.fnSignature(fn)
	env.Define(fn.Name, sig, true)
	c.own.Declare(fn.Name)
}

// fnSignature resolves a function type from a declaration. A leading
// `self` parameter is the receiver, not part of the call signature.
func (c *Checker) fnSignature(fn *ast.FuncData) types.TypeID {
	params := c.valueParams(fn.Params)
	ids := make([]types.TypeID, len(params))
	for i, p := range params {
		ids[i] = c.paramType(p)
	}
	ret := c.resolveTypeExpr(fn.Return)
	if fn.Async {
		ret = c.futureOf(ret)
	}
	return c.types.RegisterFn(ids, ret)
}

const selfText = "self"

// valueParams strips a leading explicit `self` parameter: methods may
// declare the receiver, but it is never part of the call signature.
func (c *Checker) valueParams(params []ast.Param) []ast.Param {
	if len(params) > 0 && params[0].Name == c.strings.Intern(selfText) {
		return params[1:]
	}
	return params
}

// paramType resolves a value parameter's annotation; `self` is the only
// parameter allowed to omit one.
func (c *Checker) paramType(p ast.Param) types.TypeID {
	if p.Type == nil {
		diag.Errorf(c.reporter, diag.CannotInferType, p.Span,
			fmt.Sprintf("parameter '%s' needs a type annotation", c.nameOf(p.Name)))
		return c.invalid()
	}
	return c.resolveTypeExpr(p.Type)
}

// declareTrait registers a trait and its required method signatures.
func (c *Checker) declareTrait(s *ast.Stmt) {
	data := s.Data.(ast.TraitData)
	if c.duplicateTypeName(data.Name, s.Span) {
		return
	}
	id := c.types.RegisterTrait(data.Name)
	info, _ := c.types.TraitInfo(id)
	for _, m := range data.Methods {
		params := c.valueParams(m.Params)
		ids := make([]types.TypeID, len(params))
		for i, p := range params {
			ids[i] = c.paramType(p)
		}
		sig := c.types.RegisterFn(ids, c.resolveTypeExpr(m.Return))
		info.Required = append(info.Required, types.Method{Name: m.Name, Sig: sig})
	}
}

// fillClass resolves a non-generic class's base, fields, and method
// signatures into the registry entry created by the name pre-pass.
func (c *Checker) fillClass(data *ast.ClassData, sp source.Span) {
	id, _ := c.types.ClassByName(data.Name)
	base := types.NoTypeID
	if data.Base != source.NoStringID {
		var ok bool
		base, ok = c.types.ClassByName(data.Base)
		if !ok {
			base = types.NoTypeID
			diag.Errorf(c.reporter, diag.UndefinedType, sp,
				fmt.Sprintf("undefined base class '%s'", c.nameOf(data.Base)))
		}
	}
	// Field and signature resolution can instantiate generic classes,
	// which grows the registry and invalidates ClassInfo pointers.
	// Resolve every member first, fetch the entry, then fill it.
	fields := make([]types.Field, 0, len(data.Fields))
	for _, f := range data.Fields {
		fields = append(fields, types.Field{Name: f.Name, Type: c.resolveTypeExpr(f.Type)})
	}
	methods := make([]types.Method, 0, len(data.Methods))
	for _, m := range data.Methods {
		fn := m.Data.(ast.FuncData)
		sig := c.fnSignature(&fn)
		methods = append(methods, types.Method{Name: fn.Name, Sig: sig})
		c.sigs[m] = sig
	}
	info, _ := c.types.ClassInfo(id)
	info.Base = base
	info.Fields = fields
	info.Methods = methods
}

// checkInheritanceCycles rejects class hierarchies that loop back on
// themselves; lowering embeds the base aggregate, so a cycle would be an
// infinitely sized value.
func (c *Checker) checkInheritanceCycles(stmts []*ast.Stmt) {
	for _, s := range stmts {
		if s == nil || s.Kind != ast.StmtClass {
			continue
		}
		data := s.Data.(ast.ClassData)
		id, ok := c.types.ClassByName(data.Name)
		if !ok {
			continue
		}
		seen := map[types.TypeID]bool{id: true}
		info, ok := c.types.ClassInfo(id)
		for ok && info.Base != types.NoTypeID {
			if seen[info.Base] {
				diag.Errorf(c.reporter, diag.CircularDependency, s.Span,
					fmt.Sprintf("class '%s' is part of an inheritance cycle", c.nameOf(data.Name)))
				info.Base = types.NoTypeID // break it so later passes terminate
				break
			}
			seen[info.Base] = true
			info, ok = c.types.ClassInfo(info.Base)
		}
	}
}

// checkFunctionBody checks a function or method body in a fresh scope
// rooted at the global environment.
func (c *Checker) checkFunctionBody(fn *ast.FuncData, self types.TypeID) {
	savedEnv := c.env
	savedLoop := c.loopDepth
	c.env = NewEnv(c.global)
	c.loopDepth = 0
	c.own.Enter()

	if self != types.NoTypeID {
		selfID := c.strings.Intern(selfText)
		c.env.Define(selfID, self, false)
		c.own.Declare(selfID)
		c.selfStack = append(c.selfStack, self)
	}
	for _, p := range c.valueParams(fn.Params) {
		c.env.Define(p.Name, c.paramType(p), false)
		c.own.Declare(p.Name)
	}
	ret := c.resolveTypeExpr(fn.Return)
	c.returnStack = append(c.returnStack, ret)
	c.asyncStack = append(c.asyncStack, fn.Async)

	if fn.Body != nil {
		c.checkStmt(fn.Body)
	}

	c.asyncStack = c.asyncStack[:len(c.asyncStack)-1]
	c.returnStack = c.returnStack[:len(c.returnStack)-1]
	if self != types.NoTypeID {
		c.selfStack = c.selfStack[:len(c.selfStack)-1]
	}
	c.own.Exit()
	c.loopDepth = savedLoop
	c.env = savedEnv
}

func (c *Checker) pushScope() {
	c.env = NewEnv(c.env)
	c.own.Enter()
}

func (c *Checker) popScope() {
	c.own.Exit()
	c.env = c.env.Parent()
}

func (c *Checker) nameOf(id source.StringID) string {
	s, _ := c.strings.Lookup(id)
	return s
}

// invalid is shorthand for the error-recovery type.
func (c *Checker) invalid() types.TypeID {
	return c.types.Builtins().Invalid
}

func (c *Checker) isNumeric(id types.TypeID) bool {
	k := c.types.Kind(id)
	return k == types.KindInt || k == types.KindFloat
}
