package sema

import (
	"tocin/internal/source"
	"tocin/internal/types"
)

// Binding is one name's entry in a scope.
type Binding struct {
	Type  types.TypeID
	Const bool
}

// Env is a chained lookup table from names to bindings. Child scopes hold
// a non-owning reference to their parent; scopes are created on
// block/function/lambda entry and dropped LIFO on exit, so a parent
// always outlives its children.
type Env struct {
	parent *Env
	vars   map[source.StringID]Binding
}

func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[source.StringID]Binding)}
}

// Define introduces or shadows name in this scope.
func (e *Env) Define(name source.StringID, t types.TypeID, isConst bool) {
	e.vars[name] = Binding{Type: t, Const: isConst}
}

// Lookup walks the parent chain.
func (e *Env) Lookup(name source.StringID) (Binding, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if b, ok := scope.vars[name]; ok {
			return b, true
		}
	}
	return Binding{}, false
}

// DefinedHere reports whether name is bound in this scope directly,
// ignoring parents. Used for duplicate-declaration checks.
func (e *Env) DefinedHere(name source.StringID) bool {
	_, ok := e.vars[name]
	return ok
}

// Parent returns the enclosing scope.
func (e *Env) Parent() *Env {
	return e.parent
}
