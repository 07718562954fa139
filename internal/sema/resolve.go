package sema

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/source"
	"tocin/internal/types"
)

// resolveTypeExpr turns type syntax into an interned TypeID. A nil type
// expression means the None (unit) type, matching omitted return
// annotations. Unknown names report UndefinedType and resolve to the
// invalid type so checking can continue.
func (c *Checker) resolveTypeExpr(te *ast.TypeExpr) types.TypeID {
	if te == nil {
		return c.types.Builtins().Unit
	}
	switch te.Kind {
	case ast.TypeName:
		return c.resolveTypeName(te)
	case ast.TypeOptional:
		return c.types.Optional(c.resolveTypeExpr(te.Elem))
	case ast.TypeFunction:
		params := make([]types.TypeID, len(te.Params))
		for i, p := range te.Params {
			params[i] = c.resolveTypeExpr(p)
		}
		return c.types.RegisterFn(params, c.resolveTypeExpr(te.Result))
	case ast.TypeUnion:
		members := make([]types.TypeID, len(te.Members))
		for i, m := range te.Members {
			members[i] = c.resolveTypeExpr(m)
		}
		return c.types.Resolve(c.types.RegisterUnion(members))
	}
	return c.invalid()
}

func (c *Checker) resolveTypeName(te *ast.TypeExpr) types.TypeID {
	name := c.nameOf(te.Name)
	b := c.types.Builtins()

	if len(te.Args) == 0 {
		switch name {
		case "int":
			return b.Int
		case "float":
			return b.Float
		case "bool":
			return b.Bool
		case "string":
			return b.String
		case "None":
			return b.Unit
		}
		if id, ok := c.lookupTypeParam(te.Name); ok {
			return id
		}
		if id, ok := c.types.ClassByName(te.Name); ok {
			return id
		}
		if id, ok := c.types.TraitByName(te.Name); ok {
			return id
		}
		if tmpl, ok := c.genericClasses[te.Name]; ok {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, te.Span,
				fmt.Sprintf("generic class '%s' needs %d type argument(s)", name, len(tmpl.TypeParams)))
			return c.invalid()
		}
		diag.Errorf(c.reporter, diag.UndefinedType, te.Span,
			fmt.Sprintf("undefined type '%s'", name))
		return c.invalid()
	}

	args := make([]types.TypeID, len(te.Args))
	for i, a := range te.Args {
		args[i] = c.resolveTypeExpr(a)
	}

	switch name {
	case "list":
		if len(args) != 1 {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, te.Span,
				"list takes exactly one type argument")
			return c.invalid()
		}
		return c.types.List(args[0])
	case "Future":
		if len(args) != 1 {
			diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, te.Span,
				"Future takes exactly one type argument")
			return c.invalid()
		}
		if c.hasFreeParams(args[0]) {
			return c.types.RegisterGeneric(te.Name, args)
		}
		return c.futureOf(args[0])
	}

	tmpl, ok := c.genericClasses[te.Name]
	if !ok {
		diag.Errorf(c.reporter, diag.UndefinedType, te.Span,
			fmt.Sprintf("'%s' is not a generic type", name))
		return c.invalid()
	}
	if len(args) != len(tmpl.TypeParams) {
		diag.Errorf(c.reporter, diag.WrongTypeArgumentCount, te.Span,
			fmt.Sprintf("'%s' needs %d type argument(s), got %d", name, len(tmpl.TypeParams), len(args)))
		return c.invalid()
	}
	for _, a := range args {
		if c.hasFreeParams(a) {
			// Still parametric: leave as an uninstantiated reference to
			// be concretized once the enclosing bindings are known.
			return c.types.RegisterGeneric(te.Name, args)
		}
	}
	return c.instantiateClass(tmpl, args, te.Span)
}

// lookupTypeParam searches the in-scope type-parameter frames innermost
// first.
func (c *Checker) lookupTypeParam(name source.StringID) (types.TypeID, bool) {
	for i := len(c.paramFrames) - 1; i >= 0; i-- {
		if id, ok := c.paramFrames[i][name]; ok {
			return id, true
		}
	}
	return types.NoTypeID, false
}

func (c *Checker) hasFreeParams(t types.TypeID) bool {
	free := make(map[source.StringID]struct{})
	c.types.FreeParams(t, free)
	return len(free) > 0
}
