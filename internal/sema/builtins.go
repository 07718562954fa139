package sema

import (
	"fmt"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/types"
)

// builtinKind identifies the compiler-provided functions. They are not
// ordinary bindings: print dispatches on its argument type at lowering
// time, so checking is per-builtin rather than signature-driven.
type builtinKind uint8

const (
	biPrint builtinKind = iota
	biPrintln
	biSqrt
	biLen
)

var builtinByName = map[string]builtinKind{
	"print":   biPrint,
	"println": biPrintln,
	"sqrt":    biSqrt,
	"len":     biLen,
}

func lookupBuiltin(name string) (builtinKind, bool) {
	k, ok := builtinByName[name]
	return k, ok
}

func (c *Checker) checkBuiltinCall(e *ast.Expr, kind builtinKind, args []*ast.Expr) types.TypeID {
	b := c.types.Builtins()
	argTypes := make([]types.TypeID, len(args))
	for i, a := range args {
		argTypes[i] = c.checkExpr(a)
	}
	bad := func(want string) types.TypeID {
		diag.Errorf(c.reporter, diag.WrongArgumentCount, e.Span, want)
		return c.invalid()
	}

	switch kind {
	case biPrint:
		if len(args) != 1 {
			return bad(fmt.Sprintf("print takes 1 argument, got %d", len(args)))
		}
		c.requirePrintable(args[0], argTypes[0])
		return b.Unit
	case biPrintln:
		if len(args) > 1 {
			return bad(fmt.Sprintf("println takes at most 1 argument, got %d", len(args)))
		}
		if len(args) == 1 {
			c.requirePrintable(args[0], argTypes[0])
		}
		return b.Unit
	case biSqrt:
		if len(args) != 1 {
			return bad(fmt.Sprintf("sqrt takes 1 argument, got %d", len(args)))
		}
		if !c.isNumeric(argTypes[0]) && c.types.Kind(argTypes[0]) != types.KindInvalid {
			diag.Errorf(c.reporter, diag.TypeMismatch, args[0].Span,
				fmt.Sprintf("sqrt needs a numeric argument, got %s", c.types.Format(argTypes[0])))
		}
		return b.Float
	case biLen:
		if len(args) != 1 {
			return bad(fmt.Sprintf("len takes 1 argument, got %d", len(args)))
		}
		switch c.types.Kind(argTypes[0]) {
		case types.KindList, types.KindString, types.KindInvalid:
		default:
			diag.Errorf(c.reporter, diag.TypeMismatch, args[0].Span,
				fmt.Sprintf("len needs a list or string, got %s", c.types.Format(argTypes[0])))
		}
		return b.Int
	}
	return c.invalid()
}

// requirePrintable limits print to the primitive types the runtime can
// format.
func (c *Checker) requirePrintable(arg *ast.Expr, t types.TypeID) {
	switch c.types.Kind(t) {
	case types.KindInt, types.KindFloat, types.KindBool, types.KindString, types.KindInvalid:
	default:
		diag.Errorf(c.reporter, diag.TypeMismatch, arg.Span,
			fmt.Sprintf("cannot print a value of type %s", c.types.Format(t)))
	}
}
