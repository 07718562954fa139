package ast

import (
	"tocin/internal/source"
)

// TypeExprKind enumerates syntactic type forms.
type TypeExprKind uint8

const (
	// TypeName covers primitives, classes, traits, and type parameters;
	// with Args it is a generic reference Name<Args...>.
	TypeName TypeExprKind = iota
	// TypeOptional is `T?`.
	TypeOptional
	// TypeFunction is `(A, B) -> R`.
	TypeFunction
	// TypeUnion is `A | B`.
	TypeUnion
)

// TypeExpr is the syntax of a type annotation. The checker resolves it to
// a types.TypeID; the IR generator never sees TypeExprs.
type TypeExpr struct {
	Kind TypeExprKind
	Span source.Span

	Name    source.StringID // TypeName
	Args    []*TypeExpr     // TypeName generic args
	Elem    *TypeExpr       // TypeOptional
	Params  []*TypeExpr     // TypeFunction
	Result  *TypeExpr       // TypeFunction
	Members []*TypeExpr     // TypeUnion
}
