package ast

import (
	"tocin/internal/source"
)

// PatternKind enumerates match-pattern forms.
type PatternKind uint8

const (
	// PatWildcard is `_`, matching anything without binding.
	PatWildcard PatternKind = iota
	// PatLiteral matches by value equality.
	PatLiteral
	// PatBinding is a bare name: matches anything, binds the value for
	// the case body's scope.
	PatBinding
	// PatConstructor is `ClassName(sub, patterns...)`, matching by class
	// tag and destructuring fields positionally.
	PatConstructor
)

// Pattern is one match pattern node.
type Pattern struct {
	Kind PatternKind
	Span source.Span

	Literal *Expr           // PatLiteral (ExprLiteral node)
	Name    source.StringID // PatBinding, PatConstructor class name
	Subs    []*Pattern      // PatConstructor sub-patterns
}
