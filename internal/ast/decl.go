package ast

import (
	"tocin/internal/source"
)

// Param is a function or lambda parameter.
type Param struct {
	Name source.StringID
	Type *TypeExpr
	Span source.Span
}

// TypeParam declares a generic parameter with an optional trait bound,
// e.g. `T: Printable`.
type TypeParam struct {
	Name  source.StringID
	Bound source.StringID // NoStringID when unconstrained
	Span  source.Span
}

// FuncData is the payload of StmtFunc.
type FuncData struct {
	Name       source.StringID
	TypeParams []TypeParam
	Params     []Param
	Return     *TypeExpr // nil means None
	Body       *Stmt     // StmtBlock
	Async      bool
}

func (FuncData) stmtData() {}

// FieldDecl is one class field.
type FieldDecl struct {
	Name source.StringID
	Type *TypeExpr
	Span source.Span
}

// ClassData is the payload of StmtClass. Methods reuse FuncData nodes.
type ClassData struct {
	Name       source.StringID
	TypeParams []TypeParam
	Base       source.StringID // NoStringID when the class has no parent
	Fields     []FieldDecl
	Methods    []*Stmt // each StmtFunc
}

func (ClassData) stmtData() {}

// TraitData is the payload of StmtTrait: required method signatures only.
type TraitData struct {
	Name    source.StringID
	Methods []TraitMethod
}

func (TraitData) stmtData() {}

// TraitMethod is one required signature in a trait declaration.
type TraitMethod struct {
	Name   source.StringID
	Params []Param
	Return *TypeExpr
	Span   source.Span
}

// File is the root of one parsed source file.
type File struct {
	FileID source.FileID
	Stmts  []*Stmt
}
