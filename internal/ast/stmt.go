package ast

import (
	"tocin/internal/source"
)

// StmtKind enumerates statement node kinds.
type StmtKind uint8

const (
	StmtExpr StmtKind = iota
	StmtVarDecl
	StmtAssign
	StmtBlock
	StmtIf
	StmtWhile
	StmtFor
	StmtReturn
	StmtBreak
	StmtContinue
	StmtFunc
	StmtClass
	StmtTrait
	StmtMatch
)

func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "Expr"
	case StmtVarDecl:
		return "VarDecl"
	case StmtAssign:
		return "Assign"
	case StmtBlock:
		return "Block"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtFor:
		return "For"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtFunc:
		return "Func"
	case StmtClass:
		return "Class"
	case StmtTrait:
		return "Trait"
	case StmtMatch:
		return "Match"
	}
	return "Stmt(?)"
}

// Stmt is one statement node.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is implemented by every statement payload.
type StmtData interface{ stmtData() }

// ExprStmtData wraps an expression evaluated for effect.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// VarDeclData declares `let name[: Type] [= init]` or `const ...`.
type VarDeclData struct {
	Name     source.StringID
	Declared *TypeExpr // nil when inferred
	Init     *Expr     // nil when only declared
	Const    bool
}

func (VarDeclData) stmtData() {}

// AssignData is `target = value`. Target is a VarRef, Field, or Index
// expression.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) stmtData() {}

// BlockData is a brace-delimited statement list opening a new scope.
type BlockData struct {
	Stmts []*Stmt
}

func (BlockData) stmtData() {}

// IfData is the payload of StmtIf; Else may be nil, a block, or another if.
type IfData struct {
	Cond *Expr
	Then *Stmt
	Else *Stmt
}

func (IfData) stmtData() {}

// WhileData is the payload of StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Stmt
}

func (WhileData) stmtData() {}

// ForData is a C-style loop; any of Init/Cond/Update may be nil.
type ForData struct {
	Init   *Stmt
	Cond   *Expr
	Update *Stmt
	Body   *Stmt
}

func (ForData) stmtData() {}

// ReturnData is the payload of StmtReturn; Value nil means `return;`.
type ReturnData struct {
	Value *Expr
}

func (ReturnData) stmtData() {}

// BreakData and ContinueData have no payload beyond the span.
type BreakData struct{}

func (BreakData) stmtData() {}

type ContinueData struct{}

func (ContinueData) stmtData() {}

// MatchData is the payload of StmtMatch.
type MatchData struct {
	Scrutinee *Expr
	Cases     []MatchCase
}

func (MatchData) stmtData() {}

// MatchCase is one `case pattern => body` arm.
type MatchCase struct {
	Pattern *Pattern
	Body    *Stmt
	Span    source.Span
}
