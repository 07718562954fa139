// Package ast defines the Tocin syntax tree as closed tagged variants:
// every node is a struct with a Kind tag and a kind-specific Data payload,
// so visitors dispatch with a single switch and the compiler's
// exhaustiveness is checkable by eye. Expression nodes carry a Type slot
// the checker fills in place; the IR generator reads it and never
// re-infers.
package ast

import (
	"tocin/internal/source"
	"tocin/internal/types"
)

// ExprKind enumerates expression node kinds.
type ExprKind uint8

const (
	ExprLiteral ExprKind = iota
	ExprVarRef
	ExprUnary
	ExprBinary
	ExprCall
	ExprField
	ExprIndex
	ExprLambda
	ExprAwait
	ExprNew
	ExprGroup
	ExprList
)

func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprVarRef:
		return "VarRef"
	case ExprUnary:
		return "Unary"
	case ExprBinary:
		return "Binary"
	case ExprCall:
		return "Call"
	case ExprField:
		return "Field"
	case ExprIndex:
		return "Index"
	case ExprLambda:
		return "Lambda"
	case ExprAwait:
		return "Await"
	case ExprNew:
		return "New"
	case ExprGroup:
		return "Group"
	case ExprList:
		return "List"
	}
	return "Expr(?)"
}

// Expr is one expression node.
type Expr struct {
	Kind ExprKind
	Span source.Span
	// Type is the checker's annotation. NoTypeID until the type checker
	// has visited the node; the IR generator treats NoTypeID here as a
	// phase-contract violation.
	Type types.TypeID
	Data ExprData
}

// ExprData is implemented by every expression payload.
type ExprData interface{ exprData() }

// LitKind enumerates literal kinds.
type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitBool
	LitString
	LitNone
)

// LiteralData is the payload of ExprLiteral.
type LiteralData struct {
	Kind   LitKind
	Int    int64
	Float  float64
	Bool   bool
	String string
	Text   string // raw lexeme for diagnostics
}

func (LiteralData) exprData() {}

// VarRefData names a variable or function.
type VarRefData struct {
	Name source.StringID
}

func (VarRefData) exprData() {}

// UnaryOp enumerates unary operators, including the ownership forms.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota // -x
	UnaryNot                // !x
	UnaryBorrow             // &x
	UnaryBorrowMut          // &mut x
	UnaryMove               // move x
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryBorrow:
		return "&"
	case UnaryBorrowMut:
		return "&mut"
	case UnaryMove:
		return "move"
	}
	return "?"
}

// UnaryData is the payload of ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLt
	BinLtEq
	BinGt
	BinGtEq
	BinEq
	BinNotEq
	BinAnd
	BinOr
)

func (op BinaryOp) String() string {
	switch op {
	case BinAdd:
		return "+"
	case BinSub:
		return "-"
	case BinMul:
		return "*"
	case BinDiv:
		return "/"
	case BinMod:
		return "%"
	case BinLt:
		return "<"
	case BinLtEq:
		return "<="
	case BinGt:
		return ">"
	case BinGtEq:
		return ">="
	case BinEq:
		return "=="
	case BinNotEq:
		return "!="
	case BinAnd:
		return "&&"
	case BinOr:
		return "||"
	}
	return "?"
}

// IsComparison reports <, <=, >, >=.
func (op BinaryOp) IsComparison() bool {
	return op >= BinLt && op <= BinGtEq
}

// IsEquality reports == and !=.
func (op BinaryOp) IsEquality() bool {
	return op == BinEq || op == BinNotEq
}

// IsArithmetic reports + - * / %.
func (op BinaryOp) IsArithmetic() bool {
	return op <= BinMod
}

// BinaryData is the payload of ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// CallData is the payload of ExprCall. TypeArgs carry explicit generic
// arguments (f<int>(x)); empty means inferred or non-generic.
type CallData struct {
	Callee   *Expr
	Args     []*Expr
	TypeArgs []*TypeExpr
}

func (CallData) exprData() {}

// FieldData is the payload of ExprField (obj.name).
type FieldData struct {
	Object *Expr
	Name   source.StringID
}

func (FieldData) exprData() {}

// IndexData is the payload of ExprIndex (obj[idx]).
type IndexData struct {
	Object *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// LambdaData is the payload of ExprLambda.
type LambdaData struct {
	Params []Param
	Return *TypeExpr // nil means None
	Body   *Stmt     // StmtBlock
}

func (LambdaData) exprData() {}

// AwaitData is the payload of ExprAwait.
type AwaitData struct {
	Operand *Expr
}

func (AwaitData) exprData() {}

// NewData is the payload of ExprNew: class construction, optionally with
// explicit type arguments for generic classes.
type NewData struct {
	Class    source.StringID
	TypeArgs []*TypeExpr
	Args     []*Expr
}

func (NewData) exprData() {}

// GroupData is the payload of ExprGroup, a parenthesized expression.
type GroupData struct {
	Inner *Expr
}

func (GroupData) exprData() {}

// ListData is the payload of ExprList, a list literal.
type ListData struct {
	Elems []*Expr
}

func (ListData) exprData() {}
