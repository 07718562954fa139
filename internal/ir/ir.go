// Package ir defines the mid-level program representation the type
// checker lowers into and the LLVM backend reads: functions of basic
// blocks over virtual registers, with locals spilled to named stack
// slots. Every block ends in exactly one terminator; Validate enforces
// the structural invariants before emission.
package ir

import "tocin/internal/types"

// Value is a virtual register inside one function. Zero is reserved.
type Value uint32

// NoValue marks the absence of a register (void results, bare returns).
const NoValue Value = 0

// LocalID indexes a function's stack slots. Parameters occupy the first
// slots in declaration order.
type LocalID uint32

// BlockID indexes a function's basic blocks in creation order.
type BlockID uint32

// Local is one stack slot.
type Local struct {
	Name string
	Type types.TypeID
}

// BinOp enumerates two-operand operations. Integer and floating variants
// are selected by the instruction's Type at emission time.
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinLt
	BinLe
	BinGt
	BinGe
	BinEq
	BinNe
	BinAnd
	BinOr
)

func (op BinOp) String() string {
	switch op {
	case BinAdd:
		return "add"
	case BinSub:
		return "sub"
	case BinMul:
		return "mul"
	case BinDiv:
		return "div"
	case BinMod:
		return "mod"
	case BinLt:
		return "lt"
	case BinLe:
		return "le"
	case BinGt:
		return "gt"
	case BinGe:
		return "ge"
	case BinEq:
		return "eq"
	case BinNe:
		return "ne"
	case BinAnd:
		return "and"
	case BinOr:
		return "or"
	}
	return "?"
}

// IsCompare reports whether the operation yields a bool from two
// same-typed operands.
func (op BinOp) IsCompare() bool {
	return op >= BinLt && op <= BinNe
}

// UnOp enumerates one-operand operations.
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnNot
)

func (op UnOp) String() string {
	if op == UnNeg {
		return "neg"
	}
	return "not"
}

// InstrKind tags an instruction.
type InstrKind uint8

const (
	// Constants materialize a literal into Dest.
	OpConstInt InstrKind = iota
	OpConstFloat
	OpConstBool
	OpConstString
	OpConstUnit
	// OpLoad reads a stack slot; OpStore writes one.
	OpLoad
	OpStore
	// OpBin and OpUn are register arithmetic.
	OpBin
	OpUn
	// OpIntToFloat is the only implicit numeric conversion.
	OpIntToFloat
	// OpCall invokes Symbol with Args; Dest is NoValue for void calls.
	OpCall
	// OpFuncAddr materializes a function's address; OpCallInd calls
	// through the function value in A.
	OpFuncAddr
	OpCallInd
	// OpNew heap-allocates a class aggregate of type Type.
	OpNew
	// OpGetField and OpSetField access slot Field of the aggregate in A.
	// Field indexes the flattened base-first field layout.
	OpGetField
	OpSetField
	// List operations over the builtin list aggregate.
	OpListNew
	OpListGet
	OpListSet
	OpListLen
	// Union and optional values are boxed as a (tag, payload) pair; the
	// tag is the member's TypeID, so tags stay consistent across
	// different union types.
	OpUnionNew
	OpUnionTag
	OpUnionPayload
)

func (k InstrKind) String() string {
	switch k {
	case OpConstInt:
		return "const.int"
	case OpConstFloat:
		return "const.float"
	case OpConstBool:
		return "const.bool"
	case OpConstString:
		return "const.string"
	case OpConstUnit:
		return "const.unit"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpBin:
		return "bin"
	case OpUn:
		return "un"
	case OpIntToFloat:
		return "itof"
	case OpCall:
		return "call"
	case OpFuncAddr:
		return "funcaddr"
	case OpCallInd:
		return "call.ind"
	case OpNew:
		return "new"
	case OpGetField:
		return "getfield"
	case OpSetField:
		return "setfield"
	case OpListNew:
		return "list.new"
	case OpListGet:
		return "list.get"
	case OpListSet:
		return "list.set"
	case OpListLen:
		return "list.len"
	case OpUnionNew:
		return "union.new"
	case OpUnionTag:
		return "union.tag"
	case OpUnionPayload:
		return "union.payload"
	}
	return "op(?)"
}

// Instr is one non-terminating instruction. Operand fields are
// kind-specific; unused ones stay zero.
type Instr struct {
	Kind InstrKind
	Dest Value
	// Type is the result type for value-producing kinds, the operand
	// type for stores and comparisons.
	Type types.TypeID

	A, B, C Value // generic operands

	Int    int64
	Float  float64
	Bool   bool
	Str    string
	Symbol string  // OpCall target
	Args   []Value // OpCall arguments
	Local  LocalID // OpLoad / OpStore slot
	Field  int     // OpGetField / OpSetField index
	BinOp  BinOp
	UnOp   UnOp
}

// TermKind tags a block terminator.
type TermKind uint8

const (
	TermRet TermKind = iota
	TermBr
	TermCondBr
	TermUnreachable
)

func (k TermKind) String() string {
	switch k {
	case TermRet:
		return "ret"
	case TermBr:
		return "br"
	case TermCondBr:
		return "condbr"
	case TermUnreachable:
		return "unreachable"
	}
	return "term(?)"
}

// Term ends a basic block.
type Term struct {
	Kind TermKind
	// Value is the returned register for TermRet; NoValue returns void.
	Value Value
	// Cond selects between Then and Else for TermCondBr.
	Cond Value
	Then BlockID
	Else BlockID
	// Target is the TermBr destination.
	Target BlockID
}

// Block is one basic block. Term is nil only while the block is under
// construction; a finished function has no nil terminators.
type Block struct {
	ID     BlockID
	Name   string
	Instrs []Instr
	Term   *Term
}

// Func is one lowered function.
type Func struct {
	// Name is the link symbol: the source name for plain functions, the
	// mangled instance name for monomorphized generics and methods.
	Name string
	// Params are the first len(Params) locals.
	Params []Local
	Result types.TypeID
	Locals []Local
	Blocks []*Block
}

// Entry returns the entry block.
func (f *Func) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// Extern declares a runtime-provided function.
type Extern struct {
	Symbol string
	Params []types.TypeID
	Result types.TypeID
}

// Module is one compiled translation unit.
type Module struct {
	Name string
	// Classes lists every class type the module instantiates, in
	// first-use order; the backend emits one struct per entry.
	Classes []types.TypeID
	Externs []Extern
	Funcs   []*Func
}
