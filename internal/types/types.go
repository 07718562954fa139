package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindUnit is the "no value" type (None). Functions without a declared
	// return type produce it.
	KindUnit
	KindBool
	KindInt
	KindFloat
	KindString
	// KindClass is a nominal class type; its payload indexes ClassInfo.
	KindClass
	// KindFunction carries parameter and result types in FnInfo.
	KindFunction
	// KindUnion is a structural union of member types.
	KindUnion
	// KindOptional wraps Elem; None is assignable to any optional.
	KindOptional
	// KindList is the builtin growable list; Elem is the element type.
	KindList
	// KindTrait names a set of required method signatures.
	KindTrait
	// KindGeneric is an uninstantiated generic reference (Name<Args...>).
	// It must never survive into IR generation.
	KindGeneric
	// KindTypeParam is a free type parameter inside a generic declaration.
	// Like KindGeneric it exists only before monomorphization.
	KindTypeParam
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "None"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindClass:
		return "class"
	case KindFunction:
		return "function"
	case KindUnion:
		return "union"
	case KindOptional:
		return "optional"
	case KindList:
		return "list"
	case KindTrait:
		return "trait"
	case KindGeneric:
		return "generic"
	case KindTypeParam:
		return "type-param"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor. Composite kinds store an index into the
// interner's side tables via Payload; Optional uses Elem directly.
type Type struct {
	Kind    Kind
	Elem    TypeID // optional inner type
	Payload uint32 // side-table slot for class/function/union/trait/generic/param
}

// Concrete reports whether the kind may appear in generated IR.
// Generic references and free type parameters must be monomorphized away.
func (t Type) Concrete() bool {
	return t.Kind != KindGeneric && t.Kind != KindTypeParam && t.Kind != KindInvalid
}
