package types

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"tocin/internal/source"
)

// Builtins stores TypeIDs for the primitive types every compilation needs.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
}

// Interner owns every type of one compilation and hands out stable
// TypeIDs. Interning is structural: asking for the same descriptor twice
// returns the same ID, so interned primitives compare by identity.
//
// One Interner per compilation; it is not safe for concurrent use and is
// never shared between concurrently compiled modules.
type Interner struct {
	strings  *source.Interner
	types    []Type
	index    map[string]TypeID
	builtins Builtins

	fns      []FnInfo
	unions   []UnionInfo
	classes  []ClassInfo
	traits   []TraitInfo
	generics []GenericInfo
	params   []ParamInfo

	classByName map[source.StringID]TypeID
	traitByName map[source.StringID]TypeID
	paramByName map[source.StringID]TypeID
}

// NewInterner constructs an interner seeded with the built-in primitives.
func NewInterner(strs *source.Interner) *Interner {
	if strs == nil {
		strs = source.NewInterner()
	}
	in := &Interner{
		strings:     strs,
		index:       make(map[string]TypeID, 64),
		classByName: make(map[source.StringID]TypeID),
		traitByName: make(map[source.StringID]TypeID),
		paramByName: make(map[source.StringID]TypeID),
	}
	// Slot 0 of every side table is a reserved invalid sentinel.
	in.fns = append(in.fns, FnInfo{})
	in.unions = append(in.unions, UnionInfo{})
	in.classes = append(in.classes, ClassInfo{})
	in.traits = append(in.traits, TraitInfo{})
	in.generics = append(in.generics, GenericInfo{})
	in.params = append(in.params, ParamInfo{})

	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.intern(Type{Kind: KindBool})
	in.builtins.Int = in.intern(Type{Kind: KindInt})
	in.builtins.Float = in.intern(Type{Kind: KindFloat})
	in.builtins.String = in.intern(Type{Kind: KindString})
	return in
}

// Builtins returns the primitive TypeIDs.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Strings exposes the string interner types were registered with.
func (in *Interner) Strings() *source.Interner {
	return in.strings
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is out of range.
func (in *Interner) MustLookup(id TypeID) Type {
	t, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("types: invalid TypeID %d", id))
	}
	return t
}

// Kind is a shorthand for MustLookup(id).Kind, tolerating NoTypeID.
func (in *Interner) Kind(id TypeID) Kind {
	t, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return t.Kind
}

// Optional interns Elem? — the optional wrapper around inner.
func (in *Interner) Optional(inner TypeID) TypeID {
	return in.intern(Type{Kind: KindOptional, Elem: inner})
}

// List interns list<elem>.
func (in *Interner) List(elem TypeID) TypeID {
	return in.intern(Type{Kind: KindList, Elem: elem})
}

func (in *Interner) intern(t Type) TypeID {
	key := in.structuralKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

func (in *Interner) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("type count overflow: %w", err))
	}
	in.types = append(in.types, t)
	return TypeID(n)
}

// structuralKey builds a dedup key covering the payload content, so that
// structurally equal composites intern to the same ID.
func (in *Interner) structuralKey(t Type) string {
	var sb strings.Builder
	in.writeKey(&sb, t)
	return sb.String()
}

func (in *Interner) writeKey(sb *strings.Builder, t Type) {
	fmt.Fprintf(sb, "%d:", t.Kind)
	switch t.Kind {
	case KindOptional, KindList:
		fmt.Fprintf(sb, "%d", t.Elem)
	case KindFunction:
		info := in.fns[t.Payload]
		for _, p := range info.Params {
			fmt.Fprintf(sb, "%d,", p)
		}
		fmt.Fprintf(sb, "->%d", info.Result)
	case KindUnion:
		info := in.unions[t.Payload]
		for _, m := range info.Members {
			fmt.Fprintf(sb, "%d|", m)
		}
	case KindClass:
		fmt.Fprintf(sb, "c%d", in.classes[t.Payload].Name)
	case KindTrait:
		fmt.Fprintf(sb, "t%d", in.traits[t.Payload].Name)
	case KindGeneric:
		info := in.generics[t.Payload]
		fmt.Fprintf(sb, "g%d<", info.Name)
		for _, a := range info.Args {
			fmt.Fprintf(sb, "%d,", a)
		}
		sb.WriteByte('>')
	case KindTypeParam:
		fmt.Fprintf(sb, "p%d", in.params[t.Payload].Name)
	}
}
