package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"tocin/internal/source"
)

// GenericInfo is an uninstantiated generic type reference: the base name
// plus the (possibly still parametric) type arguments.
type GenericInfo struct {
	Name source.StringID
	Args []TypeID
}

// ParamInfo names a free type parameter.
type ParamInfo struct {
	Name source.StringID
	// Bound is an optional trait constraint the concrete argument must
	// satisfy (NoTypeID when unconstrained).
	Bound TypeID
}

// TraitInfo lists the methods a type must provide to satisfy the trait.
type TraitInfo struct {
	Name     source.StringID
	Required []Method
}

// RegisterGeneric interns Name<Args...>. Equal (name, args) pairs share
// one TypeID.
func (in *Interner) RegisterGeneric(name source.StringID, args []TypeID) TypeID {
	slot, err := safecast.Conv[uint32](len(in.generics))
	if err != nil {
		panic(fmt.Errorf("generic info overflow: %w", err))
	}
	in.generics = append(in.generics, GenericInfo{Name: name, Args: slices.Clone(args)})
	t := Type{Kind: KindGeneric, Payload: slot}
	key := in.structuralKey(t)
	if id, ok := in.index[key]; ok {
		in.generics = in.generics[:slot]
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// GenericInfo retrieves generic reference metadata.
func (in *Interner) GenericInfo(id TypeID) (*GenericInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindGeneric {
		return nil, false
	}
	return &in.generics[t.Payload], true
}

// RegisterTypeParam interns a named type parameter. Parameters are
// deduplicated by name within one compilation.
func (in *Interner) RegisterTypeParam(name source.StringID, bound TypeID) TypeID {
	if id, ok := in.paramByName[name]; ok {
		// Keep the strongest bound seen for the name.
		if bound != NoTypeID {
			in.params[in.types[id].Payload].Bound = bound
		}
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.params))
	if err != nil {
		panic(fmt.Errorf("param info overflow: %w", err))
	}
	in.params = append(in.params, ParamInfo{Name: name, Bound: bound})
	id := in.internRaw(Type{Kind: KindTypeParam, Payload: slot})
	in.index[in.structuralKey(Type{Kind: KindTypeParam, Payload: slot})] = id
	in.paramByName[name] = id
	return id
}

// ParamInfo retrieves type-parameter metadata.
func (in *Interner) ParamInfo(id TypeID) (*ParamInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTypeParam {
		return nil, false
	}
	return &in.params[t.Payload], true
}

// RegisterTrait interns a nominal trait type.
func (in *Interner) RegisterTrait(name source.StringID) TypeID {
	if id, ok := in.traitByName[name]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.traits))
	if err != nil {
		panic(fmt.Errorf("trait info overflow: %w", err))
	}
	in.traits = append(in.traits, TraitInfo{Name: name})
	id := in.internRaw(Type{Kind: KindTrait, Payload: slot})
	in.index[in.structuralKey(Type{Kind: KindTrait, Payload: slot})] = id
	in.traitByName[name] = id
	return id
}

// TraitInfo returns the mutable trait entry.
func (in *Interner) TraitInfo(id TypeID) (*TraitInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTrait {
		return nil, false
	}
	return &in.traits[t.Payload], true
}

// TraitByName resolves a trait name to its TypeID.
func (in *Interner) TraitByName(name source.StringID) (TypeID, bool) {
	id, ok := in.traitByName[name]
	return id, ok
}

// Satisfies reports whether t provides every method the trait requires.
// Only class types carry method sets; everything else satisfies only the
// empty trait.
func (in *Interner) Satisfies(t, trait TypeID) bool {
	info, ok := in.TraitInfo(trait)
	if !ok {
		return false
	}
	for _, req := range info.Required {
		m, found := in.FindMethod(t, req.Name)
		if !found || m.Sig != req.Sig {
			return false
		}
	}
	return true
}
