package types

import (
	"fmt"

	"fortio.org/safecast"

	"tocin/internal/source"
)

// Field is one named slot of a class aggregate.
type Field struct {
	Name source.StringID
	Type TypeID
}

// Method is a named function signature attached to a class or required by
// a trait.
type Method struct {
	Name source.StringID
	Sig  TypeID // KindFunction
}

// ClassInfo describes a nominal class. The interner acts as the class
// registry for the compilation unit: the type checker fills these in and
// the IR generator reads them, neither pass owns them exclusively.
type ClassInfo struct {
	Name    source.StringID
	Fields  []Field
	Methods []Method
	// Base is the single optional base class (KindClass) — NoTypeID when
	// the class has no parent.
	Base TypeID
	// TypeParams carry the declared generic parameters; empty for
	// non-generic classes. A class with parameters is a template and must
	// be instantiated before lowering.
	TypeParams []source.StringID
}

// RegisterClass interns a nominal class type. Calling it twice with the
// same name returns the existing TypeID.
func (in *Interner) RegisterClass(name source.StringID) TypeID {
	if id, ok := in.classByName[name]; ok {
		return id
	}
	slot, err := safecast.Conv[uint32](len(in.classes))
	if err != nil {
		panic(fmt.Errorf("class info overflow: %w", err))
	}
	in.classes = append(in.classes, ClassInfo{Name: name, Base: NoTypeID})
	id := in.internRaw(Type{Kind: KindClass, Payload: slot})
	in.index[in.structuralKey(Type{Kind: KindClass, Payload: slot})] = id
	in.classByName[name] = id
	return id
}

// ClassInfo returns the mutable registry entry for a class type.
func (in *Interner) ClassInfo(id TypeID) (*ClassInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindClass {
		return nil, false
	}
	return &in.classes[t.Payload], true
}

// ClassByName resolves a class name to its TypeID.
func (in *Interner) ClassByName(name source.StringID) (TypeID, bool) {
	id, ok := in.classByName[name]
	return id, ok
}

// FindField resolves a field on a class, walking base classes. Depth is
// the number of embedded-base hops needed to reach the declaring class
// (0 = declared directly on the class).
func (in *Interner) FindField(class TypeID, name source.StringID) (Field, int, bool) {
	depth := 0
	for class != NoTypeID {
		info, ok := in.ClassInfo(class)
		if !ok {
			break
		}
		for _, f := range info.Fields {
			if f.Name == name {
				return f, depth, true
			}
		}
		class = info.Base
		depth++
	}
	return Field{}, 0, false
}

// FindMethod resolves a method on a class, walking base classes.
func (in *Interner) FindMethod(class TypeID, name source.StringID) (Method, bool) {
	for class != NoTypeID {
		info, ok := in.ClassInfo(class)
		if !ok {
			break
		}
		for _, m := range info.Methods {
			if m.Name == name {
				return m, true
			}
		}
		class = info.Base
	}
	return Method{}, false
}

// InheritsFrom reports whether class derives (directly or transitively)
// from base.
func (in *Interner) InheritsFrom(class, base TypeID) bool {
	info, ok := in.ClassInfo(class)
	for ok {
		if info.Base == base {
			return true
		}
		info, ok = in.ClassInfo(info.Base)
	}
	return false
}
