package types

import (
	"testing"

	"tocin/internal/source"
)

func newTestInterner() (*Interner, *source.Interner) {
	strs := source.NewInterner()
	return NewInterner(strs), strs
}

func TestAssignableReflexive(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	cls := in.RegisterClass(strs.Intern("Point"))
	fn := in.RegisterFn([]TypeID{b.Int}, b.Bool)
	union := in.RegisterUnion([]TypeID{b.Int, b.String})
	opt := in.Optional(b.Float)

	for _, id := range []TypeID{b.Unit, b.Bool, b.Int, b.Float, b.String, cls, fn, union, opt} {
		if !in.Assignable(id, id) {
			t.Errorf("Assignable(%s, %s) = false, want reflexive true", in.Format(id), in.Format(id))
		}
	}
}

func TestNumericWidening(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	if !in.Assignable(b.Int, b.Float) {
		t.Error("int must widen to float")
	}
	if in.Assignable(b.Float, b.Int) {
		t.Error("float must not narrow to int implicitly")
	}
	if in.Assignable(b.String, b.Float) {
		t.Error("string is not numeric")
	}
}

func TestUnionAssignabilityLaws(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	ab := in.RegisterUnion([]TypeID{b.Int, b.Float})

	// Union source: assignable iff every member is.
	if !in.Assignable(ab, b.Float) {
		t.Error("int|float -> float: both members widen, must hold")
	}
	if in.Assignable(ab, b.Int) {
		t.Error("int|float -> int: float member fails, must not hold")
	}
	// Union target: assignable iff any member accepts.
	if !in.Assignable(b.Int, ab) {
		t.Error("int -> int|float must hold")
	}
	if in.Assignable(b.String, ab) {
		t.Error("string -> int|float must not hold")
	}
}

func TestOptionalAssignability(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	opt := in.Optional(b.Int)
	if !in.Assignable(b.Int, opt) {
		t.Error("int -> int? must hold")
	}
	if !in.Assignable(b.Unit, opt) {
		t.Error("None -> int? must hold")
	}
	if in.Assignable(b.String, opt) {
		t.Error("string -> int? must not hold")
	}
}

func TestClassInheritanceAssignability(t *testing.T) {
	in, strs := newTestInterner()
	base := in.RegisterClass(strs.Intern("A"))
	derived := in.RegisterClass(strs.Intern("B"))
	info, _ := in.ClassInfo(derived)
	info.Base = base

	if !in.Assignable(derived, base) {
		t.Error("derived -> base must hold")
	}
	if in.Assignable(base, derived) {
		t.Error("base -> derived must not hold")
	}
}

func TestTraitSatisfaction(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	area := strs.Intern("area")
	sig := in.RegisterFn(nil, b.Float)

	trait := in.RegisterTrait(strs.Intern("Shape"))
	tinfo, _ := in.TraitInfo(trait)
	tinfo.Required = []Method{{Name: area, Sig: sig}}

	circle := in.RegisterClass(strs.Intern("Circle"))
	cinfo, _ := in.ClassInfo(circle)
	cinfo.Methods = []Method{{Name: area, Sig: sig}}

	square := in.RegisterClass(strs.Intern("Square"))

	if !in.Assignable(circle, trait) {
		t.Error("Circle provides area() and must satisfy Shape")
	}
	if in.Assignable(square, trait) {
		t.Error("Square lacks area() and must not satisfy Shape")
	}
}

func TestErrorTypeDoesNotCascade(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	if !in.Assignable(b.Invalid, b.Int) || !in.Assignable(b.Int, b.Invalid) {
		t.Error("the error type must be assignable in both directions")
	}
}
