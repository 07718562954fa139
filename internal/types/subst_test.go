package types

import "testing"

func TestSubstituteTypeParam(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	tName := strs.Intern("T")
	tp := in.RegisterTypeParam(tName, NoTypeID)

	fn := in.RegisterFn([]TypeID{tp, b.Int}, tp)
	got := in.Substitute(fn, Bindings{tName: b.String})
	want := in.RegisterFn([]TypeID{b.String, b.Int}, b.String)
	if got != want {
		t.Fatalf("Substitute = %s, want %s", in.Format(got), in.Format(want))
	}
}

func TestSubstituteLeavesUnboundParams(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	tp := in.RegisterTypeParam(strs.Intern("T"), NoTypeID)
	up := in.RegisterTypeParam(strs.Intern("U"), NoTypeID)

	fn := in.RegisterFn([]TypeID{tp}, up)
	got := in.Substitute(fn, Bindings{strs.Intern("T"): b.Int})
	info, ok := in.FnInfo(got)
	if !ok {
		t.Fatal("expected function type")
	}
	if info.Params[0] != b.Int {
		t.Errorf("bound param not substituted: %s", in.Format(info.Params[0]))
	}
	if info.Result != up {
		t.Errorf("unbound param must stay free: %s", in.Format(info.Result))
	}
}

func TestSubstituteNestedGeneric(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	tName := strs.Intern("T")
	tp := in.RegisterTypeParam(tName, NoTypeID)
	box := strs.Intern("Box")

	nested := in.RegisterGeneric(box, []TypeID{in.RegisterGeneric(box, []TypeID{tp})})
	got := in.Substitute(nested, Bindings{tName: b.Int})
	want := in.RegisterGeneric(box, []TypeID{in.RegisterGeneric(box, []TypeID{b.Int})})
	if got != want {
		t.Fatalf("Substitute = %s, want %s", in.Format(got), in.Format(want))
	}
}

func TestResolveIdempotent(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	inner := in.RegisterUnion([]TypeID{b.Int, b.Float})
	outer := in.RegisterUnion([]TypeID{inner, b.Int, b.String})

	once := in.Resolve(outer)
	twice := in.Resolve(once)
	if once != twice {
		t.Fatalf("Resolve not idempotent: %s vs %s", in.Format(once), in.Format(twice))
	}
	info, ok := in.UnionInfo(once)
	if !ok {
		t.Fatalf("resolved form is not a union: %s", in.Format(once))
	}
	if len(info.Members) != 3 {
		t.Fatalf("flattened members = %v, want 3 distinct", info.Members)
	}
}

func TestResolveCollapsesSingletonUnion(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	u := in.RegisterUnion([]TypeID{b.Int, b.Int})
	if got := in.Resolve(u); got != b.Int {
		t.Fatalf("Resolve(int|int) = %s, want int", in.Format(got))
	}
}

func TestInternStructuralSharing(t *testing.T) {
	in, _ := newTestInterner()
	b := in.Builtins()
	f1 := in.RegisterFn([]TypeID{b.Int}, b.Bool)
	f2 := in.RegisterFn([]TypeID{b.Int}, b.Bool)
	if f1 != f2 {
		t.Fatal("structurally equal function types must intern to one ID")
	}
	o1 := in.Optional(b.Int)
	o2 := in.Optional(b.Int)
	if o1 != o2 {
		t.Fatal("structurally equal optionals must intern to one ID")
	}
}

func TestMangleDeterministic(t *testing.T) {
	in, strs := newTestInterner()
	b := in.Builtins()
	_ = strs
	a := in.Mangle("pair", []TypeID{b.Int, b.Float})
	bb := in.Mangle("pair", []TypeID{b.Int, b.Float})
	if a != bb || a == "pair" {
		t.Fatalf("Mangle unstable or empty: %q vs %q", a, bb)
	}
}
