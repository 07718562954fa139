package ir

import (
	"strings"
	"testing"

	"tocin/internal/source"
	"tocin/internal/types"
)

func sampleFunc(ti *types.Interner) *Func {
	b := ti.Builtins()
	f := &Func{
		Name:   "double",
		Params: []Local{{Name: "x", Type: b.Int}},
		Result: b.Int,
		Locals: []Local{{Name: "x", Type: b.Int}},
	}
	entry := &Block{ID: 0, Name: "entry"}
	entry.Instrs = append(entry.Instrs,
		Instr{Kind: OpLoad, Dest: 1, Type: b.Int, Local: 0},
		Instr{Kind: OpConstInt, Dest: 2, Type: b.Int, Int: 2},
		Instr{Kind: OpBin, Dest: 3, Type: b.Int, BinOp: BinMul, A: 1, B: 2},
	)
	entry.Term = &Term{Kind: TermRet, Value: 3}
	f.Blocks = []*Block{entry}
	return f
}

func TestValidateAcceptsWellFormed(t *testing.T) {
	ti := types.NewInterner(source.NewInterner())
	m := &Module{Name: "test", Funcs: []*Func{sampleFunc(ti)}}
	if err := Validate(ti, m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	ti := types.NewInterner(source.NewInterner())
	f := sampleFunc(ti)
	f.Blocks[0].Term = nil
	m := &Module{Name: "test", Funcs: []*Func{f}}
	err := Validate(ti, m)
	if err == nil || !strings.Contains(err.Error(), "no terminator") {
		t.Fatalf("err = %v, want missing-terminator", err)
	}
}

func TestValidateRejectsUndefinedOperand(t *testing.T) {
	ti := types.NewInterner(source.NewInterner())
	f := sampleFunc(ti)
	f.Blocks[0].Instrs[2].B = 99
	m := &Module{Name: "test", Funcs: []*Func{f}}
	if err := Validate(ti, m); err == nil {
		t.Fatal("expected undefined-operand error")
	}
}

func TestValidateRejectsNonConcreteLocal(t *testing.T) {
	strs := source.NewInterner()
	ti := types.NewInterner(strs)
	param := ti.RegisterTypeParam(strs.Intern("T"), types.NoTypeID)
	f := sampleFunc(ti)
	f.Locals = append(f.Locals, Local{Name: "t", Type: param})
	m := &Module{Name: "test", Funcs: []*Func{f}}
	err := Validate(ti, m)
	if err == nil || !strings.Contains(err.Error(), "non-concrete") {
		t.Fatalf("err = %v, want non-concrete rejection", err)
	}
}

func TestValidateRejectsBranchOutOfRange(t *testing.T) {
	ti := types.NewInterner(source.NewInterner())
	f := sampleFunc(ti)
	f.Blocks[0].Term = &Term{Kind: TermBr, Target: 7}
	m := &Module{Name: "test", Funcs: []*Func{f}}
	if err := Validate(ti, m); err == nil {
		t.Fatal("expected out-of-range branch error")
	}
}

func TestPrintIsStable(t *testing.T) {
	ti := types.NewInterner(source.NewInterner())
	m := &Module{Name: "test", Funcs: []*Func{sampleFunc(ti)}}
	got := Print(ti, m)
	for _, want := range []string{
		"module test",
		"func @double(x: int) -> int {",
		"%1 = load slot0",
		"%3 = mul %1, %2",
		"ret %3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("printout missing %q:\n%s", want, got)
		}
	}
	if got != Print(ti, m) {
		t.Error("printing twice must give identical output")
	}
}
