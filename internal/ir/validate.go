package ir

import (
	"fmt"

	"tocin/internal/types"
)

// Validate checks the structural invariants of a lowered module:
//
//   - every block ends in exactly one terminator;
//   - branch targets stay inside their function;
//   - register operands are defined before use along the block order;
//   - no local, parameter, or result carries a generic or invalid type.
//
// A violation is a compiler bug, so Validate returns an error naming the
// first one rather than a user diagnostic.
func Validate(ti *types.Interner, m *Module) error {
	for _, f := range m.Funcs {
		if err := validateFunc(ti, f); err != nil {
			return fmt.Errorf("func %s: %w", f.Name, err)
		}
	}
	return nil
}

func validateFunc(ti *types.Interner, f *Func) error {
	if len(f.Blocks) == 0 {
		return fmt.Errorf("no blocks")
	}
	for _, l := range f.Locals {
		if err := concreteType(ti, l.Type); err != nil {
			return fmt.Errorf("local %s: %w", l.Name, err)
		}
	}
	if err := concreteType(ti, f.Result); err != nil {
		return fmt.Errorf("result: %w", err)
	}

	defined := map[Value]bool{}
	nblocks := BlockID(len(f.Blocks))
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fmt.Errorf("block %s has no terminator", b.Name)
		}
		for i := range b.Instrs {
			in := &b.Instrs[i]
			for _, op := range []Value{in.A, in.B, in.C} {
				if op != NoValue && !defined[op] {
					return fmt.Errorf("block %s: %s uses undefined %%%d", b.Name, in.Kind, op)
				}
			}
			for _, op := range in.Args {
				if op != NoValue && !defined[op] {
					return fmt.Errorf("block %s: %s uses undefined arg %%%d", b.Name, in.Kind, op)
				}
			}
			if in.Kind == OpLoad || in.Kind == OpStore {
				if int(in.Local) >= len(f.Locals) {
					return fmt.Errorf("block %s: slot %d out of range", b.Name, in.Local)
				}
			}
			if in.Dest != NoValue {
				if defined[in.Dest] {
					return fmt.Errorf("block %s: %%%d defined twice", b.Name, in.Dest)
				}
				defined[in.Dest] = true
			}
		}
		switch b.Term.Kind {
		case TermRet:
			if b.Term.Value != NoValue && !defined[b.Term.Value] {
				return fmt.Errorf("block %s: ret of undefined %%%d", b.Name, b.Term.Value)
			}
		case TermBr:
			if b.Term.Target >= nblocks {
				return fmt.Errorf("block %s: branch target %d out of range", b.Name, b.Term.Target)
			}
		case TermCondBr:
			if b.Term.Cond == NoValue || !defined[b.Term.Cond] {
				return fmt.Errorf("block %s: condbr on undefined condition", b.Name)
			}
			if b.Term.Then >= nblocks || b.Term.Else >= nblocks {
				return fmt.Errorf("block %s: condbr target out of range", b.Name)
			}
		}
	}
	return nil
}

// concreteType rejects types that must not survive monomorphization.
func concreteType(ti *types.Interner, id types.TypeID) error {
	if id == types.NoTypeID {
		return fmt.Errorf("missing type")
	}
	t, ok := ti.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown type %d", id)
	}
	if !t.Concrete() {
		return fmt.Errorf("non-concrete type %s", ti.Format(id))
	}
	return nil
}
