package sema

import (
	"testing"

	"tocin/internal/diag"
	"tocin/internal/source"
)

func newTracker(t *testing.T) (*Ownership, *diag.Bag, *source.Interner) {
	t.Helper()
	strs := source.NewInterner()
	bag := diag.NewBag(50)
	return NewOwnership(strs, diag.BagReporter{Bag: bag}), bag, strs
}

func TestBorrowExclusivity(t *testing.T) {
	o, bag, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)

	if !o.BorrowMut(x, sp) {
		t.Fatal("first &mut must succeed")
	}
	if o.Borrow(x, sp) {
		t.Error("&x during &mut must fail")
	}
	if o.BorrowMut(x, sp) {
		t.Error("second &mut must fail")
	}
	if !bag.HasErrors() {
		t.Error("conflicts must be reported")
	}
}

func TestBorrowReleasedOnScopeExit(t *testing.T) {
	o, _, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)

	o.Enter()
	o.BorrowMut(x, sp)
	o.Exit()

	if !o.Borrow(x, sp) {
		t.Error("&x after the mutable borrow's scope ended must succeed")
	}
	o.Enter()
	o.Borrow(x, sp)
	o.Exit()
	// Two shared borrows were taken; one ended with its scope.
	if _, borrow, _ := o.State(x); borrow != ImmutableBorrowed {
		t.Errorf("state = %v, want still immutably borrowed (outer borrow live)", borrow)
	}
}

func TestSharedBorrowCounting(t *testing.T) {
	o, bag, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)

	if !o.Borrow(x, sp) || !o.Borrow(x, sp) {
		t.Fatal("multiple shared borrows must coexist")
	}
	if o.BorrowMut(x, sp) {
		t.Error("&mut during shared borrows must fail")
	}
	if bag.Len() != 1 {
		t.Errorf("diagnostics = %d, want 1", bag.Len())
	}
}

func TestMoveThenUse(t *testing.T) {
	o, bag, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)

	if !o.Move(x, sp) {
		t.Fatal("first move must succeed")
	}
	if o.CheckUse(x, sp) {
		t.Error("use after move must fail")
	}
	if o.Move(x, sp) {
		t.Error("double move must fail")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.InvalidOwnershipUseMoved {
			found = true
		}
	}
	if !found {
		t.Error("expected use-after-move diagnostic")
	}
}

func TestMoveOfBorrowedRejected(t *testing.T) {
	o, _, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)
	o.Borrow(x, sp)
	if o.Move(x, sp) {
		t.Error("moving a borrowed variable must fail")
	}
}

func TestReassignmentResetsState(t *testing.T) {
	o, _, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)
	o.Move(x, sp)

	if !o.Assign(x, sp) {
		t.Fatal("reassignment after move must succeed")
	}
	if !o.CheckUse(x, sp) {
		t.Error("use after reassignment must succeed")
	}
	if moved, _, _ := o.State(x); moved {
		t.Error("assign must clear the moved flag")
	}
}

func TestReassignmentAllowedWhileBorrowed(t *testing.T) {
	o, bag, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)
	o.Borrow(x, sp)

	if !o.Assign(x, sp) {
		t.Fatal("reassignment must succeed whatever the prior state")
	}
	if bag.HasErrors() {
		t.Errorf("reassignment must not report: %+v", bag.Items())
	}
	if moved, borrow, _ := o.State(x); moved || borrow != NotBorrowed {
		t.Errorf("state after assign = (moved=%t, %v), want fresh ownership", moved, borrow)
	}
}

func TestLoopMoveSnapshot(t *testing.T) {
	o, bag, strs := newTracker(t)
	x := strs.Intern("x")
	sp := source.Span{}
	o.Declare(x)

	before := o.OwnedVars()
	o.Enter()
	o.Move(x, sp)
	o.Exit()
	o.ReportLoopMoves(before)

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.InvalidOwnershipMove {
			found = true
		}
	}
	if !found {
		t.Error("move of a snapshot variable must be reported")
	}
}

func TestScopeExitDiscardsBindings(t *testing.T) {
	o, _, strs := newTracker(t)
	inner := strs.Intern("inner")
	o.Enter()
	o.Declare(inner)
	o.Exit()
	if _, _, ok := o.State(inner); ok {
		t.Error("binding declared in exited scope must be gone")
	}
}
