package sema

import (
	"fmt"

	"tocin/internal/diag"
	"tocin/internal/source"
)

// BorrowState tracks the borrow half of a variable's ownership state.
type BorrowState uint8

const (
	NotBorrowed BorrowState = iota
	ImmutableBorrowed
	MutableBorrowed
)

func (s BorrowState) String() string {
	switch s {
	case NotBorrowed:
		return "not borrowed"
	case ImmutableBorrowed:
		return "immutably borrowed"
	case MutableBorrowed:
		return "mutably borrowed"
	}
	return "unknown"
}

// varState is the per-variable ownership state machine:
// Owned -> ImmutableBorrowed(n) | MutableBorrowed | Moved, with
// reassignment resetting to Owned.
type varState struct {
	moved       bool
	borrow      BorrowState
	borrowCount int         // shared borrows outstanding
	movedAt     source.Span // where the move happened, for notes
}

// borrowRecord remembers a borrow taken inside a scope so it can be
// released when that scope exits.
type borrowRecord struct {
	name    source.StringID
	mutable bool
}

// ownScope is one lexical frame of the tracker.
type ownScope struct {
	vars    map[source.StringID]*varState
	borrows []borrowRecord
}

// Ownership tracks move/borrow state per variable across nested scopes.
// One instance per compilation; errors are reported and checking
// continues, so a single pass can surface several violations.
type Ownership struct {
	scopes   []*ownScope
	strings  *source.Interner
	reporter diag.Reporter
}

func NewOwnership(strings *source.Interner, reporter diag.Reporter) *Ownership {
	o := &Ownership{strings: strings, reporter: reporter}
	o.Enter()
	return o
}

// Enter pushes a new lexical scope.
func (o *Ownership) Enter() {
	o.scopes = append(o.scopes, &ownScope{vars: make(map[source.StringID]*varState)})
}

// Exit pops the current scope: its declarations are discarded entirely
// and every borrow it took is released.
func (o *Ownership) Exit() {
	if len(o.scopes) <= 1 {
		return
	}
	top := o.scopes[len(o.scopes)-1]
	o.scopes = o.scopes[:len(o.scopes)-1]
	for _, rec := range top.borrows {
		st := o.find(rec.name)
		if st == nil {
			continue // borrowed variable was itself declared in the dead scope
		}
		if rec.mutable {
			st.borrow = NotBorrowed
		} else if st.borrowCount > 0 {
			st.borrowCount--
			if st.borrowCount == 0 {
				st.borrow = NotBorrowed
			}
		}
	}
}

// Declare registers a fresh owned variable in the current scope.
func (o *Ownership) Declare(name source.StringID) {
	top := o.scopes[len(o.scopes)-1]
	top.vars[name] = &varState{}
}

func (o *Ownership) find(name source.StringID) *varState {
	for i := len(o.scopes) - 1; i >= 0; i-- {
		if st, ok := o.scopes[i].vars[name]; ok {
			return st
		}
	}
	return nil
}

func (o *Ownership) nameOf(name source.StringID) string {
	s, _ := o.strings.Lookup(name)
	return s
}

// CheckUse validates a plain read. Reads of moved variables are the
// classic use-after-move error.
func (o *Ownership) CheckUse(name source.StringID, sp source.Span) bool {
	st := o.find(name)
	if st == nil {
		return true // undeclared: the type checker reports that separately
	}
	if st.moved {
		o.reporter.Report(diag.InvalidOwnershipUseMoved, diag.SevError, sp,
			fmt.Sprintf("use of moved variable '%s'", o.nameOf(name)),
			[]diag.Note{{Span: st.movedAt, Msg: "value moved here"}})
		return false
	}
	return true
}

// Borrow takes a shared borrow: allowed unless the variable is mutably
// borrowed or moved.
func (o *Ownership) Borrow(name source.StringID, sp source.Span) bool {
	st := o.find(name)
	if st == nil {
		return true
	}
	if st.moved {
		o.reporter.Report(diag.InvalidOwnershipUseMoved, diag.SevError, sp,
			fmt.Sprintf("cannot borrow moved variable '%s'", o.nameOf(name)),
			[]diag.Note{{Span: st.movedAt, Msg: "value moved here"}})
		return false
	}
	if st.borrow == MutableBorrowed {
		diag.Errorf(o.reporter, diag.InvalidOwnershipBorrow, sp,
			fmt.Sprintf("cannot borrow '%s': already mutably borrowed", o.nameOf(name)))
		return false
	}
	st.borrow = ImmutableBorrowed
	st.borrowCount++
	top := o.scopes[len(o.scopes)-1]
	top.borrows = append(top.borrows, borrowRecord{name: name})
	return true
}

// BorrowMut takes the exclusive borrow: any outstanding borrow or a move
// rejects it.
func (o *Ownership) BorrowMut(name source.StringID, sp source.Span) bool {
	st := o.find(name)
	if st == nil {
		return true
	}
	if st.moved {
		o.reporter.Report(diag.InvalidOwnershipUseMoved, diag.SevError, sp,
			fmt.Sprintf("cannot borrow moved variable '%s'", o.nameOf(name)),
			[]diag.Note{{Span: st.movedAt, Msg: "value moved here"}})
		return false
	}
	if st.borrow != NotBorrowed {
		diag.Errorf(o.reporter, diag.InvalidOwnershipBorrow, sp,
			fmt.Sprintf("cannot mutably borrow '%s': %s", o.nameOf(name), st.borrow))
		return false
	}
	st.borrow = MutableBorrowed
	top := o.scopes[len(o.scopes)-1]
	top.borrows = append(top.borrows, borrowRecord{name: name, mutable: true})
	return true
}

// Move transfers ownership out of the variable. Borrowed or already
// moved variables reject the transfer.
func (o *Ownership) Move(name source.StringID, sp source.Span) bool {
	st := o.find(name)
	if st == nil {
		return true
	}
	if st.moved {
		o.reporter.Report(diag.InvalidOwnershipMove, diag.SevError, sp,
			fmt.Sprintf("double move of variable '%s'", o.nameOf(name)),
			[]diag.Note{{Span: st.movedAt, Msg: "first moved here"}})
		return false
	}
	if st.borrow != NotBorrowed {
		diag.Errorf(o.reporter, diag.InvalidOwnershipMove, sp,
			fmt.Sprintf("cannot move '%s' while %s", o.nameOf(name), st.borrow))
		return false
	}
	st.moved = true
	st.movedAt = sp
	return true
}

// Assign records a write to the variable. Reassignment is always
// allowed and resets the state to Owned: a new value means new
// ownership, whatever came before.
func (o *Ownership) Assign(name source.StringID, sp source.Span) bool {
	st := o.find(name)
	if st == nil {
		return true
	}
	st.moved = false
	st.borrow = NotBorrowed
	st.borrowCount = 0
	return true
}

// OwnedVars lists the currently visible variables that are not moved.
// The loop checker snapshots this before a body and asks afterwards
// which of them the body moved.
func (o *Ownership) OwnedVars() []source.StringID {
	var names []source.StringID
	seen := make(map[source.StringID]bool)
	for i := len(o.scopes) - 1; i >= 0; i-- {
		for name, st := range o.scopes[i].vars {
			if seen[name] {
				continue // shadowed by an inner scope
			}
			seen[name] = true
			if !st.moved {
				names = append(names, name)
			}
		}
	}
	return names
}

// ReportLoopMoves reports snapshot variables that are moved now: the
// move sits inside a loop body, so the next iteration would read a
// moved value.
func (o *Ownership) ReportLoopMoves(before []source.StringID) {
	for _, name := range before {
		st := o.find(name)
		if st == nil || !st.moved {
			continue
		}
		o.reporter.Report(diag.InvalidOwnershipMove, diag.SevError, st.movedAt,
			fmt.Sprintf("variable '%s' is moved inside a loop; the next iteration would use a moved value",
				o.nameOf(name)), nil)
	}
}

// State exposes the current (moved, borrow) pair for tests.
func (o *Ownership) State(name source.StringID) (moved bool, borrow BorrowState, ok bool) {
	st := o.find(name)
	if st == nil {
		return false, NotBorrowed, false
	}
	return st.moved, st.borrow, true
}
