package diag

import (
	"testing"

	"tocin/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 0, Start: start, End: end}
}

func TestBagGates(t *testing.T) {
	b := NewBag(10)
	b.Add(New(SevWarning, LexUnknownChar, span(0, 1), "odd char"))
	if b.HasErrors() {
		t.Fatal("warnings alone must not trip the error gate")
	}
	b.Add(NewError(TypeMismatch, span(2, 3), "int vs string"))
	if !b.HasErrors() {
		t.Fatal("error diagnostic must trip the gate")
	}
	if b.HasFatal() {
		t.Fatal("no fatal reported yet")
	}
	b.Add(New(SevFatal, InternalAssertionFailed, span(4, 5), "missing annotation"))
	if !b.HasFatal() {
		t.Fatal("fatal diagnostic not seen")
	}
}

func TestBagCap(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(TypeMismatch, span(0, 1), "a")) {
		t.Fatal("first add rejected")
	}
	if !b.Add(NewError(TypeMismatch, span(1, 2), "b")) {
		t.Fatal("second add rejected")
	}
	if b.Add(NewError(TypeMismatch, span(2, 3), "c")) {
		t.Fatal("cap not enforced")
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d", b.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(UndefinedVariable, span(10, 12), "x"))
	b.Add(NewError(TypeMismatch, span(0, 2), "y"))
	b.Add(NewError(UndefinedVariable, span(10, 12), "x"))
	b.Sort()
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("Dedup kept %d items", b.Len())
	}
	if b.Items()[0].Code != TypeMismatch {
		t.Fatalf("sort order wrong: first is %s", b.Items()[0].Code)
	}
}

func TestBagReporter(t *testing.T) {
	b := NewBag(10)
	var r Reporter = BagReporter{Bag: b}
	Errorf(r, UndefinedFunction, span(0, 3), "no such function 'foo'")
	if b.Len() != 1 || b.Items()[0].Code != UndefinedFunction {
		t.Fatalf("reporter did not land in bag: %+v", b.Items())
	}
}
