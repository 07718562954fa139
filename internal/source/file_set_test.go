package source

import "testing"

func TestPositionResolution(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.to", []byte("let x = 1\nlet y = 2\n"))
	f := fs.Get(id)

	tests := []struct {
		name   string
		offset uint32
		line   uint32
		col    uint32
	}{
		{"start of file", 0, 1, 1},
		{"mid first line", 4, 1, 5},
		{"start of second line", 10, 2, 1},
		{"mid second line", 14, 2, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := f.Position(tt.offset)
			if lc.Line != tt.line || lc.Col != tt.col {
				t.Fatalf("Position(%d) = %v, want %d:%d", tt.offset, lc, tt.line, tt.col)
			}
		})
	}
}

func TestLineText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.to", []byte("first\nsecond\nthird"))
	f := fs.Get(id)

	if got := f.Line(1); got != "first" {
		t.Errorf("Line(1) = %q", got)
	}
	if got := f.Line(2); got != "second" {
		t.Errorf("Line(2) = %q", got)
	}
	if got := f.Line(3); got != "third" {
		t.Errorf("Line(3) = %q", got)
	}
	if got := f.Line(4); got != "" {
		t.Errorf("Line(4) = %q, want empty", got)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 8 {
		t.Fatalf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("Cover across files should be a no-op, got %v", got)
	}
}

func TestInternerReusesIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("counter")
	b := in.Intern("counter")
	if a != b {
		t.Fatalf("expected identical IDs, got %d and %d", a, b)
	}
	if s := in.MustLookup(a); s != "counter" {
		t.Fatalf("MustLookup = %q", s)
	}
	if in.Intern("") != NoStringID {
		t.Fatal("empty string must map to NoStringID")
	}
}
