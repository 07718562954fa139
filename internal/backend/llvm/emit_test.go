package llvm

import (
	"strings"
	"testing"

	"tocin/internal/diag"
	"tocin/internal/irgen"
	"tocin/internal/parser"
	"tocin/internal/sema"
	"tocin/internal/source"
	"tocin/internal/types"
)

func emitSrc(t *testing.T, src string) string {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.to", []byte(src))
	strs := source.NewInterner()
	bag := diag.NewBag(100)
	file := parser.ParseFile(fs.Get(id), strs, diag.BagReporter{Bag: bag})
	ti := types.NewInterner(strs)
	res := sema.NewChecker(ti, strs, diag.BagReporter{Bag: bag}).CheckFile(file)
	mod := irgen.Generate(ti, strs, res, file, "test", diag.BagReporter{Bag: bag})
	if bag.HasErrors() {
		t.Fatalf("front-end diagnostics: %+v", bag.Items())
	}
	out, err := EmitModule(mod, ti)
	if err != nil {
		t.Fatalf("EmitModule: %v", err)
	}
	return out
}

func TestEmitsTargetAndMain(t *testing.T) {
	out := emitSrc(t, `print(42);`)
	for _, want := range []string{
		"target triple",
		`define i64 @"main"(`,
		"declare void @print_int(i64)",
		`call void @"print_int"(i64 42)`,
		"ret i64 0",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestStringConstantsAreInterned(t *testing.T) {
	out := emitSrc(t, `
print("hi");
print("hi");
print("bye");
`)
	if strings.Count(out, "unnamed_addr constant") != 2 {
		t.Errorf("want 2 interned strings, output:\n%s", out)
	}
	if !strings.Contains(out, `c"hi\00"`) {
		t.Errorf("missing NUL-terminated literal:\n%s", out)
	}
}

func TestClassBecomesNamedStruct(t *testing.T) {
	out := emitSrc(t, `
class Point {
    x: float;
    y: float;
    def norm2(self) -> float {
        return self.x * self.x + self.y * self.y;
    }
}
let p = new Point(1.0, 2.0);
print(p.norm2());
`)
	for _, want := range []string{
		`%"Point" = type { double, double }`,
		`define double @"Point$norm2"(ptr %p0)`,
		`getelementptr inbounds %"Point"`,
		"call ptr @malloc(i64 ptrtoint (ptr getelementptr (%\"Point\", ptr null, i32 1) to i64))",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestGenericInstanceEmitsMangledDefine(t *testing.T) {
	out := emitSrc(t, `
def id<T>(x: T) -> T {
    return x;
}
print(id(7));
`)
	if !strings.Contains(out, `define i64 @"id$int"(i64 %p0)`) {
		t.Errorf("missing monomorphized define:\n%s", out)
	}
	if !strings.Contains(out, `call i64 @"id$int"(i64 7)`) {
		t.Errorf("missing call to instance:\n%s", out)
	}
}

func TestBranchingUsesBlockLabels(t *testing.T) {
	out := emitSrc(t, `
def sign(n: int) -> int {
    if n < 0 {
        return 0 - 1;
    }
    return 1;
}
`)
	if !strings.Contains(out, "icmp slt i64") {
		t.Errorf("missing signed compare:\n%s", out)
	}
	if !strings.Contains(out, "br i1 ") || !strings.Contains(out, ", label %then") {
		t.Errorf("missing conditional branch:\n%s", out)
	}
}

func TestFloatConstantsUseBitForm(t *testing.T) {
	out := emitSrc(t, `let x = 2.5; print(x);`)
	if !strings.Contains(out, "0x4004000000000000") {
		t.Errorf("2.5 must emit as its IEEE bits:\n%s", out)
	}
}

func TestUnionValueBoxesThroughMalloc(t *testing.T) {
	out := emitSrc(t, `
let v: int | string = 7;
`)
	if !strings.Contains(out, "call ptr @malloc(i64 16)") {
		t.Errorf("union box must heap-allocate:\n%s", out)
	}
}

func TestListRuntimeCalls(t *testing.T) {
	out := emitSrc(t, `
let xs = [1, 2];
print(xs[0]);
print(len(xs));
`)
	for _, want := range []string{
		"call ptr @list_new(i64 2)",
		"call void @list_set(ptr",
		"call i64 @list_get(ptr",
		"call i64 @list_len(ptr",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestEmptyModule(t *testing.T) {
	out, err := EmitModule(nil, nil)
	if err != nil {
		t.Fatalf("EmitModule(nil): %v", err)
	}
	if out != "" {
		t.Errorf("nil module must emit nothing, got %q", out)
	}
}
