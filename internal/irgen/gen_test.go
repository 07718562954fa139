package irgen

import (
	"strings"
	"testing"

	"tocin/internal/diag"
	"tocin/internal/ir"
	"tocin/internal/parser"
	"tocin/internal/sema"
	"tocin/internal/source"
	"tocin/internal/types"
)

func lowerSrc(t *testing.T, src string) (*ir.Module, *types.Interner, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.to", []byte(src))
	strs := source.NewInterner()
	bag := diag.NewBag(100)
	file := parser.ParseFile(fs.Get(id), strs, diag.BagReporter{Bag: bag})
	if bag.HasErrors() {
		t.Fatalf("parse diagnostics: %+v", bag.Items())
	}
	ti := types.NewInterner(strs)
	res := sema.NewChecker(ti, strs, diag.BagReporter{Bag: bag}).CheckFile(file)
	if bag.HasErrors() {
		t.Fatalf("check diagnostics: %+v", bag.Items())
	}
	mod := Generate(ti, strs, res, file, "test", diag.BagReporter{Bag: bag})
	return mod, ti, bag
}

func findFunc(t *testing.T, mod *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range mod.Funcs {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %q not in module; have %v", name, funcNames(mod))
	return nil
}

func funcNames(mod *ir.Module) []string {
	names := make([]string, len(mod.Funcs))
	for i, f := range mod.Funcs {
		names[i] = f.Name
	}
	return names
}

func hasExtern(mod *ir.Module, symbol string) bool {
	for _, e := range mod.Externs {
		if e.Symbol == symbol {
			return true
		}
	}
	return false
}

func TestArithmeticProgramValidates(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def area(w: float, h: float) -> float {
    return w * h;
}
let a = area(3.0, 4.5);
print(a);
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	area := findFunc(t, mod, "area")
	if len(area.Params) != 2 {
		t.Fatalf("area has %d params, want 2", len(area.Params))
	}
	main := findFunc(t, mod, "main")
	if main.Entry() == nil {
		t.Fatal("main has no entry block")
	}
	if !hasExtern(mod, "print_float") {
		t.Errorf("print(float) did not declare print_float; externs: %+v", mod.Externs)
	}
}

func TestEveryBlockTerminates(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def classify(n: int) -> string {
    if n < 0 {
        return "neg";
    } else {
        if n == 0 {
            return "zero";
        }
    }
    return "pos";
}
let i = 0;
while i < 10 {
    if i == 5 {
        break;
    }
    i = i + 1;
}
for let j = 0; j < 3; j = j + 1 {
    if j == 1 {
        continue;
    }
    print(j);
}
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	for _, f := range mod.Funcs {
		for _, b := range f.Blocks {
			if b.Term == nil {
				t.Errorf("%s/%s has no terminator", f.Name, b.Name)
			}
		}
	}
}

func TestImplicitReturnSealsFallthrough(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def maybe(n: int) -> int {
    if n > 0 {
        return n;
    }
}
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	f := findFunc(t, mod, "maybe")
	rets := 0
	for _, b := range f.Blocks {
		if b.Term.Kind == ir.TermRet {
			rets++
			if b.Term.Value == ir.NoValue {
				t.Errorf("%s returns void from an int function", b.Name)
			}
		}
	}
	if rets < 2 {
		t.Errorf("expected the explicit and the sealed return, got %d", rets)
	}
}

func TestGenericInstancesLowerOncePerType(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def id<T>(x: T) -> T {
    return x;
}
let a = id(1);
let b = id(2);
let c = id(1.5);
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	findFunc(t, mod, "id$int")
	findFunc(t, mod, "id$float")
	count := 0
	for _, f := range mod.Funcs {
		if strings.HasPrefix(f.Name, "id$") {
			count++
		}
	}
	if count != 2 {
		t.Errorf("want exactly 2 id instances, got %d: %v", count, funcNames(mod))
	}
}

func TestClassMethodsLowerWithSelf(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
class Point {
    x: float;
    y: float;
    def norm2(self) -> float {
        return self.x * self.x + self.y * self.y;
    }
}
let p = new Point(3.0, 4.0);
print(p.norm2());
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	norm := findFunc(t, mod, "Point$norm2")
	if len(norm.Params) != 1 || norm.Params[0].Name != "self" {
		t.Fatalf("Point$norm2 params = %+v, want implicit self only", norm.Params)
	}
	if len(mod.Classes) == 0 {
		t.Fatal("no class layouts recorded for the backend")
	}
	text := ir.Print(ti, mod)
	if !strings.Contains(text, "call @Point$norm2") {
		t.Errorf("method call did not lower to the mangled symbol:\n%s", text)
	}
}

func TestInheritedMethodDispatchesToDeclaringClass(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
class Animal {
    name: string;
    def label(self) -> string {
        return self.name;
    }
}
class Dog : Animal {
    tag: int;
}
let d = new Dog("rex", 7);
print(d.label());
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	text := ir.Print(ti, mod)
	if !strings.Contains(text, "call @Animal$label") {
		t.Errorf("inherited call must target the declaring class:\n%s", text)
	}
}

func TestUnionStoreBoxesValue(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
let v: int | string = 42;
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	main := findFunc(t, mod, "main")
	boxed := false
	for _, b := range main.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == ir.OpUnionNew {
				boxed = true
			}
		}
	}
	if !boxed {
		t.Errorf("storing int into a union must box:\n%s", ir.Print(ti, mod))
	}
}

func TestAsyncReturnWrapsAndAwaitUnwraps(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
async def fetch() -> int {
    return 7;
}
async def use() -> int {
    let v = await fetch();
    return v;
}
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	fetch := findFunc(t, mod, "fetch")
	wrapped := false
	for _, b := range fetch.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == ir.OpNew {
				wrapped = true
			}
		}
	}
	if !wrapped {
		t.Error("async return did not allocate a future")
	}
	use := findFunc(t, mod, "use")
	var readyChecked, unwrapped bool
	for _, b := range use.Blocks {
		for _, in := range b.Instrs {
			if in.Kind == ir.OpGetField && in.Field == 0 {
				readyChecked = true
			}
			if in.Kind == ir.OpGetField && in.Field == 1 {
				unwrapped = true
			}
		}
	}
	if !readyChecked {
		t.Error("await did not test the ready flag before reading")
	}
	if !unwrapped {
		t.Error("await did not read the future payload")
	}
	if text := ir.Print(ti, mod); !strings.Contains(text, "await.check") {
		t.Errorf("await did not lower to the poll loop:\n%s", text)
	}
}

func TestLogicalOperatorsShortCircuit(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def pos(n: int) -> bool { return n > 0; }
def both(n: int) -> bool { return n < 10 && pos(n); }
def either(n: int) -> bool { return n < 10 || pos(n); }
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	// The right operand's call may only run behind the guard block.
	for _, name := range []string{"both", "either"} {
		f := findFunc(t, mod, name)
		prefix := "and.rhs"
		if name == "either" {
			prefix = "or.rhs"
		}
		for _, b := range f.Blocks {
			for _, in := range b.Instrs {
				if in.Kind == ir.OpCall && !strings.HasPrefix(b.Name, prefix) {
					t.Errorf("%s: call to pos in block %s, want it guarded by %s*", name, b.Name, prefix)
				}
			}
		}
	}
}

func TestGenericMethodCallTargetsInstanceSymbol(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
class Box<T> {
    v: T;
    def get(self) -> T { return self.v; }
}
let b = new Box<int>(5);
print(b.get());
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	findFunc(t, mod, "Box$int$get")
	for _, f := range mod.Funcs {
		if strings.Contains(f.Name, "$get$") {
			t.Errorf("method instance mangled twice: %s", f.Name)
		}
	}
	text := ir.Print(ti, mod)
	if !strings.Contains(text, "call @Box$int$get") {
		t.Errorf("method call does not target the lowered instance:\n%s", text)
	}
}

func TestDeclaredSlotTypeComesFromChecker(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
class Box<T> {
    v: T;
    def get(self) -> T { return self.v; }
}
let b: Box<int> = new Box<int>(5);
let n: int | string = 1;
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	main := findFunc(t, mod, "main")
	var sawBox, sawUnion bool
	for _, l := range main.Locals {
		switch l.Name {
		case "b":
			sawBox = ti.Format(l.Type) == "Box$int"
		case "n":
			sawUnion = ti.Kind(l.Type) == types.KindUnion
		}
	}
	if !sawBox || !sawUnion {
		t.Errorf("slot types not taken from checking (box=%t union=%t): %+v", sawBox, sawUnion, main.Locals)
	}
}

func TestArgumentArityMismatchIsFatal(t *testing.T) {
	strs := source.NewInterner()
	ti := types.NewInterner(strs)
	bag := diag.NewBag(10)
	g := &Generator{types: ti, strings: strs, reporter: diag.BagReporter{Bag: bag}, mod: &ir.Module{}}
	g.beginFunc("f", nil, ti.Builtins().Int, false)

	g.genArgs(source.Span{}, nil, []types.TypeID{ti.Builtins().Int})

	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.InternalAssertionFailed {
			found = true
		}
	}
	if !found {
		t.Errorf("arity mismatch at lowering must assert, got %+v", bag.Items())
	}
}

func TestMatchLowersToTestChain(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
def describe(n: int) -> string {
    match n {
        case 0 => { return "zero"; }
        case 1 => { return "one"; }
        case other => { return "many"; }
    }
    return "";
}
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	text := ir.Print(ti, mod)
	if !strings.Contains(text, "case.body") || !strings.Contains(text, "match.end") {
		t.Errorf("match did not produce the case chain:\n%s", text)
	}
}

func TestListLiteralAndIndexing(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
let xs = [10, 20, 30];
let n = len(xs);
let first = xs[0];
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	main := findFunc(t, mod, "main")
	var sawNew, sawSet, sawLen, sawGet bool
	for _, b := range main.Blocks {
		for _, in := range b.Instrs {
			switch in.Kind {
			case ir.OpListNew:
				sawNew = true
			case ir.OpListSet:
				sawSet = true
			case ir.OpListLen:
				sawLen = true
			case ir.OpListGet:
				sawGet = true
			}
		}
	}
	if !sawNew || !sawSet || !sawLen || !sawGet {
		t.Errorf("list lowering incomplete (new=%t set=%t len=%t get=%t):\n%s",
			sawNew, sawSet, sawLen, sawGet, ir.Print(ti, mod))
	}
}

func TestStringConcatUsesRuntime(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `
let s = "a" + "b";
print(s);
`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	if !hasExtern(mod, "string_concat") {
		t.Errorf("string + string must call string_concat; externs: %+v", mod.Externs)
	}
}

func TestCapturingLambdaIsRejected(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.to", []byte(`
let outer = 1;
let f = def (x: int) -> int { return x + outer; };
`))
	strs := source.NewInterner()
	bag := diag.NewBag(100)
	file := parser.ParseFile(fs.Get(id), strs, diag.BagReporter{Bag: bag})
	if bag.HasErrors() {
		t.Fatalf("parse diagnostics: %+v", bag.Items())
	}
	ti := types.NewInterner(strs)
	res := sema.NewChecker(ti, strs, diag.BagReporter{Bag: bag}).CheckFile(file)
	if bag.HasErrors() {
		t.Fatalf("check diagnostics: %+v", bag.Items())
	}
	Generate(ti, strs, res, file, "test", diag.BagReporter{Bag: bag})
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.GenUnloweredConstruct {
			found = true
		}
	}
	if !found {
		t.Error("capturing lambda must report the unlowered-construct diagnostic")
	}
}

func TestLooseStatementsBecomeMain(t *testing.T) {
	mod, ti, bag := lowerSrc(t, `print(1);`)
	if bag.HasErrors() {
		t.Fatalf("lowering diagnostics: %+v", bag.Items())
	}
	if err := ir.Validate(ti, mod); err != nil {
		t.Fatalf("Validate: %v\n%s", err, ir.Print(ti, mod))
	}
	main := findFunc(t, mod, "main")
	last := main.Blocks[len(main.Blocks)-1]
	if last.Term.Kind != ir.TermRet || last.Term.Value == ir.NoValue {
		t.Errorf("main must return an int status, got %+v", last.Term)
	}
}
