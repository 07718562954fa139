package sema

import (
	"testing"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/parser"
	"tocin/internal/source"
	"tocin/internal/types"
)

func checkSrc(t *testing.T, src string) (*ast.File, *Result, *diag.Bag) {
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
	res := NewChecker(ti, strs, diag.BagReporter{Bag: bag}).CheckFile(file)
	return file, res, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func initExpr(t *testing.T, file *ast.File, i int) *ast.Expr {
	t.Helper()
	if i >= len(file.Stmts) || file.Stmts[i].Kind != ast.StmtVarDecl {
		t.Fatalf("stmt %d is not a var decl", i)
	}
	return file.Stmts[i].Data.(ast.VarDeclData).Init
}

func TestInferLiteralTypes(t *testing.T) {
	file, res, bag := checkSrc(t, `
let a = 1;
let b = 2.5;
let c = "hi";
let d = true;
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	wants := []types.Kind{types.KindInt, types.KindFloat, types.KindString, types.KindBool}
	for i, want := range wants {
		if got := res.Types.Kind(initExpr(t, file, i).Type); got != want {
			t.Errorf("stmt %d: inferred %v, want %v", i, got, want)
		}
	}
}

func TestIntWidensToFloatOnly(t *testing.T) {
	_, _, bag := checkSrc(t, "let x: float = 1;")
	if bag.HasErrors() {
		t.Fatalf("int -> float must widen: %+v", bag.Items())
	}
	_, _, bag = checkSrc(t, "let y: int = 1.5;")
	if !hasCode(bag, diag.TypeMismatch) {
		t.Fatal("float -> int must be rejected")
	}
}

func TestMixedArithmeticIsFloat(t *testing.T) {
	file, res, bag := checkSrc(t, "let x = 1 + 2.5;")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 0).Type); got != types.KindFloat {
		t.Errorf("1 + 2.5 inferred %v, want float", got)
	}
}

func TestAssignToConstant(t *testing.T) {
	_, _, bag := checkSrc(t, "const c = 1;\nc = 2;")
	if !hasCode(bag, diag.AssignToConstant) {
		t.Fatalf("expected AssignToConstant, got %+v", bag.Items())
	}
}

func TestWrongArgumentCount(t *testing.T) {
	_, _, bag := checkSrc(t, `
def add(a: int, b: int) -> int { return a + b; }
let r = add(1);
`)
	if !hasCode(bag, diag.WrongArgumentCount) {
		t.Fatalf("expected WrongArgumentCount, got %+v", bag.Items())
	}
}

func TestCannotInferBareDecl(t *testing.T) {
	_, _, bag := checkSrc(t, "let x;")
	if !hasCode(bag, diag.CannotInferType) {
		t.Fatalf("expected CannotInferType, got %+v", bag.Items())
	}
}

func TestAwaitOutsideAsync(t *testing.T) {
	_, _, bag := checkSrc(t, `
async def g() -> int { return 1; }
def f() -> int { return await g(); }
`)
	if !hasCode(bag, diag.AwaitOutsideAsync) {
		t.Fatalf("expected AwaitOutsideAsync, got %+v", bag.Items())
	}
}

func TestAwaitUnwrapsFuture(t *testing.T) {
	file, res, bag := checkSrc(t, `
async def g() -> int { return 1; }
async def h() -> int { return await g(); }
let fut = g();
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	futType := initExpr(t, file, 2).Type
	if got := res.Types.Format(futType); got != "Future$int" {
		t.Errorf("g() type = %s, want Future$int", got)
	}
}

func TestScopeExitDiscardsNames(t *testing.T) {
	_, _, bag := checkSrc(t, "{ let x = 1; }\nprint(x);")
	if !hasCode(bag, diag.UndefinedVariable) {
		t.Fatalf("expected UndefinedVariable, got %+v", bag.Items())
	}
}

func TestUseAfterMove(t *testing.T) {
	_, _, bag := checkSrc(t, "let x = 1;\nlet y = move x;\nprint(x);")
	if !hasCode(bag, diag.InvalidOwnershipUseMoved) {
		t.Fatalf("expected InvalidOwnershipUseMoved, got %+v", bag.Items())
	}
}

func TestUnionAssignability(t *testing.T) {
	_, _, bag := checkSrc(t, `
let u: int | string = 1;
let w: int | string | float = u;
`)
	if bag.HasErrors() {
		t.Fatalf("union widening must pass: %+v", bag.Items())
	}
	_, _, bag = checkSrc(t, `
let u: int | string = 1;
let v: int = u;
`)
	if !hasCode(bag, diag.TypeMismatch) {
		t.Fatal("union -> member must be rejected: not every member fits")
	}
}

func TestClassConstructionAndInheritance(t *testing.T) {
	file, res, bag := checkSrc(t, `
class A { n: int; }
class B: A { m: float; }
let b = new B(1, 2.5);
let n = b.n;
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 3).Type); got != types.KindInt {
		t.Errorf("b.n inferred %v, want int (inherited field)", got)
	}
	_, _, bag = checkSrc(t, `
class A { n: int; }
class B: A { m: float; }
let b = new B(1);
`)
	if !hasCode(bag, diag.WrongArgumentCount) {
		t.Fatal("constructor must take base fields too")
	}
}

func TestGenericInferenceAndInstanceCache(t *testing.T) {
	file, res, bag := checkSrc(t, `
def id<T>(x: T) -> T { return x; }
let a = id(5);
let b = id(7);
let c = id(1.5);
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 1).Type); got != types.KindInt {
		t.Errorf("id(5) inferred %v, want int", got)
	}
	if got := res.Types.Kind(initExpr(t, file, 3).Type); got != types.KindFloat {
		t.Errorf("id(1.5) inferred %v, want float", got)
	}
	var names []string
	for _, inst := range res.Instances {
		names = append(names, inst.Name)
	}
	if len(names) != 2 {
		t.Fatalf("instances = %v, want exactly id$int and id$float", names)
	}
	if names[0] != "id$int" || names[1] != "id$float" {
		t.Errorf("instances = %v", names)
	}
}

func TestRecursiveGenericTerminates(t *testing.T) {
	_, res, bag := checkSrc(t, `
def count<T>(x: T, n: int) -> int {
	if n <= 0 { return 0; }
	return 1 + count(x, n - 1);
}
let r = count("s", 3);
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if len(res.Instances) != 1 {
		t.Fatalf("instances = %d, want the recursive call to reuse the entry", len(res.Instances))
	}
}

func TestGenericClassWithMethod(t *testing.T) {
	file, res, bag := checkSrc(t, `
class Box<T> {
	v: T;
	def get(self) -> T { return self.v; }
}
let b = new Box<int>(5);
let v = b.get();
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 2).Type); got != types.KindInt {
		t.Errorf("b.get() inferred %v, want int", got)
	}
	found := false
	for _, inst := range res.Instances {
		if inst.Name == "Box$int$get" && inst.Self != types.NoTypeID {
			found = true
		}
	}
	if !found {
		t.Errorf("missing method instance Box$int$get in %+v", res.Instances)
	}
}

func TestClassFieldsSurviveGenericMembers(t *testing.T) {
	// Resolving a member type can instantiate a class, which grows the
	// registry; later members must still land in the right entry.
	file, res, bag := checkSrc(t, `
class Box<T> { item: T; }
class User {
	b: Box<int>;
	age: int;
}
let u = new User(new Box<int>(7), 3);
let n = u.age;
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 3).Type); got != types.KindInt {
		t.Errorf("u.age inferred %v, want int", got)
	}

	file, res, bag = checkSrc(t, `
class Box<T> { item: T; }
class Pair<T> {
	b: Box<T>;
	tag: int;
}
let p = new Pair<int>(new Box<int>(1), 2);
let tg = p.tag;
`)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Kind(initExpr(t, file, 3).Type); got != types.KindInt {
		t.Errorf("p.tag inferred %v, want int", got)
	}
}

func TestCallArgumentMovesAggregate(t *testing.T) {
	_, _, bag := checkSrc(t, `
class P { n: int; }
def take(p: P) -> int { return p.n; }
let p = new P(1);
let a = take(p);
let b = take(p);
`)
	if !hasCode(bag, diag.InvalidOwnershipUseMoved) {
		t.Fatalf("second by-value pass must see the move: %+v", bag.Items())
	}

	// Scalars copy: repeated passing is fine.
	_, _, bag = checkSrc(t, `
def inc(n: int) -> int { return n + 1; }
let x = 1;
let a = inc(x);
let b = inc(x);
`)
	if bag.HasErrors() {
		t.Fatalf("scalar arguments must copy, not move: %+v", bag.Items())
	}
}

func TestAssignmentSourceMovesAggregate(t *testing.T) {
	_, _, bag := checkSrc(t, `
class P { n: int; }
let p = new P(1);
let q = p;
let n = p.n;
`)
	if !hasCode(bag, diag.InvalidOwnershipUseMoved) {
		t.Fatalf("aggregate assignment source must move: %+v", bag.Items())
	}
}

func TestMoveInsideLoopIsReported(t *testing.T) {
	_, _, bag := checkSrc(t, `
class P { n: int; }
def take(p: P) -> int { return p.n; }
let p = new P(1);
while true {
	let a = take(p);
}
`)
	if !hasCode(bag, diag.InvalidOwnershipMove) {
		t.Fatalf("move of an outer variable inside a loop must be reported: %+v", bag.Items())
	}

	// Reassigning before the iteration ends restores ownership.
	_, _, bag = checkSrc(t, `
class P { n: int; }
def take(p: P) -> int { return p.n; }
let p = new P(1);
while true {
	let a = take(p);
	p = new P(2);
}
`)
	if bag.HasErrors() {
		t.Fatalf("move followed by reassignment must pass: %+v", bag.Items())
	}
}

func TestEmptyListTakesDeclaredType(t *testing.T) {
	file, res, bag := checkSrc(t, "let xs: list<int> = [];")
	if bag.HasErrors() {
		t.Fatalf("annotated empty list must pass: %+v", bag.Items())
	}
	if got := res.Types.Format(initExpr(t, file, 0).Type); got != "list<int>" {
		t.Errorf("empty list typed %s, want list<int>", got)
	}
	_, _, bag = checkSrc(t, "let ys = [];")
	if !hasCode(bag, diag.CannotInferType) {
		t.Fatalf("bare empty list has no element type: %+v", bag.Items())
	}
}

func TestTraitBound(t *testing.T) {
	src := `
trait Printable {
	def show() -> string;
}
class P {
	x: int;
	def show(self) -> string { return "p"; }
}
class Q { x: int; }
def describe<T: Printable>(v: T) -> string { return v.show(); }
let ok = describe(new P(1));
`
	_, _, bag := checkSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("satisfied bound must pass: %+v", bag.Items())
	}
	_, _, bag = checkSrc(t, src+"let nope = describe(new Q(2));\n")
	if !hasCode(bag, diag.TraitBoundUnsatisfied) {
		t.Fatalf("expected TraitBoundUnsatisfied, got %+v", bag.Items())
	}
}

func TestBreakOutsideLoop(t *testing.T) {
	_, _, bag := checkSrc(t, "break;")
	if !hasCode(bag, diag.JumpOutsideLoop) {
		t.Fatalf("expected JumpOutsideLoop, got %+v", bag.Items())
	}
}

func TestListLiteral(t *testing.T) {
	file, res, bag := checkSrc(t, "let xs = [1, 2, 3];\nlet x = xs[0];")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if got := res.Types.Format(initExpr(t, file, 0).Type); got != "list<int>" {
		t.Errorf("list type = %s", got)
	}
	if got := res.Types.Kind(initExpr(t, file, 1).Type); got != types.KindInt {
		t.Errorf("xs[0] inferred %v, want int", got)
	}
}

func TestMatchBindsCaseLocals(t *testing.T) {
	_, _, bag := checkSrc(t, `
let v: int | string = 1;
match v {
	case 0 => print(0);
	case n => print(1);
}
print(n);
`)
	if !hasCode(bag, diag.UndefinedVariable) {
		t.Fatalf("case binding must not escape its arm: %+v", bag.Items())
	}
}
