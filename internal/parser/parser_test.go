package parser

import (
	"testing"

	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/source"
)

func parse(t *testing.T, src string) (*ast.File, *diag.Bag, *source.Interner) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.to", []byte(src))
	strs := source.NewInterner()
	bag := diag.NewBag(50)
	file := ParseFile(fs.Get(id), strs, diag.BagReporter{Bag: bag})
	return file, bag, strs
}

func TestParseVarDecl(t *testing.T) {
	file, bag, strs := parse(t, "let x: int = 5;")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if len(file.Stmts) != 1 || file.Stmts[0].Kind != ast.StmtVarDecl {
		t.Fatalf("stmts = %+v", file.Stmts)
	}
	data := file.Stmts[0].Data.(ast.VarDeclData)
	if got, _ := strs.Lookup(data.Name); got != "x" {
		t.Errorf("name = %q", got)
	}
	if data.Const || data.Declared == nil || data.Init == nil {
		t.Errorf("decl parts wrong: %+v", data)
	}
	if data.Init.Kind != ast.ExprLiteral {
		t.Errorf("init kind = %v", data.Init.Kind)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	file, bag, _ := parse(t, "let y = 1 + 2 * 3;")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	init := file.Stmts[0].Data.(ast.VarDeclData).Init
	bin := init.Data.(ast.BinaryData)
	if bin.Op != ast.BinAdd {
		t.Fatalf("root op = %v, want +", bin.Op)
	}
	right := bin.Right.Data.(ast.BinaryData)
	if right.Op != ast.BinMul {
		t.Fatalf("right op = %v, want *", right.Op)
	}
}

func TestParseFunction(t *testing.T) {
	file, bag, strs := parse(t, "def f(a: int) -> int { return a; }")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	fn := file.Stmts[0].Data.(ast.FuncData)
	if got, _ := strs.Lookup(fn.Name); got != "f" {
		t.Errorf("name = %q", got)
	}
	if len(fn.Params) != 1 || fn.Return == nil || fn.Async {
		t.Errorf("signature wrong: %+v", fn)
	}
	body := fn.Body.Data.(ast.BlockData)
	if len(body.Stmts) != 1 || body.Stmts[0].Kind != ast.StmtReturn {
		t.Errorf("body = %+v", body)
	}
}

func TestParseGenericFunction(t *testing.T) {
	file, bag, strs := parse(t, "def id<T>(x: T) -> T { return x; }")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	fn := file.Stmts[0].Data.(ast.FuncData)
	if len(fn.TypeParams) != 1 {
		t.Fatalf("type params = %+v", fn.TypeParams)
	}
	if got, _ := strs.Lookup(fn.TypeParams[0].Name); got != "T" {
		t.Errorf("param name = %q", got)
	}
}

func TestParseClassWithBase(t *testing.T) {
	src := `
class A {
	n: int;
}
class B: A {
	m: float;
	def get(self: B) -> int { return 0; }
}
`
	file, bag, strs := parse(t, src)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	if len(file.Stmts) != 2 {
		t.Fatalf("stmts = %d", len(file.Stmts))
	}
	b := file.Stmts[1].Data.(ast.ClassData)
	if got, _ := strs.Lookup(b.Base); got != "A" {
		t.Errorf("base = %q", got)
	}
	if len(b.Fields) != 1 || len(b.Methods) != 1 {
		t.Errorf("members: %d fields, %d methods", len(b.Fields), len(b.Methods))
	}
}

func TestParseMatch(t *testing.T) {
	src := `
match v {
	case 0 => print(0);
	case n => print(n);
	case _ => { print(1); }
}
`
	file, bag, _ := parse(t, src)
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	m := file.Stmts[0].Data.(ast.MatchData)
	if len(m.Cases) != 3 {
		t.Fatalf("cases = %d", len(m.Cases))
	}
	if m.Cases[0].Pattern.Kind != ast.PatLiteral ||
		m.Cases[1].Pattern.Kind != ast.PatBinding ||
		m.Cases[2].Pattern.Kind != ast.PatWildcard {
		t.Fatalf("pattern kinds wrong: %+v", m.Cases)
	}
}

func TestParseOwnershipOperators(t *testing.T) {
	file, bag, _ := parse(t, "let r = &mut x; let y = move x;")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	r := file.Stmts[0].Data.(ast.VarDeclData).Init.Data.(ast.UnaryData)
	if r.Op != ast.UnaryBorrowMut {
		t.Errorf("op = %v, want &mut", r.Op)
	}
	y := file.Stmts[1].Data.(ast.VarDeclData).Init.Data.(ast.UnaryData)
	if y.Op != ast.UnaryMove {
		t.Errorf("op = %v, want move", y.Op)
	}
}

func TestParseUnionAndOptionalTypes(t *testing.T) {
	file, bag, _ := parse(t, "let v: int | string? = 1;")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	te := file.Stmts[0].Data.(ast.VarDeclData).Declared
	if te.Kind != ast.TypeUnion || len(te.Members) != 2 {
		t.Fatalf("type = %+v", te)
	}
	if te.Members[1].Kind != ast.TypeOptional {
		t.Fatalf("second member = %+v", te.Members[1])
	}
}

func TestParseErrorRecovery(t *testing.T) {
	file, bag, _ := parse(t, "let = ;\nlet ok = 1;")
	if !bag.HasErrors() {
		t.Fatal("expected syntax errors")
	}
	// The second declaration must still parse.
	found := false
	for _, s := range file.Stmts {
		if s != nil && s.Kind == ast.StmtVarDecl {
			found = true
		}
	}
	if !found {
		t.Fatal("recovery failed: no statements parsed after error")
	}
}

func TestParseNewWithTypeArgs(t *testing.T) {
	file, bag, strs := parse(t, "let b = new Box<int>(5);")
	if bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", bag.Items())
	}
	n := file.Stmts[0].Data.(ast.VarDeclData).Init.Data.(ast.NewData)
	if got, _ := strs.Lookup(n.Class); got != "Box" {
		t.Errorf("class = %q", got)
	}
	if len(n.TypeArgs) != 1 || len(n.Args) != 1 {
		t.Errorf("args: %d type, %d value", len(n.TypeArgs), len(n.Args))
	}
}
