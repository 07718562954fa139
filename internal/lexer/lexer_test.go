package lexer

import (
	"testing"

	"tocin/internal/diag"
	"tocin/internal/source"
	"tocin/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.to", []byte(src))
	bag := diag.NewBag(50)
	toks := Tokenize(fs.Get(id), diag.BagReporter{Bag: bag})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestTokenizeDeclaration(t *testing.T) {
	toks, bag := lex(t, "let x: int = 5;")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := []token.Kind{
		token.KwLet, token.Ident, token.Colon, token.Ident,
		token.Assign, token.IntLit, token.Semi, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
	if toks[1].Text != "x" || toks[3].Text != "int" || toks[5].Text != "5" {
		t.Fatalf("lexemes wrong: %v", toks)
	}
}

func TestTokenizeOperators(t *testing.T) {
	toks, bag := lex(t, "-> == != <= >= && || = < > & |")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	want := []token.Kind{
		token.Arrow, token.Eq, token.NotEq, token.LtEq, token.GtEq,
		token.AndAnd, token.OrOr, token.Assign, token.Lt, token.Gt,
		token.Amp, token.Pipe, token.EOF,
	}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestKeywordsVsIdents(t *testing.T) {
	toks, _ := lex(t, "match move await None maybe")
	want := []token.Kind{token.KwMatch, token.KwMove, token.KwAwait, token.KwNone, token.Ident, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFloatAndIntLiterals(t *testing.T) {
	toks, _ := lex(t, "3.25 42 7.")
	if toks[0].Kind != token.FloatLit || toks[0].Text != "3.25" {
		t.Fatalf("float: %v", toks[0])
	}
	if toks[1].Kind != token.IntLit || toks[1].Text != "42" {
		t.Fatalf("int: %v", toks[1])
	}
	// "7." without a following digit lexes as int then dot.
	if toks[2].Kind != token.IntLit || toks[3].Kind != token.Dot {
		t.Fatalf("trailing dot: %v %v", toks[2], toks[3])
	}
}

func TestUnterminatedString(t *testing.T) {
	_, bag := lex(t, `let s = "oops`)
	if !bag.HasErrors() {
		t.Fatal("expected unterminated string diagnostic")
	}
	if bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("code = %v", bag.Items()[0].Code)
	}
}

func TestCommentsSkipped(t *testing.T) {
	toks, bag := lex(t, "# header\nlet x = 1; // tail\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if toks[0].Kind != token.KwLet {
		t.Fatalf("first token = %v", toks[0])
	}
}
