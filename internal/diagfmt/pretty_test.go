package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"tocin/internal/diag"
	"tocin/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("demo.to", []byte("let x = nope;\n"))
	bag := diag.NewBag(10)
	sp := source.Span{File: id, Start: 8, End: 12}
	bag.Add(diag.NewError(diag.UndefinedVariable, sp, "undefined variable 'nope'").
		WithNote(sp, "declared nowhere in this scope"))
	return bag, fs
}

func TestPrettyPlainOutput(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Width: -1, ShowNotes: true})
	out := sb.String()
	for _, want := range []string{
		"demo.to:1:9",
		"ERROR[TC3002]",
		"undefined variable 'nope'",
		"let x = nope;",
		"^~~~",
		"note: declared nowhere in this scope",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestPrettyWithoutNotes(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Width: -1})
	if strings.Contains(sb.String(), "note:") {
		t.Errorf("notes must be suppressed:\n%s", sb.String())
	}
}

func TestJSONShape(t *testing.T) {
	bag, fs := sampleBag(t)
	var sb strings.Builder
	if err := JSON(&sb, bag, fs); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal([]byte(sb.String()), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d, diags = %d", out.Count, len(out.Diagnostics))
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Location.File != "demo.to" || d.Location.StartLine != 1 {
		t.Errorf("diagnostic = %+v", d)
	}
	if len(d.Notes) != 1 {
		t.Errorf("notes = %+v", d.Notes)
	}
}

func TestSummaryCountsBySeverity(t *testing.T) {
	bag, fs := sampleBag(t)
	_ = fs
	bag.Add(diag.New(diag.SevWarning, diag.NonExhaustivePattern, source.Span{}, "missing case"))
	var sb strings.Builder
	Summary(&sb, bag, false)
	if got := strings.TrimSpace(sb.String()); got != "1 error(s), 1 warning(s)" {
		t.Errorf("summary = %q", got)
	}
}
