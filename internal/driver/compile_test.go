package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tocin/internal/buildpipeline"
)

const helloSrc = `
def greet(name: string) -> string {
    return "hello, " + name;
}
print(greet("world"));
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompileFileProducesLLVM(t *testing.T) {
	path := writeFile(t, "hello.to", helloSrc)
	res, err := CompileFile(path, Options{})
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %+v", res.Bag.Items())
	}
	if !strings.Contains(res.LLVM, `define i64 @"main"`) {
		t.Errorf("missing main in output:\n%s", res.LLVM)
	}
	if !strings.Contains(res.LLVM, "; module hello") {
		t.Errorf("module name not derived from the file name:\n%s", res.LLVM)
	}
}

func TestCompileStopsAfterParseErrors(t *testing.T) {
	path := writeFile(t, "broken.to", "def f( {")
	res, err := CompileFile(path, Options{})
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected parse diagnostics")
	}
	if res.LLVM != "" {
		t.Error("no IR may be emitted after errors")
	}
	if res.Module != nil {
		t.Error("lowering must not run after errors")
	}
}

func TestStageEventsArePublished(t *testing.T) {
	path := writeFile(t, "hello.to", helloSrc)
	sink := &buildpipeline.CollectSink{}
	if _, err := CompileFile(path, Options{Sink: sink}); err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	seen := make(map[buildpipeline.Stage]bool)
	for _, evt := range sink.Events() {
		if evt.Status == buildpipeline.StatusDone {
			seen[evt.Stage] = true
		}
	}
	for _, stage := range buildpipeline.Stages() {
		if !seen[stage] {
			t.Errorf("no done event for stage %s", stage)
		}
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	path := writeFile(t, "hello.to", helloSrc)

	first, err := CompileFile(path, Options{Cache: cache})
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	if first.FromCache {
		t.Fatal("first compile must not hit the cache")
	}

	second, err := CompileFile(path, Options{Cache: cache})
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}
	if !second.FromCache {
		t.Fatal("second compile must hit the cache")
	}
	if second.LLVM != first.LLVM {
		t.Error("cached IR differs from freshly emitted IR")
	}
}

func TestCompileAllKeepsOrder(t *testing.T) {
	a := writeFile(t, "a.to", "print(1);")
	b := writeFile(t, "b.to", "print(2);")
	results, err := CompileAll(context.Background(), []string{a, b}, Options{})
	if err != nil {
		t.Fatalf("CompileAll: %v", err)
	}
	if len(results) != 2 || results[0].Path != a || results[1].Path != b {
		t.Errorf("results out of order: %+v", results)
	}
}

func TestCheckReportsWithoutLowering(t *testing.T) {
	path := writeFile(t, "bad.to", "let x: int = \"nope\";")
	res, err := Check(path, 10)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected a type error")
	}
}

func TestModuleName(t *testing.T) {
	cases := map[string]string{
		"dir/hello.to": "hello",
		"hello.to":     "hello",
		"weird":        "weird",
	}
	for in, want := range cases {
		if got := moduleName(in); got != want {
			t.Errorf("moduleName(%q) = %q, want %q", in, got, want)
		}
	}
}
