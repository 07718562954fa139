package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tocin.toml")
	content := `
[package]
name = "demo"
version = "0.2.0"
entry = "app.to"

[build]
out_dir = "out"
max_diagnostics = 25
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "demo" || m.Package.Entry != "app.to" {
		t.Errorf("package section = %+v", m.Package)
	}
	if m.Build.OutDir != "out" || m.Build.MaxDiagnostics != 25 {
		t.Errorf("build section = %+v", m.Build)
	}
	if m.Dir != dir {
		t.Errorf("Dir = %q, want %q", m.Dir, dir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tocin.toml")
	if err := os.WriteFile(path, []byte("[package]\nname = \"x\"\ntypo = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown manifest keys must be rejected")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := filepath.Join(root, "tocin.toml")
	if err := os.WriteFile(manifest, []byte("[package]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%t err=%v", ok, err)
	}
	if got != manifest {
		t.Errorf("found %q, want %q", got, manifest)
	}
}

func TestLoadNearestDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadNearest(dir)
	if err != nil {
		t.Fatalf("LoadNearest: %v", err)
	}
	if m.Package.Name == "" || m.Build.MaxDiagnostics != 100 {
		t.Errorf("defaults = %+v", m)
	}
}

func TestHashStringsFraming(t *testing.T) {
	if HashStrings("ab", "c") == HashStrings("a", "bc") {
		t.Fatal("length framing must separate equal concatenations")
	}
	if HashStrings("x").IsZero() {
		t.Fatal("digest of content must not be zero")
	}
}
