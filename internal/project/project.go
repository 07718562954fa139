// Package project locates and reads tocin.toml, the project manifest.
// Compilation works without one; the manifest only supplies defaults for
// the build commands.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest is the parsed tocin.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`

	// Dir is the directory the manifest was read from; not part of the
	// file itself.
	Dir string `toml:"-"`
}

// PackageSection names the project.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Entry   string `toml:"entry"`
}

// BuildSection carries build defaults.
type BuildSection struct {
	OutDir         string `toml:"out_dir"`
	MaxDiagnostics int    `toml:"max_diagnostics"`
	NoCache        bool   `toml:"no_cache"`
}

// Default returns the manifest used when no tocin.toml exists.
func Default(dir string) *Manifest {
	return &Manifest{
		Package: PackageSection{Name: filepath.Base(dir), Version: "0.1.0", Entry: "main.to"},
		Build:   BuildSection{OutDir: "build", MaxDiagnostics: 100},
		Dir:     dir,
	}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	m := Default(filepath.Dir(path))
	meta, err := toml.DecodeFile(path, m)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%s: package.name must not be empty", path)
	}
	if m.Build.MaxDiagnostics <= 0 {
		m.Build.MaxDiagnostics = 100
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// FindManifest walks up from startDir to locate tocin.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "tocin.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadNearest finds and loads the manifest governing startDir, falling
// back to defaults when there is none.
func LoadNearest(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return nil, err
		}
		return Default(abs), nil
	}
	return Load(path)
}
