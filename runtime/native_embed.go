// Package runtimeembed carries the native runtime sources the emitted
// LLVM IR links against.
package runtimeembed

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed native/*.c native/*.h
var nativeRuntimeFS embed.FS

// NativeRuntimeFS exposes the embedded runtime sources.
func NativeRuntimeFS() fs.FS {
	return nativeRuntimeFS
}

// ExtractTo writes the runtime sources into dir so they can be compiled
// alongside the emitted .ll files. Existing files are overwritten.
func ExtractTo(dir string) ([]string, error) {
	entries, err := fs.ReadDir(nativeRuntimeFS, "native")
	if err != nil {
		return nil, fmt.Errorf("read embedded runtime: %w", err)
	}
	written := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(nativeRuntimeFS, "native/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read embedded runtime: %w", err)
		}
		dst := filepath.Join(dir, entry.Name())
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}
