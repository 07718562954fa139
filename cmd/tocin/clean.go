package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tocin/internal/driver"
	"tocin/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build outputs and the disk cache",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("cache-only", false, "drop the disk cache but keep build outputs")
}

func runClean(cmd *cobra.Command, args []string) error {
	cacheOnly, err := cmd.Flags().GetBool("cache-only")
	if err != nil {
		return err
	}

	cache, err := driver.OpenDiskCache("tocin")
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("drop cache: %w", err)
	}
	if !quiet(cmd) {
		fmt.Fprintln(os.Stdout, "dropped disk cache")
	}
	if cacheOnly {
		return nil
	}

	startDir := "."
	if len(args) > 0 && args[0] != "" {
		startDir = args[0]
	}
	manifest, err := project.LoadNearest(startDir)
	if err != nil {
		return err
	}
	outDir := manifest.Build.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(manifest.Dir, outDir)
	}
	info, err := os.Stat(outDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %q: %w", outDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", outDir)
	}
	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("remove %q: %w", outDir, err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(os.Stdout, "removed %s\n", outDir)
	}
	return nil
}
