package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tocin/internal/buildpipeline"
	"tocin/internal/driver"
	"tocin/internal/prof"
	"tocin/internal/project"
	"tocin/internal/ui"
	runtimeembed "tocin/runtime"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [files...]",
	Short: "Compile tocin source files to LLVM IR",
	Long: `Build runs the whole pipeline and writes one .ll file per input.
With no arguments it compiles the project entry point from tocin.toml.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("out-dir", "o", "", "output directory (default from tocin.toml)")
	buildCmd.Flags().Bool("emit", false, "write IR to stdout instead of files")
	buildCmd.Flags().Bool("no-cache", false, "bypass the build cache")
	buildCmd.Flags().Bool("no-progress", false, "disable the interactive progress view")
	buildCmd.Flags().Bool("with-runtime", false, "copy the native runtime sources into the output directory")
	buildCmd.Flags().String("cpu-profile", "", "write a CPU profile to the given path")
	buildCmd.Flags().String("mem-profile", "", "write a heap profile to the given path")
	buildCmd.Flags().String("trace", "", "write a runtime execution trace to the given path")
}

func runBuild(cmd *cobra.Command, args []string) error {
	manifest, err := project.LoadNearest(".")
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files = []string{filepath.Join(manifest.Dir, manifest.Package.Entry)}
	}

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	opts := driver.Options{MaxDiagnostics: buildMaxDiagnostics(cmd, manifest)}
	if cache, ok := openBuildCache(cmd, manifest); ok {
		opts.Cache = cache
	}

	emit, _ := cmd.Flags().GetBool("emit")
	results, err := compileWithProgress(cmd, files, opts, emit)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		printDiags(cmd, res.Bag, res.FileSet)
		if showTimings(cmd) {
			printTimings(res)
		}
		if res.Bag.HasErrors() {
			failed++
			continue
		}
		if emit {
			fmt.Print(res.LLVM)
			continue
		}
		outPath, err := writeOutput(cmd, manifest, res.Path, res.LLVM)
		if err != nil {
			return err
		}
		if !quiet(cmd) {
			note := ""
			if res.FromCache {
				note = " (cached)"
			}
			fmt.Fprintf(os.Stdout, "wrote %s%s\n", outPath, note)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(results))
	}

	if withRuntime, _ := cmd.Flags().GetBool("with-runtime"); withRuntime && !emit {
		outDir := resolveOutDir(cmd, manifest)
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		written, err := runtimeembed.ExtractTo(outDir)
		if err != nil {
			return err
		}
		if !quiet(cmd) {
			for _, path := range written {
				fmt.Fprintf(os.Stdout, "wrote %s\n", path)
			}
		}
	}
	return nil
}

// compileWithProgress runs the pipeline, rendering the interactive view
// when stdout is a terminal and nothing else claims it.
func compileWithProgress(cmd *cobra.Command, files []string, opts driver.Options, emit bool) ([]*driver.Result, error) {
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	interactive := isTerminal(os.Stdout) && !noProgress && !emit && !quiet(cmd)
	if !interactive {
		return driver.CompileAll(cmd.Context(), files, opts)
	}

	type outcome struct {
		results []*driver.Result
		err     error
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan outcome, 1)
	opts.Sink = buildpipeline.ChannelSink{Ch: events}

	go func() {
		results, err := driver.CompileAll(cmd.Context(), files, opts)
		outcomeCh <- outcome{results: results, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("building", files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	if _, uiErr := program.Run(); uiErr != nil {
		out := <-outcomeCh
		if out.err != nil {
			return out.results, out.err
		}
		return out.results, uiErr
	}
	out := <-outcomeCh
	return out.results, out.err
}

// buildMaxDiagnostics prefers the flag when set, then the manifest.
func buildMaxDiagnostics(cmd *cobra.Command, manifest *project.Manifest) int {
	if cmd.Root().PersistentFlags().Changed("max-diagnostics") {
		return maxDiagnostics(cmd)
	}
	if manifest.Build.MaxDiagnostics > 0 {
		return manifest.Build.MaxDiagnostics
	}
	return maxDiagnostics(cmd)
}

func openBuildCache(cmd *cobra.Command, manifest *project.Manifest) (*driver.DiskCache, bool) {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	if noCache || manifest.Build.NoCache {
		return nil, false
	}
	cache, err := driver.OpenDiskCache("tocin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: build cache unavailable: %v\n", err)
		return nil, false
	}
	return cache, true
}

func resolveOutDir(cmd *cobra.Command, manifest *project.Manifest) string {
	outDir, _ := cmd.Flags().GetString("out-dir")
	if outDir != "" {
		return outDir
	}
	outDir = manifest.Build.OutDir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(manifest.Dir, outDir)
	}
	return outDir
}

func writeOutput(cmd *cobra.Command, manifest *project.Manifest, srcPath, llvmIR string) (string, error) {
	outDir := resolveOutDir(cmd, manifest)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(srcPath), ".to") + ".ll"
	outPath := filepath.Join(outDir, base)
	if err := os.WriteFile(outPath, []byte(llvmIR), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	return outPath, nil
}

func printTimings(res *driver.Result) {
	fmt.Fprintf(os.Stderr, "%s:\n", res.Path)
	for _, stage := range buildpipeline.Stages() {
		if res.Timings.Has(stage) {
			fmt.Fprintf(os.Stderr, "  %-10s %v\n", stage, res.Timings.Duration(stage))
		}
	}
}

// setupProfiling enables the requested profilers and returns a cleanup
// function that is safe to call once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	cpuPath, _ := cmd.Flags().GetString("cpu-profile")
	memPath, _ := cmd.Flags().GetString("mem-profile")
	tracePath, _ := cmd.Flags().GetString("trace")

	if cpuPath != "" {
		if err := prof.StartCPU(cpuPath); err != nil {
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
	}
	if tracePath != "" {
		if err := prof.StartTrace(tracePath); err != nil {
			prof.StopCPU()
			return nil, fmt.Errorf("start trace: %w", err)
		}
	}
	return func() {
		if tracePath != "" {
			prof.StopTrace()
		}
		if cpuPath != "" {
			prof.StopCPU()
		}
		if memPath != "" {
			if err := prof.WriteMem(memPath); err != nil {
				fmt.Fprintf(os.Stderr, "warning: write heap profile: %v\n", err)
			}
		}
	}, nil
}
