// Package driver orchestrates the compilation pipeline: tokenize,
// parse, check, lower, emit. Each stage runs only when the previous one
// produced no errors; diagnostics accumulate in one bag per file.
package driver

import (
	"time"

	"tocin/internal/ast"
	"tocin/internal/backend/llvm"
	"tocin/internal/buildpipeline"
	"tocin/internal/diag"
	"tocin/internal/ir"
	"tocin/internal/irgen"
	"tocin/internal/lexer"
	"tocin/internal/observ"
	"tocin/internal/parser"
	"tocin/internal/project"
	"tocin/internal/sema"
	"tocin/internal/source"
	"tocin/internal/token"
	"tocin/internal/types"
)

// Options configures one compilation.
type Options struct {
	// MaxDiagnostics bounds the bag; zero means the default of 100.
	MaxDiagnostics int
	// Sink receives progress events; nil means none.
	Sink buildpipeline.ProgressSink
	// Cache, when set, short-circuits unchanged files.
	Cache *DiskCache
	// Timer, when set, records phase durations.
	Timer *observ.Timer
}

func (o Options) maxDiags() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}

func (o Options) sink() buildpipeline.ProgressSink {
	if o.Sink == nil {
		return buildpipeline.NopSink{}
	}
	return o.Sink
}

// Result is the outcome of compiling one file. LLVM is empty when any
// stage reported errors.
type Result struct {
	Path      string
	FileSet   *source.FileSet
	Bag       *diag.Bag
	Tokens    []token.Token
	AST       *ast.File
	Module    *ir.Module
	LLVM      string
	Timings   buildpipeline.Timings
	FromCache bool
}

// CompileFile runs the whole pipeline over the file at path.
func CompileFile(path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return compile(fs, id, opts)
}

// CompileSource compiles in-memory content under a display name, used
// by tests and stdin input.
func CompileSource(name string, content []byte, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, content)
	return compile(fs, id, opts)
}

func compile(fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	file := fs.Get(id)
	res := &Result{Path: file.Path, FileSet: fs, Bag: diag.NewBag(opts.maxDiags())}
	sink := opts.sink()

	key := cacheKey(file)
	if opts.Cache != nil {
		var payload DiskPayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok && !payload.HadErrors {
			res.LLVM = payload.LLVM
			res.FromCache = true
			sink.OnEvent(buildpipeline.Event{File: file.Path, Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusCached})
			return res, nil
		}
	}

	reporter := diag.BagReporter{Bag: res.Bag}
	strs := source.NewInterner()

	res.Tokens = runStage(res, sink, opts.Timer, buildpipeline.StageTokenize, func() []token.Token {
		return lexer.Tokenize(file, reporter)
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	res.AST = runStage(res, sink, opts.Timer, buildpipeline.StageParse, func() *ast.File {
		return parser.Parse(res.Tokens, id, strs, reporter)
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	checked := runStage(res, sink, opts.Timer, buildpipeline.StageCheck, func() *sema.Result {
		return sema.NewChecker(types.NewInterner(strs), strs, reporter).CheckFile(res.AST)
	})
	if res.Bag.HasErrors() {
		return res, nil
	}

	res.Module = runStage(res, sink, opts.Timer, buildpipeline.StageLower, func() *ir.Module {
		return irgen.Generate(checked.Types, strs, checked, res.AST, moduleName(file.Path), reporter)
	})
	if res.Bag.HasErrors() {
		return res, nil
	}
	if err := ir.Validate(checked.Types, res.Module); err != nil {
		diag.Fatalf(reporter, diag.InternalAssertionFailed, source.Span{File: id}, err.Error())
		return res, nil
	}

	var emitErr error
	res.LLVM = runStage(res, sink, opts.Timer, buildpipeline.StageEmit, func() string {
		out, err := llvm.EmitModule(res.Module, checked.Types)
		emitErr = err
		return out
	})
	if emitErr != nil {
		diag.Fatalf(reporter, diag.InternalAssertionFailed, source.Span{File: id}, emitErr.Error())
		return res, nil
	}

	if opts.Cache != nil {
		payload := &DiskPayload{
			Schema:      diskCacheSchemaVersion,
			Path:        file.Path,
			ContentHash: project.Digest(file.Hash),
			LLVM:        res.LLVM,
			HadErrors:   res.Bag.HasErrors(),
		}
		// Cache write failures are not compilation failures.
		_ = opts.Cache.Put(key, payload)
	}
	return res, nil
}

// runStage times one stage, publishes its progress events, and records
// the diagnostic delta it produced.
func runStage[T any](res *Result, sink buildpipeline.ProgressSink, timer *observ.Timer,
	stage buildpipeline.Stage, fn func() T) T {
	sink.OnEvent(buildpipeline.Event{File: res.Path, Stage: stage, Status: buildpipeline.StatusWorking})
	var idx int
	if timer != nil {
		idx = timer.Begin(string(stage))
	}
	before := res.Bag.Len()
	start := time.Now()
	out := fn()
	elapsed := time.Since(start)
	if timer != nil {
		timer.End(idx, res.Path)
	}
	res.Timings.Set(stage, elapsed)
	status := buildpipeline.StatusDone
	if res.Bag.HasErrors() {
		status = buildpipeline.StatusError
	}
	sink.OnEvent(buildpipeline.Event{
		File:        res.Path,
		Stage:       stage,
		Status:      status,
		Elapsed:     elapsed,
		Diagnostics: res.Bag.Len() - before,
	})
	return out
}

func cacheKey(f *source.File) project.Digest {
	return project.HashStrings("tocin-llvm-v1", f.Path, string(f.Content))
}

// moduleName derives the emitted module's name from the file path.
func moduleName(path string) string {
	name := path
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '/' {
			name = name[i+1:]
			break
		}
	}
	if n := len(name); n > 3 && name[n-3:] == ".to" {
		name = name[:n-3]
	}
	if name == "" {
		return "main"
	}
	return name
}
