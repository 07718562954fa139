package driver

import (
	"tocin/internal/ast"
	"tocin/internal/diag"
	"tocin/internal/lexer"
	"tocin/internal/parser"
	"tocin/internal/sema"
	"tocin/internal/source"
	"tocin/internal/token"
	"tocin/internal/types"
)

// TokenizeResult is the outcome of the lex-only pipeline.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes one file and stops.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	toks := lexer.Tokenize(file, diag.BagReporter{Bag: bag})
	return &TokenizeResult{FileSet: fs, File: file, Tokens: toks, Bag: bag}, nil
}

// ParseResult is the outcome of the parse pipeline.
type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	AST     *ast.File
	Strings *source.Interner
	Bag     *diag.Bag
}

// Parse lexes and parses one file and stops.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	strs := source.NewInterner()
	tree := parser.ParseFile(file, strs, diag.BagReporter{Bag: bag})
	return &ParseResult{FileSet: fs, File: file, AST: tree, Strings: strs, Bag: bag}, nil
}

// CheckResult is the outcome of the front-end pipeline through sema.
type CheckResult struct {
	FileSet *source.FileSet
	File    *source.File
	AST     *ast.File
	Checked *sema.Result
	Bag     *diag.Bag
}

// Check runs lexing, parsing, and semantic analysis and stops before
// lowering. Checking still runs when parsing produced errors, so one
// invocation surfaces both kinds of diagnostics.
func Check(path string, maxDiagnostics int) (*CheckResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	bag := diag.NewBag(maxDiagnostics)
	strs := source.NewInterner()
	reporter := diag.BagReporter{Bag: bag}
	tree := parser.ParseFile(file, strs, reporter)
	checked := sema.NewChecker(types.NewInterner(strs), strs, reporter).CheckFile(tree)
	return &CheckResult{FileSet: fs, File: file, AST: tree, Checked: checked, Bag: bag}, nil
}
