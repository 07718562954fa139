// Package diagfmt renders diagnostics and token dumps for the CLI:
// colored human-readable text or machine-readable JSON.
package diagfmt

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"tocin/internal/diag"
	"tocin/internal/source"
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Width truncates source context lines; 0 means autodetect from the
	// terminal, negative means unlimited.
	Width     int
	ShowNotes bool
}

// DetectWidth returns the terminal width of stdout, or 0 when stdout is
// not a terminal.
func DetectWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	noteColor    = color.New(color.FgCyan)
	posColor     = color.New(color.Bold)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty renders each diagnostic as
//
//	path:line:col: severity[CODE]: message
//	    <source line>
//	    ^~~~
//
// followed by its notes. Callers sort the bag first when they want
// positional order.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	width := opts.Width
	if width == 0 {
		width = DetectWidth()
	}
	for _, d := range bag.Items() {
		printOne(w, fs, d, opts, width)
	}
}

func printOne(w io.Writer, fs *source.FileSet, d diag.Diagnostic, opts PrettyOpts, width int) {
	sev := d.Severity.String()
	if opts.Color {
		if d.Severity == diag.SevWarning {
			sev = warningColor.Sprint(sev)
		} else {
			sev = errorColor.Sprint(sev)
		}
	}
	pos := position(fs, d.Primary)
	if opts.Color {
		pos = posColor.Sprint(pos)
	}
	fmt.Fprintf(w, "%s: %s[%s]: %s\n", pos, sev, d.Code, d.Message)
	printContext(w, fs, d.Primary, opts, width)

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		label := "note"
		if opts.Color {
			label = noteColor.Sprint(label)
		}
		fmt.Fprintf(w, "%s: %s: %s\n", position(fs, n.Span), label, n.Msg)
		printContext(w, fs, n.Span, opts, width)
	}
}

// printContext shows the offending line with a caret underline.
func printContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts, width int) {
	f := fs.Get(sp.File)
	if f == nil || sp.Empty() && sp.Start == 0 && sp.End == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.Line(start.Line)
	if line == "" {
		return
	}
	if width > 4 && len(line) > width-4 {
		line = line[:width-4]
	}
	fmt.Fprintf(w, "    %s\n", line)

	col := int(start.Col)
	if col < 1 {
		col = 1
	}
	n := 1
	if end.Line == start.Line && end.Col > start.Col {
		n = int(end.Col - start.Col)
	}
	if col-1+n > len(line) {
		n = len(line) - col + 1
	}
	if n < 1 {
		n = 1
	}
	marker := "^" + strings.Repeat("~", n-1)
	if opts.Color {
		marker = caretColor.Sprint(marker)
	}
	fmt.Fprintf(w, "    %s%s\n", strings.Repeat(" ", col-1), marker)
}

func position(fs *source.FileSet, sp source.Span) string {
	f := fs.Get(sp.File)
	if f == nil {
		return "<unknown>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", f.Path, start.Line, start.Col)
}

// Summary renders the closing error/warning count line.
func Summary(w io.Writer, bag *diag.Bag, useColor bool) {
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevWarning:
			warns++
		case diag.SevError, diag.SevFatal:
			errs++
		}
	}
	if errs == 0 && warns == 0 {
		return
	}
	line := fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	if useColor && errs > 0 {
		line = errorColor.Sprint(line)
	} else if useColor {
		line = warningColor.Sprint(line)
	}
	fmt.Fprintln(w, line)
}
