package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"tocin/internal/ast"
	"tocin/internal/source"
)

// astPrinter walks the tree writing one node per line, indented by
// depth.
type astPrinter struct {
	w       io.Writer
	strings *source.Interner
	depth   int
}

// ASTPretty renders the syntax tree in indented one-node-per-line form.
func ASTPretty(w io.Writer, file *ast.File, strs *source.Interner) {
	p := &astPrinter{w: w, strings: strs}
	fmt.Fprintf(w, "File (%d statements)\n", len(file.Stmts))
	p.depth = 1
	for _, s := range file.Stmts {
		p.stmt(s)
	}
}

func (p *astPrinter) line(format string, args ...any) {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.depth), fmt.Sprintf(format, args...))
}

func (p *astPrinter) nested(fn func()) {
	p.depth++
	fn()
	p.depth--
}

func (p *astPrinter) name(id source.StringID) string {
	s, _ := p.strings.Lookup(id)
	return s
}

func (p *astPrinter) stmt(s *ast.Stmt) {
	if s == nil {
		p.line("<nil>")
		return
	}
	switch data := s.Data.(type) {
	case ast.ExprStmtData:
		p.line("ExprStmt")
		p.nested(func() { p.expr(data.Expr) })
	case ast.VarDeclData:
		kind := "let"
		if data.Const {
			kind = "const"
		}
		p.line("VarDecl %s %s", kind, p.name(data.Name))
		p.nested(func() {
			if data.Declared != nil {
				p.line("type: %s", p.typeExpr(data.Declared))
			}
			if data.Init != nil {
				p.expr(data.Init)
			}
		})
	case ast.AssignData:
		p.line("Assign")
		p.nested(func() {
			p.expr(data.Target)
			p.expr(data.Value)
		})
	case ast.BlockData:
		p.line("Block (%d statements)", len(data.Stmts))
		p.nested(func() {
			for _, inner := range data.Stmts {
				p.stmt(inner)
			}
		})
	case ast.IfData:
		p.line("If")
		p.nested(func() {
			p.expr(data.Cond)
			p.stmt(data.Then)
			if data.Else != nil {
				p.stmt(data.Else)
			}
		})
	case ast.WhileData:
		p.line("While")
		p.nested(func() {
			p.expr(data.Cond)
			p.stmt(data.Body)
		})
	case ast.ForData:
		p.line("For")
		p.nested(func() {
			if data.Init != nil {
				p.stmt(data.Init)
			}
			if data.Cond != nil {
				p.expr(data.Cond)
			}
			if data.Update != nil {
				p.stmt(data.Update)
			}
			p.stmt(data.Body)
		})
	case ast.ReturnData:
		p.line("Return")
		if data.Value != nil {
			p.nested(func() { p.expr(data.Value) })
		}
	case ast.BreakData:
		p.line("Break")
	case ast.ContinueData:
		p.line("Continue")
	case ast.FuncData:
		p.line("Func %s%s", p.name(data.Name), p.funcSuffix(data))
		p.nested(func() { p.stmt(data.Body) })
	case ast.ClassData:
		base := ""
		if data.Base != source.NoStringID {
			base = " : " + p.name(data.Base)
		}
		p.line("Class %s%s (%d fields, %d methods)", p.name(data.Name), base, len(data.Fields), len(data.Methods))
		p.nested(func() {
			for _, f := range data.Fields {
				p.line("field %s: %s", p.name(f.Name), p.typeExpr(f.Type))
			}
			for _, m := range data.Methods {
				p.stmt(m)
			}
		})
	case ast.TraitData:
		p.line("Trait %s (%d methods)", p.name(data.Name), len(data.Methods))
		p.nested(func() {
			for _, m := range data.Methods {
				p.line("def %s", p.name(m.Name))
			}
		})
	case ast.MatchData:
		p.line("Match (%d cases)", len(data.Cases))
		p.nested(func() {
			p.expr(data.Scrutinee)
			for i := range data.Cases {
				p.line("case %s", p.pattern(data.Cases[i].Pattern))
				p.nested(func() { p.stmt(data.Cases[i].Body) })
			}
		})
	default:
		p.line("%T", data)
	}
}

func (p *astPrinter) funcSuffix(data ast.FuncData) string {
	var sb strings.Builder
	if data.Async {
		sb.WriteString(" async")
	}
	if len(data.TypeParams) > 0 {
		names := make([]string, len(data.TypeParams))
		for i, tp := range data.TypeParams {
			names[i] = p.name(tp.Name)
		}
		sb.WriteString("<" + strings.Join(names, ", ") + ">")
	}
	fmt.Fprintf(&sb, " (%d params)", len(data.Params))
	return sb.String()
}

func (p *astPrinter) expr(e *ast.Expr) {
	if e == nil {
		p.line("<nil>")
		return
	}
	switch data := e.Data.(type) {
	case ast.LiteralData:
		p.line("Literal %s", data.Text)
	case ast.VarRefData:
		p.line("VarRef %s", p.name(data.Name))
	case ast.UnaryData:
		p.line("Unary %s", data.Op)
		p.nested(func() { p.expr(data.Operand) })
	case ast.BinaryData:
		p.line("Binary %s", data.Op)
		p.nested(func() {
			p.expr(data.Left)
			p.expr(data.Right)
		})
	case ast.CallData:
		p.line("Call (%d args)", len(data.Args))
		p.nested(func() {
			p.expr(data.Callee)
			for _, a := range data.Args {
				p.expr(a)
			}
		})
	case ast.FieldData:
		p.line("Field .%s", p.name(data.Name))
		p.nested(func() { p.expr(data.Object) })
	case ast.IndexData:
		p.line("Index")
		p.nested(func() {
			p.expr(data.Object)
			p.expr(data.Index)
		})
	case ast.LambdaData:
		p.line("Lambda (%d params)", len(data.Params))
		p.nested(func() { p.stmt(data.Body) })
	case ast.AwaitData:
		p.line("Await")
		p.nested(func() { p.expr(data.Operand) })
	case ast.NewData:
		p.line("New %s (%d args)", p.name(data.Class), len(data.Args))
		p.nested(func() {
			for _, a := range data.Args {
				p.expr(a)
			}
		})
	case ast.GroupData:
		p.line("Group")
		p.nested(func() { p.expr(data.Inner) })
	case ast.ListData:
		p.line("List (%d elements)", len(data.Elems))
		p.nested(func() {
			for _, el := range data.Elems {
				p.expr(el)
			}
		})
	default:
		p.line("%T", data)
	}
}

func (p *astPrinter) typeExpr(te *ast.TypeExpr) string {
	if te == nil {
		return "None"
	}
	switch te.Kind {
	case ast.TypeName:
		name := p.name(te.Name)
		if len(te.Args) > 0 {
			args := make([]string, len(te.Args))
			for i, a := range te.Args {
				args[i] = p.typeExpr(a)
			}
			return name + "<" + strings.Join(args, ", ") + ">"
		}
		return name
	case ast.TypeOptional:
		return p.typeExpr(te.Elem) + "?"
	case ast.TypeFunction:
		params := make([]string, len(te.Params))
		for i, pt := range te.Params {
			params[i] = p.typeExpr(pt)
		}
		return "(" + strings.Join(params, ", ") + ") -> " + p.typeExpr(te.Result)
	case ast.TypeUnion:
		members := make([]string, len(te.Members))
		for i, m := range te.Members {
			members[i] = p.typeExpr(m)
		}
		return strings.Join(members, " | ")
	}
	return "?"
}

func (p *astPrinter) pattern(pat *ast.Pattern) string {
	if pat == nil {
		return "<nil>"
	}
	switch pat.Kind {
	case ast.PatWildcard:
		return "_"
	case ast.PatBinding:
		return p.name(pat.Name)
	case ast.PatLiteral:
		if lit, ok := pat.Literal.Data.(ast.LiteralData); ok {
			return lit.Text
		}
		return "<literal>"
	case ast.PatConstructor:
		subs := make([]string, len(pat.Subs))
		for i, sub := range pat.Subs {
			subs[i] = p.pattern(sub)
		}
		return p.name(pat.Name) + "(" + strings.Join(subs, ", ") + ")"
	}
	return "?"
}
