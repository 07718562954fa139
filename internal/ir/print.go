package ir

import (
	"fmt"
	"strconv"
	"strings"

	"tocin/internal/types"
)

// Print renders the module in a stable textual form for tests, debug
// dumps, and golden files.
func Print(ti *types.Interner, m *Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s\n", m.Name)
	for _, e := range m.Externs {
		parts := make([]string, len(e.Params))
		for i, p := range e.Params {
			parts[i] = ti.Format(p)
		}
		fmt.Fprintf(&sb, "extern @%s(%s) -> %s\n", e.Symbol, strings.Join(parts, ", "), ti.Format(e.Result))
	}
	for _, f := range m.Funcs {
		sb.WriteByte('\n')
		printFunc(&sb, ti, f)
	}
	return sb.String()
}

func printFunc(sb *strings.Builder, ti *types.Interner, f *Func) {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, ti.Format(p.Type))
	}
	fmt.Fprintf(sb, "func @%s(%s) -> %s {\n", f.Name, strings.Join(parts, ", "), ti.Format(f.Result))
	for i, l := range f.Locals {
		fmt.Fprintf(sb, "  slot%d %s: %s\n", i, l.Name, ti.Format(l.Type))
	}
	for _, b := range f.Blocks {
		fmt.Fprintf(sb, "%s:\n", b.Name)
		for i := range b.Instrs {
			fmt.Fprintf(sb, "  %s\n", formatInstr(&b.Instrs[i]))
		}
		fmt.Fprintf(sb, "  %s\n", formatTerm(f, b.Term))
	}
	sb.WriteString("}\n")
}

func formatInstr(in *Instr) string {
	dest := ""
	if in.Dest != NoValue {
		dest = fmt.Sprintf("%%%d = ", in.Dest)
	}
	switch in.Kind {
	case OpConstInt:
		return fmt.Sprintf("%s%s %d", dest, in.Kind, in.Int)
	case OpConstFloat:
		return fmt.Sprintf("%s%s %g", dest, in.Kind, in.Float)
	case OpConstBool:
		return fmt.Sprintf("%s%s %t", dest, in.Kind, in.Bool)
	case OpConstString:
		return fmt.Sprintf("%s%s %s", dest, in.Kind, strconv.Quote(in.Str))
	case OpConstUnit:
		return fmt.Sprintf("%s%s", dest, in.Kind)
	case OpLoad:
		return fmt.Sprintf("%s%s slot%d", dest, in.Kind, in.Local)
	case OpStore:
		return fmt.Sprintf("%s slot%d, %%%d", in.Kind, in.Local, in.A)
	case OpBin:
		return fmt.Sprintf("%s%s %%%d, %%%d", dest, in.BinOp, in.A, in.B)
	case OpUn:
		return fmt.Sprintf("%s%s %%%d", dest, in.UnOp, in.A)
	case OpIntToFloat:
		return fmt.Sprintf("%s%s %%%d", dest, in.Kind, in.A)
	case OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fmt.Sprintf("%%%d", a)
		}
		return fmt.Sprintf("%s%s @%s(%s)", dest, in.Kind, in.Symbol, strings.Join(args, ", "))
	case OpFuncAddr:
		return fmt.Sprintf("%s%s @%s", dest, in.Kind, in.Symbol)
	case OpCallInd:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = fmt.Sprintf("%%%d", a)
		}
		return fmt.Sprintf("%s%s %%%d(%s)", dest, in.Kind, in.A, strings.Join(args, ", "))
	case OpNew:
		return fmt.Sprintf("%s%s", dest, in.Kind)
	case OpGetField:
		return fmt.Sprintf("%s%s %%%d.%d", dest, in.Kind, in.A, in.Field)
	case OpSetField:
		return fmt.Sprintf("%s %%%d.%d, %%%d", in.Kind, in.A, in.Field, in.B)
	case OpListNew:
		return fmt.Sprintf("%s%s len=%%%d", dest, in.Kind, in.A)
	case OpListGet:
		return fmt.Sprintf("%s%s %%%d[%%%d]", dest, in.Kind, in.A, in.B)
	case OpListSet:
		return fmt.Sprintf("%s %%%d[%%%d], %%%d", in.Kind, in.A, in.B, in.C)
	case OpListLen:
		return fmt.Sprintf("%s%s %%%d", dest, in.Kind, in.A)
	case OpUnionNew:
		return fmt.Sprintf("%s%s tag=%d, %%%d", dest, in.Kind, in.Int, in.A)
	case OpUnionTag, OpUnionPayload:
		return fmt.Sprintf("%s%s %%%d", dest, in.Kind, in.A)
	}
	return fmt.Sprintf("%s%s", dest, in.Kind)
}

func formatTerm(f *Func, t *Term) string {
	if t == nil {
		return "<missing terminator>"
	}
	name := func(id BlockID) string {
		if int(id) < len(f.Blocks) {
			return f.Blocks[id].Name
		}
		return fmt.Sprintf("bb%d?", id)
	}
	switch t.Kind {
	case TermRet:
		if t.Value == NoValue {
			return "ret"
		}
		return fmt.Sprintf("ret %%%d", t.Value)
	case TermBr:
		return fmt.Sprintf("br %s", name(t.Target))
	case TermCondBr:
		return fmt.Sprintf("condbr %%%d, %s, %s", t.Cond, name(t.Then), name(t.Else))
	case TermUnreachable:
		return "unreachable"
	}
	return "term(?)"
}
