// Package llvm renders an ir.Module as textual LLVM IR. The emitter
// targets the opaque-pointer dialect: every heap value (string, class,
// list, boxed union) is a ptr, and list payloads travel as i64 words.
package llvm

import (
	"fmt"
	"strings"

	"tocin/internal/ir"
	"tocin/internal/types"
)

type stringConst struct {
	raw        string
	bytes      []byte
	globalName string
}

// Emitter renders one module.
type Emitter struct {
	mod   *ir.Module
	types *types.Interner
	buf   strings.Builder

	stringConsts map[string]*stringConst
	declared     map[string]bool
}

// EmitModule renders mod as an LLVM IR translation unit.
func EmitModule(mod *ir.Module, ti *types.Interner) (string, error) {
	e := &Emitter{
		mod:          mod,
		types:        ti,
		stringConsts: make(map[string]*stringConst),
		declared:     make(map[string]bool),
	}
	if mod == nil {
		return "", nil
	}
	e.collectStringConsts()
	e.emitPreamble()
	e.emitStructTypes()
	e.emitRuntimeDecls()
	e.emitStringConsts()
	for _, f := range mod.Funcs {
		if err := e.emitFunction(f); err != nil {
			return "", err
		}
	}
	return e.buf.String(), nil
}

func (e *Emitter) emitPreamble() {
	fmt.Fprintf(&e.buf, "; module %s\n", e.mod.Name)
	e.buf.WriteString("target triple = \"x86_64-linux-gnu\"\n\n")
}

// emitStructTypes declares one named struct per instantiated class, in
// the flattened base-first field layout lowering indexes into.
func (e *Emitter) emitStructTypes() {
	for _, class := range e.mod.Classes {
		fields := e.flatFields(class)
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = e.valueType(f.Type)
		}
		fmt.Fprintf(&e.buf, "%s = type { %s }\n", e.structName(class), strings.Join(parts, ", "))
	}
	if len(e.mod.Classes) > 0 {
		e.buf.WriteString("\n")
	}
}

// emitRuntimeDecls declares the module's externs plus the allocation and
// list primitives lowering relies on unconditionally.
func (e *Emitter) emitRuntimeDecls() {
	e.declare("malloc", "ptr", "i64")
	e.declare("list_new", "ptr", "i64")
	e.declare("list_get", "i64", "ptr", "i64")
	e.declare("list_set", "void", "ptr", "i64", "i64")
	e.declare("list_len", "i64", "ptr")
	for _, ext := range e.mod.Externs {
		params := make([]string, len(ext.Params))
		for i, p := range ext.Params {
			params[i] = e.valueType(p)
		}
		e.declare(ext.Symbol, e.returnType(ext.Result), params...)
	}
	e.buf.WriteString("\n")
}

func (e *Emitter) declare(name, ret string, params ...string) {
	if e.declared[name] {
		return
	}
	e.declared[name] = true
	fmt.Fprintf(&e.buf, "declare %s @%s(%s)\n", ret, name, strings.Join(params, ", "))
}

func (e *Emitter) collectStringConsts() {
	for _, f := range e.mod.Funcs {
		for _, b := range f.Blocks {
			for i := range b.Instrs {
				in := &b.Instrs[i]
				if in.Kind != ir.OpConstString {
					continue
				}
				e.internString(in.Str)
			}
		}
	}
}

func (e *Emitter) internString(raw string) *stringConst {
	if sc, ok := e.stringConsts[raw]; ok {
		return sc
	}
	sc := &stringConst{
		raw:        raw,
		bytes:      append([]byte(raw), 0),
		globalName: fmt.Sprintf("str.%d", len(e.stringConsts)),
	}
	e.stringConsts[raw] = sc
	return sc
}

func (e *Emitter) emitStringConsts() {
	// Deterministic order: globals were numbered at intern time.
	ordered := make([]*stringConst, len(e.stringConsts))
	for _, sc := range e.stringConsts {
		var idx int
		fmt.Sscanf(sc.globalName, "str.%d", &idx)
		ordered[idx] = sc
	}
	for _, sc := range ordered {
		fmt.Fprintf(&e.buf, "@%s = private unnamed_addr constant [%d x i8] c\"%s\"\n",
			sc.globalName, len(sc.bytes), escapeBytes(sc.bytes))
	}
	if len(ordered) > 0 {
		e.buf.WriteString("\n")
	}
}

func escapeBytes(bs []byte) string {
	var sb strings.Builder
	for _, b := range bs {
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	return sb.String()
}

// structName renders a class's LLVM struct identifier. Mangled instance
// names carry '$', so every name is quoted.
func (e *Emitter) structName(class types.TypeID) string {
	return fmt.Sprintf("%%\"%s\"", e.types.Format(class))
}

func (e *Emitter) flatFields(class types.TypeID) []types.Field {
	info, ok := e.types.ClassInfo(class)
	if !ok {
		return nil
	}
	var fields []types.Field
	if info.Base != types.NoTypeID {
		fields = append(fields, e.flatFields(info.Base)...)
	}
	return append(fields, info.Fields...)
}

// valueType maps a checked type to its LLVM value type. Unit is storable
// as a zero word so locals of type None do not need special cases.
func (e *Emitter) valueType(t types.TypeID) string {
	switch e.types.Kind(t) {
	case types.KindFloat:
		return "double"
	case types.KindBool:
		return "i1"
	case types.KindString, types.KindClass, types.KindList,
		types.KindUnion, types.KindOptional, types.KindFunction:
		return "ptr"
	default:
		return "i64"
	}
}

// returnType is valueType with None mapped to void.
func (e *Emitter) returnType(t types.TypeID) string {
	if e.types.Kind(t) == types.KindUnit {
		return "void"
	}
	return e.valueType(t)
}
