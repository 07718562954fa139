package llvm

import (
	"fmt"
	"strings"

	"tocin/internal/ir"
	"tocin/internal/types"
)

// funcEmitter carries per-function state: the register-to-operand map
// and the temporary counter.
type funcEmitter struct {
	emitter *Emitter
	f       *ir.Func
	tmpID   int

	// vals maps each ir register to its LLVM operand text; valTypes
	// tracks the checked type the register carries.
	vals     map[ir.Value]string
	valTypes map[ir.Value]types.TypeID
}

func (e *Emitter) emitFunction(f *ir.Func) error {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%p%d", e.valueType(p.Type), i)
	}
	fmt.Fprintf(&e.buf, "define %s @\"%s\"(%s) {\n", e.returnType(f.Result), f.Name, strings.Join(params, ", "))

	fe := &funcEmitter{
		emitter:  e,
		f:        f,
		vals:     make(map[ir.Value]string),
		valTypes: make(map[ir.Value]types.TypeID),
	}

	for i, b := range f.Blocks {
		fmt.Fprintf(&e.buf, "%s:\n", b.Name)
		if i == 0 {
			fe.emitAllocas()
			fe.emitParamStores()
		}
		for j := range b.Instrs {
			if err := fe.emitInstr(&b.Instrs[j]); err != nil {
				return err
			}
		}
		if err := fe.emitTerminator(b.Term); err != nil {
			return err
		}
	}
	e.buf.WriteString("}\n\n")
	return nil
}

// emitAllocas reserves one stack slot per local in the entry block.
func (fe *funcEmitter) emitAllocas() {
	for i, l := range fe.f.Locals {
		fmt.Fprintf(&fe.emitter.buf, "  %%l%d = alloca %s\n", i, fe.emitter.valueType(l.Type))
	}
}

// emitParamStores spills the incoming parameters into their slots.
func (fe *funcEmitter) emitParamStores() {
	for i, p := range fe.f.Params {
		fmt.Fprintf(&fe.emitter.buf, "  store %s %%p%d, ptr %%l%d\n", fe.emitter.valueType(p.Type), i, i)
	}
}

func (fe *funcEmitter) emitTerminator(t *ir.Term) error {
	e := fe.emitter
	if t == nil {
		return fmt.Errorf("%s: block without terminator", fe.f.Name)
	}
	switch t.Kind {
	case ir.TermRet:
		if e.types.Kind(fe.f.Result) == types.KindUnit || t.Value == ir.NoValue {
			e.buf.WriteString("  ret void\n")
			return nil
		}
		v, err := fe.operand(t.Value)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "  ret %s %s\n", e.valueType(fe.f.Result), v)
		return nil
	case ir.TermBr:
		fmt.Fprintf(&e.buf, "  br label %%%s\n", fe.label(t.Target))
		return nil
	case ir.TermCondBr:
		cond, err := fe.operand(t.Cond)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "  br i1 %s, label %%%s, label %%%s\n", cond, fe.label(t.Then), fe.label(t.Else))
		return nil
	case ir.TermUnreachable:
		e.buf.WriteString("  unreachable\n")
		return nil
	}
	return fmt.Errorf("%s: unknown terminator %v", fe.f.Name, t.Kind)
}

func (fe *funcEmitter) label(id ir.BlockID) string {
	if int(id) < len(fe.f.Blocks) {
		return fe.f.Blocks[id].Name
	}
	return fmt.Sprintf("bb%d", id)
}

// tmp mints a fresh SSA temporary.
func (fe *funcEmitter) tmp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

// define records the operand text and type a register resolved to.
func (fe *funcEmitter) define(v ir.Value, text string, t types.TypeID) {
	if v == ir.NoValue {
		return
	}
	fe.vals[v] = text
	fe.valTypes[v] = t
}

func (fe *funcEmitter) operand(v ir.Value) (string, error) {
	text, ok := fe.vals[v]
	if !ok {
		return "", fmt.Errorf("%s: use of undefined value %%%d", fe.f.Name, v)
	}
	return text, nil
}

func (fe *funcEmitter) operandType(v ir.Value) types.TypeID {
	return fe.valTypes[v]
}
