package llvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tocin/internal/ir"
	"tocin/internal/types"
)

func (fe *funcEmitter) emitInstr(in *ir.Instr) error {
	e := fe.emitter
	switch in.Kind {
	case ir.OpConstInt:
		// Pointer-shaped zero values arrive as integer constants.
		if e.valueType(in.Type) == "ptr" && in.Int == 0 {
			fe.define(in.Dest, "null", in.Type)
			return nil
		}
		fe.define(in.Dest, strconv.FormatInt(in.Int, 10), in.Type)
		return nil
	case ir.OpConstFloat:
		fe.define(in.Dest, formatFloat(in.Float), in.Type)
		return nil
	case ir.OpConstBool:
		fe.define(in.Dest, strconv.FormatBool(in.Bool), in.Type)
		return nil
	case ir.OpConstString:
		sc := e.internString(in.Str)
		fe.define(in.Dest, "@"+sc.globalName, in.Type)
		return nil
	case ir.OpConstUnit:
		fe.define(in.Dest, "0", in.Type)
		return nil

	case ir.OpLoad:
		t := fe.f.Locals[in.Local].Type
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = load %s, ptr %%l%d\n", dst, e.valueType(t), in.Local)
		fe.define(in.Dest, dst, t)
		return nil
	case ir.OpStore:
		t := fe.f.Locals[in.Local].Type
		v, err := fe.adapted(in.A, t)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "  store %s %s, ptr %%l%d\n", e.valueType(t), v, in.Local)
		return nil

	case ir.OpBin:
		return fe.emitBin(in)
	case ir.OpUn:
		return fe.emitUn(in)
	case ir.OpIntToFloat:
		v, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = sitofp i64 %s to double\n", dst, v)
		fe.define(in.Dest, dst, in.Type)
		return nil

	case ir.OpCall:
		return fe.emitCall(in, "@\""+in.Symbol+"\"")
	case ir.OpCallInd:
		callee, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		return fe.emitCall(in, callee)
	case ir.OpFuncAddr:
		fe.define(in.Dest, "@\""+in.Symbol+"\"", in.Type)
		return nil

	case ir.OpNew:
		dst := fe.tmp()
		if e.types.Kind(in.Type) == types.KindClass {
			fmt.Fprintf(&e.buf, "  %s = call ptr @malloc(i64 ptrtoint (ptr getelementptr (%s, ptr null, i32 1) to i64))\n",
				dst, e.structName(in.Type))
		} else {
			fmt.Fprintf(&e.buf, "  %s = call ptr @malloc(i64 16)\n", dst)
		}
		fe.define(in.Dest, dst, in.Type)
		return nil
	case ir.OpGetField:
		obj, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		class := fe.operandType(in.A)
		addr := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d\n",
			addr, e.structName(class), obj, in.Field)
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = load %s, ptr %s\n", dst, e.valueType(in.Type), addr)
		fe.define(in.Dest, dst, in.Type)
		return nil
	case ir.OpSetField:
		obj, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		v, err := fe.adapted(in.B, in.Type)
		if err != nil {
			return err
		}
		class := fe.operandType(in.A)
		addr := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = getelementptr inbounds %s, ptr %s, i32 0, i32 %d\n",
			addr, e.structName(class), obj, in.Field)
		fmt.Fprintf(&e.buf, "  store %s %s, ptr %s\n", e.valueType(in.Type), v, addr)
		return nil

	case ir.OpListNew:
		n, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = call ptr @list_new(i64 %s)\n", dst, n)
		fe.define(in.Dest, dst, in.Type)
		return nil
	case ir.OpListGet:
		lst, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		idx, err := fe.operand(in.B)
		if err != nil {
			return err
		}
		word := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = call i64 @list_get(ptr %s, i64 %s)\n", word, lst, idx)
		out, err := fe.fromWord(word, in.Type)
		if err != nil {
			return err
		}
		fe.define(in.Dest, out, in.Type)
		return nil
	case ir.OpListSet:
		lst, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		idx, err := fe.operand(in.B)
		if err != nil {
			return err
		}
		word, err := fe.toWord(in.C)
		if err != nil {
			return err
		}
		fmt.Fprintf(&e.buf, "  call void @list_set(ptr %s, i64 %s, i64 %s)\n", lst, idx, word)
		return nil
	case ir.OpListLen:
		lst, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = call i64 @list_len(ptr %s)\n", dst, lst)
		fe.define(in.Dest, dst, in.Type)
		return nil

	case ir.OpUnionNew:
		// Boxed pair: { tag, payload word }.
		box := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = call ptr @malloc(i64 16)\n", box)
		fmt.Fprintf(&e.buf, "  store i64 %d, ptr %s\n", in.Int, box)
		word, err := fe.toWord(in.A)
		if err != nil {
			return err
		}
		addr := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = getelementptr inbounds i64, ptr %s, i64 1\n", addr, box)
		fmt.Fprintf(&e.buf, "  store i64 %s, ptr %s\n", word, addr)
		fe.define(in.Dest, box, in.Type)
		return nil
	case ir.OpUnionTag:
		box, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = load i64, ptr %s\n", dst, box)
		fe.define(in.Dest, dst, in.Type)
		return nil
	case ir.OpUnionPayload:
		box, err := fe.operand(in.A)
		if err != nil {
			return err
		}
		addr := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = getelementptr inbounds i64, ptr %s, i64 1\n", addr, box)
		word := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = load i64, ptr %s\n", word, addr)
		out, err := fe.fromWord(word, in.Type)
		if err != nil {
			return err
		}
		fe.define(in.Dest, out, in.Type)
		return nil
	}
	return fmt.Errorf("%s: unknown instruction %v", fe.f.Name, in.Kind)
}

func (fe *funcEmitter) emitCall(in *ir.Instr, callee string) error {
	e := fe.emitter
	args := make([]string, len(in.Args))
	for i, a := range in.Args {
		v, err := fe.operand(a)
		if err != nil {
			return err
		}
		args[i] = fmt.Sprintf("%s %s", e.valueType(fe.operandType(a)), v)
	}
	ret := e.returnType(in.Type)
	if ret == "void" || in.Dest == ir.NoValue {
		fmt.Fprintf(&e.buf, "  call %s %s(%s)\n", ret, callee, strings.Join(args, ", "))
		return nil
	}
	dst := fe.tmp()
	fmt.Fprintf(&e.buf, "  %s = call %s %s(%s)\n", dst, ret, callee, strings.Join(args, ", "))
	fe.define(in.Dest, dst, in.Type)
	return nil
}

func (fe *funcEmitter) emitBin(in *ir.Instr) error {
	e := fe.emitter
	// Boxed or mixed operands compare as raw words; adapt both sides to
	// the operation's stated type first.
	l, err := fe.adapted(in.A, in.Type)
	if err != nil {
		return err
	}
	r, err := fe.adapted(in.B, in.Type)
	if err != nil {
		return err
	}
	lt := e.valueType(in.Type)
	isFloat := lt == "double"
	if lt == "ptr" {
		// Pointer comparisons go through integer form.
		l, err = fe.wordOf(l, "ptr")
		if err != nil {
			return err
		}
		r, err = fe.wordOf(r, "ptr")
		if err != nil {
			return err
		}
		lt = "i64"
	}

	dst := fe.tmp()
	if in.BinOp.IsCompare() {
		if isFloat {
			fmt.Fprintf(&e.buf, "  %s = fcmp %s double %s, %s\n", dst, fcmpPred(in.BinOp), l, r)
		} else {
			fmt.Fprintf(&e.buf, "  %s = icmp %s %s %s, %s\n", dst, icmpPred(in.BinOp), lt, l, r)
		}
		fe.define(in.Dest, dst, e.types.Builtins().Bool)
		return nil
	}

	var op string
	switch in.BinOp {
	case ir.BinAdd:
		op = pick(isFloat, "fadd", "add")
	case ir.BinSub:
		op = pick(isFloat, "fsub", "sub")
	case ir.BinMul:
		op = pick(isFloat, "fmul", "mul")
	case ir.BinDiv:
		op = pick(isFloat, "fdiv", "sdiv")
	case ir.BinMod:
		op = pick(isFloat, "frem", "srem")
	case ir.BinAnd:
		op = "and"
	case ir.BinOr:
		op = "or"
	default:
		return fmt.Errorf("%s: unmapped binary op %v", fe.f.Name, in.BinOp)
	}
	fmt.Fprintf(&e.buf, "  %s = %s %s %s, %s\n", dst, op, lt, l, r)
	fe.define(in.Dest, dst, in.Type)
	return nil
}

func (fe *funcEmitter) emitUn(in *ir.Instr) error {
	e := fe.emitter
	v, err := fe.operand(in.A)
	if err != nil {
		return err
	}
	dst := fe.tmp()
	switch in.UnOp {
	case ir.UnNeg:
		if e.valueType(in.Type) == "double" {
			fmt.Fprintf(&e.buf, "  %s = fneg double %s\n", dst, v)
		} else {
			fmt.Fprintf(&e.buf, "  %s = sub i64 0, %s\n", dst, v)
		}
	case ir.UnNot:
		fmt.Fprintf(&e.buf, "  %s = xor i1 %s, true\n", dst, v)
	default:
		return fmt.Errorf("%s: unmapped unary op %v", fe.f.Name, in.UnOp)
	}
	fe.define(in.Dest, dst, in.Type)
	return nil
}

// adapted yields a register's operand text cast to the LLVM type of
// want. Mismatches only arise from the boxing and widening rules, so a
// word-level round trip covers them.
func (fe *funcEmitter) adapted(v ir.Value, want types.TypeID) (string, error) {
	text, err := fe.operand(v)
	if err != nil {
		return "", err
	}
	have := fe.emitter.valueType(fe.operandType(v))
	target := fe.emitter.valueType(want)
	if have == target {
		return text, nil
	}
	word, err := fe.wordOf(text, have)
	if err != nil {
		return "", err
	}
	return fe.fromWord(word, want)
}

// toWord converts a register to its i64 word form for list and union
// payloads.
func (fe *funcEmitter) toWord(v ir.Value) (string, error) {
	text, err := fe.operand(v)
	if err != nil {
		return "", err
	}
	return fe.wordOf(text, fe.emitter.valueType(fe.operandType(v)))
}

func (fe *funcEmitter) wordOf(text, llvmType string) (string, error) {
	e := fe.emitter
	switch llvmType {
	case "i64":
		return text, nil
	case "double":
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = bitcast double %s to i64\n", dst, text)
		return dst, nil
	case "i1":
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = zext i1 %s to i64\n", dst, text)
		return dst, nil
	case "ptr":
		if text == "null" {
			return "0", nil
		}
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = ptrtoint ptr %s to i64\n", dst, text)
		return dst, nil
	}
	return "", fmt.Errorf("%s: no word form for %s", fe.f.Name, llvmType)
}

// fromWord converts an i64 word back into the value form of t.
func (fe *funcEmitter) fromWord(word string, t types.TypeID) (string, error) {
	e := fe.emitter
	switch e.valueType(t) {
	case "i64":
		return word, nil
	case "double":
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = bitcast i64 %s to double\n", dst, word)
		return dst, nil
	case "i1":
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = trunc i64 %s to i1\n", dst, word)
		return dst, nil
	case "ptr":
		dst := fe.tmp()
		fmt.Fprintf(&e.buf, "  %s = inttoptr i64 %s to ptr\n", dst, word)
		return dst, nil
	}
	return "", fmt.Errorf("%s: no value form for %s", fe.f.Name, e.types.Format(t))
}

func icmpPred(op ir.BinOp) string {
	switch op {
	case ir.BinLt:
		return "slt"
	case ir.BinLe:
		return "sle"
	case ir.BinGt:
		return "sgt"
	case ir.BinGe:
		return "sge"
	case ir.BinEq:
		return "eq"
	case ir.BinNe:
		return "ne"
	}
	return "eq"
}

func fcmpPred(op ir.BinOp) string {
	switch op {
	case ir.BinLt:
		return "olt"
	case ir.BinLe:
		return "ole"
	case ir.BinGt:
		return "ogt"
	case ir.BinGe:
		return "oge"
	case ir.BinEq:
		return "oeq"
	case ir.BinNe:
		return "one"
	}
	return "oeq"
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// formatFloat renders a double constant in LLVM's hexadecimal bit form,
// which round-trips exactly.
func formatFloat(f float64) string {
	return fmt.Sprintf("0x%016X", math.Float64bits(f))
}
