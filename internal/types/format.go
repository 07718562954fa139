package types

import (
	"fmt"
	"strings"
)

// Format renders the canonical textual form of a type. The same text is
// used in diagnostics and as the base for monomorphization name mangling,
// so it must be deterministic.
func (in *Interner) Format(id TypeID) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindInvalid:
		return "<error>"
	case KindUnit:
		return "None"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindOptional:
		return in.Format(t.Elem) + "?"
	case KindList:
		return "list<" + in.Format(t.Elem) + ">"
	case KindClass:
		return in.strings.MustLookup(in.classes[t.Payload].Name)
	case KindTrait:
		return in.strings.MustLookup(in.traits[t.Payload].Name)
	case KindTypeParam:
		return in.strings.MustLookup(in.params[t.Payload].Name)
	case KindFunction:
		info := in.fns[t.Payload]
		parts := make([]string, len(info.Params))
		for i, p := range info.Params {
			parts[i] = in.Format(p)
		}
		return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), in.Format(info.Result))
	case KindUnion:
		info := in.unions[t.Payload]
		parts := make([]string, len(info.Members))
		for i, m := range info.Members {
			parts[i] = in.Format(m)
		}
		return strings.Join(parts, " | ")
	case KindGeneric:
		info := in.generics[t.Payload]
		parts := make([]string, len(info.Args))
		for i, a := range info.Args {
			parts[i] = in.Format(a)
		}
		return fmt.Sprintf("%s<%s>", in.strings.MustLookup(info.Name), strings.Join(parts, ", "))
	}
	return "<unknown>"
}

// Mangle builds a flat symbol-safe name for a monomorphized instantiation,
// e.g. Box$int or pair$int$float.
func (in *Interner) Mangle(base string, args []TypeID) string {
	var sb strings.Builder
	sb.WriteString(base)
	for _, a := range args {
		sb.WriteByte('$')
		s := in.Format(a)
		for _, r := range s {
			switch r {
			case ' ', '(', ')', ',', '<', '>', '-', '|', '?':
				sb.WriteByte('_')
			default:
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
