package types

import "tocin/internal/source"

// Bindings maps type-parameter names to concrete argument types for one
// generic instantiation.
type Bindings map[source.StringID]TypeID

// Substitute replaces free type parameters in t according to bindings.
// Type terms carry no binders of their own (parameters are declared on
// functions and classes, not inside types), so the recursion cannot
// capture: shadowing across nested generics is resolved by the checker
// building a fresh Bindings per instantiation frame.
func (in *Interner) Substitute(t TypeID, bindings Bindings) TypeID {
	if len(bindings) == 0 {
		return t
	}
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case KindTypeParam:
		info := in.params[tt.Payload]
		if concrete, ok := bindings[info.Name]; ok {
			return concrete
		}
		return t
	case KindOptional:
		inner := in.Substitute(tt.Elem, bindings)
		if inner == tt.Elem {
			return t
		}
		return in.Optional(inner)
	case KindList:
		inner := in.Substitute(tt.Elem, bindings)
		if inner == tt.Elem {
			return t
		}
		return in.List(inner)
	case KindFunction:
		info := in.fns[tt.Payload]
		params := make([]TypeID, len(info.Params))
		changed := false
		for i, p := range info.Params {
			params[i] = in.Substitute(p, bindings)
			changed = changed || params[i] != p
		}
		result := in.Substitute(info.Result, bindings)
		if !changed && result == info.Result {
			return t
		}
		return in.RegisterFn(params, result)
	case KindUnion:
		info := in.unions[tt.Payload]
		members := make([]TypeID, len(info.Members))
		changed := false
		for i, m := range info.Members {
			members[i] = in.Substitute(m, bindings)
			changed = changed || members[i] != m
		}
		if !changed {
			return t
		}
		return in.RegisterUnion(members)
	case KindGeneric:
		info := in.generics[tt.Payload]
		args := make([]TypeID, len(info.Args))
		changed := false
		for i, a := range info.Args {
			args[i] = in.Substitute(a, bindings)
			changed = changed || args[i] != a
		}
		if !changed {
			return t
		}
		return in.RegisterGeneric(info.Name, args)
	}
	return t
}

// FreeParams collects the names of type parameters occurring in t.
func (in *Interner) FreeParams(t TypeID, into map[source.StringID]struct{}) {
	tt, ok := in.Lookup(t)
	if !ok {
		return
	}
	switch tt.Kind {
	case KindTypeParam:
		into[in.params[tt.Payload].Name] = struct{}{}
	case KindOptional, KindList:
		in.FreeParams(tt.Elem, into)
	case KindFunction:
		info := in.fns[tt.Payload]
		for _, p := range info.Params {
			in.FreeParams(p, into)
		}
		in.FreeParams(info.Result, into)
	case KindUnion:
		for _, m := range in.unions[tt.Payload].Members {
			in.FreeParams(m, into)
		}
	case KindGeneric:
		for _, a := range in.generics[tt.Payload].Args {
			in.FreeParams(a, into)
		}
	}
}
