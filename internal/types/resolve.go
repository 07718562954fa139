package types

import "slices"

// Resolve normalizes a type: nested unions are flattened and
// deduplicated, single-member unions collapse to the member, and
// composite types are rebuilt from resolved components. Resolve is
// idempotent: Resolve(Resolve(t)) == Resolve(t).
func (in *Interner) Resolve(t TypeID) TypeID {
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case KindOptional:
		inner := in.Resolve(tt.Elem)
		if inner == tt.Elem {
			return t
		}
		return in.Optional(inner)
	case KindList:
		inner := in.Resolve(tt.Elem)
		if inner == tt.Elem {
			return t
		}
		return in.List(inner)
	case KindFunction:
		info := in.fns[tt.Payload]
		params := make([]TypeID, len(info.Params))
		changed := false
		for i, p := range info.Params {
			params[i] = in.Resolve(p)
			changed = changed || params[i] != p
		}
		result := in.Resolve(info.Result)
		if !changed && result == info.Result {
			return t
		}
		return in.RegisterFn(params, result)
	case KindUnion:
		members := in.flattenUnion(t, nil)
		if len(members) == 1 {
			return members[0]
		}
		return in.RegisterUnion(members)
	case KindGeneric:
		info := in.generics[tt.Payload]
		args := make([]TypeID, len(info.Args))
		changed := false
		for i, a := range info.Args {
			args[i] = in.Resolve(a)
			changed = changed || args[i] != a
		}
		if !changed {
			return t
		}
		return in.RegisterGeneric(info.Name, args)
	}
	return t
}

// flattenUnion resolves members depth-first, splicing nested unions and
// dropping duplicates while preserving first-seen order.
func (in *Interner) flattenUnion(t TypeID, acc []TypeID) []TypeID {
	info, ok := in.UnionInfo(t)
	if !ok {
		return acc
	}
	for _, m := range info.Members {
		r := in.Resolve(m)
		if in.Kind(r) == KindUnion {
			acc = in.flattenUnion(r, acc)
			continue
		}
		if !slices.Contains(acc, r) {
			acc = append(acc, r)
		}
	}
	return acc
}
