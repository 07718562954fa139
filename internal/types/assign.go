package types

// Assignable reports whether a value of type from may be stored into a
// location of type to.
//
// Rules:
//   - reflexive: every type is assignable to itself;
//   - numeric widening int -> float, never float -> int;
//   - a union source fits only when every member fits;
//   - a union target accepts a value fitting any member;
//   - an optional target accepts its inner type and None;
//   - a derived class fits its (transitive) base class;
//   - a class fits a trait it satisfies;
//   - the invalid (error) type fits everywhere, so one reported error does
//     not cascade into follow-up diagnostics.
func (in *Interner) Assignable(from, to TypeID) bool {
	if from == to {
		return true
	}
	ft, fok := in.Lookup(from)
	tt, tok := in.Lookup(to)
	if !fok || !tok {
		return false
	}
	// Error recovery: a subtree that already failed checks as anything.
	if ft.Kind == KindInvalid || tt.Kind == KindInvalid {
		return true
	}

	// Union source: all members must fit the target.
	if ft.Kind == KindUnion {
		info, _ := in.UnionInfo(from)
		for _, m := range info.Members {
			if !in.Assignable(m, to) {
				return false
			}
		}
		return true
	}

	switch tt.Kind {
	case KindFloat:
		return ft.Kind == KindInt
	case KindUnion:
		info, _ := in.UnionInfo(to)
		for _, m := range info.Members {
			if in.Assignable(from, m) {
				return true
			}
		}
		return false
	case KindOptional:
		if ft.Kind == KindUnit {
			return true
		}
		return in.Assignable(from, tt.Elem)
	case KindClass:
		return ft.Kind == KindClass && in.InheritsFrom(from, to)
	case KindTrait:
		return in.Satisfies(from, to)
	case KindFunction:
		// Function assignability is structural; interning already makes
		// equal signatures identical, so only resolve-normalized forms
		// remain to compare.
		return in.Resolve(from) == in.Resolve(to)
	}
	return false
}
