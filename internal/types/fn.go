package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// FnInfo stores metadata for function types.
type FnInfo struct {
	Params []TypeID
	Result TypeID
}

// RegisterFn interns a function type. Structurally equal signatures share
// one TypeID.
func (in *Interner) RegisterFn(params []TypeID, result TypeID) TypeID {
	slot, err := safecast.Conv[uint32](len(in.fns))
	if err != nil {
		panic(fmt.Errorf("fn info overflow: %w", err))
	}
	in.fns = append(in.fns, FnInfo{Params: slices.Clone(params), Result: result})
	t := Type{Kind: KindFunction, Payload: slot}
	key := in.structuralKey(t)
	if id, ok := in.index[key]; ok {
		in.fns = in.fns[:slot]
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// FnInfo retrieves function type metadata.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindFunction {
		return nil, false
	}
	return &in.fns[t.Payload], true
}
