package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// UnionInfo stores the member list of a structural union type.
type UnionInfo struct {
	Members []TypeID
}

// RegisterUnion interns a union over members. Members are stored in the
// order given; use Resolve to get the flattened, deduplicated form.
func (in *Interner) RegisterUnion(members []TypeID) TypeID {
	if len(members) == 1 {
		return members[0]
	}
	slot, err := safecast.Conv[uint32](len(in.unions))
	if err != nil {
		panic(fmt.Errorf("union info overflow: %w", err))
	}
	in.unions = append(in.unions, UnionInfo{Members: slices.Clone(members)})
	t := Type{Kind: KindUnion, Payload: slot}
	key := in.structuralKey(t)
	if id, ok := in.index[key]; ok {
		in.unions = in.unions[:slot]
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// UnionInfo retrieves the member list of a union type.
func (in *Interner) UnionInfo(id TypeID) (*UnionInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindUnion {
		return nil, false
	}
	return &in.unions[t.Payload], true
}
