package snarkagg

import (
	"maps"
	"slices"
)

// KeyRing resolves key identifiers. It is never mutated once built; With
// returns an extended copy.
type KeyRing struct {
	keys map[KeyID]*Vk
}

func NewKeyRing(keys ...*Vk) *KeyRing {
	kr := &KeyRing{keys: make(map[KeyID]*Vk, len(keys))}
	for _, k := range keys {
		kr.keys[k.ID()] = k
	}
	return kr
}

func (me *KeyRing) Resolve(id KeyID) (*Vk, error) {
	if me != nil {
		if k, ok := me.keys[id]; ok {
			return k, nil
		}
	}
	return nil, WrapUnknownKey(id)
}

func (me *KeyRing) With(keys ...*Vk) *KeyRing {
	kr := &KeyRing{keys: make(map[KeyID]*Vk, me.Len()+len(keys))}
	if me != nil {
		maps.Copy(kr.keys, me.keys)
	}
	for _, k := range keys {
		kr.keys[k.ID()] = k
	}
	return kr
}

func (me *KeyRing) Len() int {
	if me == nil {
		return 0
	}
	return len(me.keys)
}

// IDs lists the known identifiers in byte order.
func (me *KeyRing) IDs() []KeyID {
	if me == nil {
		return nil
	}
	ids := slices.Collect(maps.Keys(me.keys))
	slices.SortFunc(ids, func(a, b KeyID) int {
		return slices.Compare(a[:], b[:])
	})
	return ids
}
