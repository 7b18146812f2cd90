// Package order implements the insertion-order sidecar of
// SPEC_FULL.md §4.3: a HAMT from key to slot index (internal/hamt) paired
// with a persistent vector of slots (internal/rrbvec), so ordered maps
// and sets can iterate the way a native implementation would.
//
// No file in the example pack carries an insertion-order index; this is
// composed directly from the two CORE packages above, following only the
// operation list spec.md gives for OrderIndex.
package order

import (
	"github.com/cowtrie/persist/internal/hamt"
	"github.com/cowtrie/persist/internal/owner"
	"github.com/cowtrie/persist/internal/rrbvec"
)

// CompactRatio is ORDER_COMPACT_RATIO from spec.md §4.3.
const CompactRatio = 0.5

type slot[K any, V any] struct {
	key     K
	value   V
	deleted bool
}

// Index is the (next, keyToIdx, idxToKey[, idxToVal], holes) tuple of
// spec.md §3. V is struct{} for sets and for Object's key-only ordering;
// it carries the real value type for ordered maps.
type Index[K comparable, V any] struct {
	next  int
	holes int
	byKey hamt.Map[K, int]
	slots rrbvec.Tree[slot[K, V]]
}

// Len returns the number of live (non-deleted) entries.
func (ix Index[K, V]) Len() int { return ix.byKey.Size() }

// IndexOf returns the insertion slot for key, if present.
func (ix Index[K, V]) IndexOf(key K) (int, bool) { return ix.byKey.Get(key) }

// Append records a new key (and, for maps, its value) at the next free
// slot.
func (ix Index[K, V]) Append(owr *owner.Token, key K, value V) Index[K, V] {
	ix.byKey = ix.byKey.Set(owr, key, ix.next)
	ix.slots = ix.slots.Push(owr, slot[K, V]{key: key, value: value})
	ix.next++
	return ix
}

// UpdateValue overwrites the value stored at key's existing slot
// (maps only; a no-op if key is absent).
func (ix Index[K, V]) UpdateValue(owr *owner.Token, key K, value V) Index[K, V] {
	idx, ok := ix.byKey.Get(key)
	if !ok {
		return ix
	}
	s, _ := ix.slots.Get(idx)
	s.value = value
	newSlots, err := ix.slots.Assoc(owr, idx, s)
	if err == nil {
		ix.slots = newSlots
	}
	return ix
}

// Delete removes key, leaving a hole in the slot vector until Compact
// runs.
func (ix Index[K, V]) Delete(owr *owner.Token, key K) Index[K, V] {
	idx, ok := ix.byKey.Get(key)
	if !ok {
		return ix
	}
	ix.byKey = ix.byKey.Delete(owr, key)
	s, _ := ix.slots.Get(idx)
	s.deleted = true
	var zero K
	s.key = zero
	newSlots, err := ix.slots.Assoc(owr, idx, s)
	if err == nil {
		ix.slots = newSlots
	}
	ix.holes++
	return ix
}

// Get returns the value stored for key (maps only).
func (ix Index[K, V]) Get(key K) (V, bool) {
	idx, ok := ix.byKey.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	s, _ := ix.slots.Get(idx)
	return s.value, true
}

// All yields (key, value) pairs in insertion order, skipping holes.
func (ix Index[K, V]) All(yield func(K, V) bool) {
	for _, s := range rrbvec.Iter(ix.slots) {
		if s.deleted {
			continue
		}
		if !yield(s.key, s.value) {
			return
		}
	}
}

// ShouldCompact reports whether the hole ratio has crossed CompactRatio.
func (ix Index[K, V]) ShouldCompact() bool {
	return ix.next > 0 && float64(ix.holes)/float64(ix.next) >= CompactRatio
}

// Compact rebuilds the slot vector and key index without holes,
// amortized O(n). Slot numbers are renumbered densely from 0.
func (ix Index[K, V]) Compact(owr *owner.Token) Index[K, V] {
	if !ix.ShouldCompact() {
		return ix
	}
	fresh := Index[K, V]{}
	for _, s := range rrbvec.Iter(ix.slots) {
		if s.deleted {
			continue
		}
		fresh = fresh.Append(owr, s.key, s.value)
	}
	return fresh
}
