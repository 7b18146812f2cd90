// Package hamt implements the hash-array mapped trie of SPEC_FULL.md
// §4.2: bitmap-indexed inner nodes, leaves, and hash-collision chains,
// keyed by the 32-bit hash from internal/ihash.
//
// Shape is grounded on rogpeppe/generic/ctrie's bitmap/popcount hash
// trie (mainNode/cNode/iNode), adapted from ctrie's lock-free
// generation-CAS model to this library's single-writer owner-token
// model (spec.md §5 rules out concurrent access, so no atomics are
// needed). Node representation follows the single tagged-union struct
// style of internal/rrbvec's node, per spec.md §9's "dispatch by kind
// test, not runtime prototype" note.
package hamt

import (
	"math/bits"
	"reflect"

	"github.com/cowtrie/persist/internal/debugassert"
	"github.com/cowtrie/persist/internal/ihash"
	"github.com/cowtrie/persist/internal/owner"
)

const (
	chunkBits = 5
	chunkMask = 1<<chunkBits - 1
	maxShift  = 32
)

type kind uint8

const (
	kindLeaf kind = iota
	kindCollision
	kindInner
)

type entry[K comparable, V any] struct {
	hash  uint32
	key   K
	value V
}

// node is the HAMT's single tagged-union node type: a leaf, a collision
// chain, or a bitmap-indexed inner node, selected by kind.
type node[K comparable, V any] struct {
	owner *owner.Token
	kind  kind

	// kindLeaf
	hash  uint32
	key   K
	value V

	// kindCollision (hash reused from above)
	entries []entry[K, V]

	// kindInner
	bitmap uint32
	kids   []*node[K, V]
}

func (n *node[K, V]) clone(owr *owner.Token) *node[K, V] {
	c := *n
	c.owner = owr
	if n.entries != nil {
		c.entries = append([]entry[K, V](nil), n.entries...)
	}
	if n.kids != nil {
		c.kids = append([]*node[K, V](nil), n.kids...)
	}
	return &c
}

func (n *node[K, V]) forWrite(owr *owner.Token) *node[K, V] {
	if n.owner.Is(owr) {
		return n
	}
	return n.clone(owr)
}

func hashKey[K comparable](k K) uint32    { return ihash.Of(any(k)) }
func eqKey[K comparable](a, b K) bool     { return ihash.SameValueZero(any(a), any(b)) }
func bitpos(hash uint32, shift uint) uint32 {
	return 1 << ((hash >> shift) & chunkMask)
}
func popIndex(bitmap, bit uint32) int {
	return bits.OnesCount32(bitmap & (bit - 1))
}

// Map is a persistent hash-array mapped trie. The zero value is the
// empty map.
type Map[K comparable, V any] struct {
	root *node[K, V]
	size int
}

// Size returns the number of key/value pairs.
func (m Map[K, V]) Size() int { return m.size }

// Get returns the value for key, and whether it was present.
func (m Map[K, V]) Get(key K) (V, bool) {
	return getNode(m.root, 0, hashKey(key), key)
}

// Has reports whether key is present.
func (m Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

func getNode[K comparable, V any](n *node[K, V], shift uint, hash uint32, key K) (v V, ok bool) {
	if n == nil {
		return v, false
	}
	switch n.kind {
	case kindLeaf:
		if n.hash == hash && eqKey(n.key, key) {
			return n.value, true
		}
		return v, false
	case kindCollision:
		if n.hash != hash {
			return v, false
		}
		for _, e := range n.entries {
			if eqKey(e.key, key) {
				return e.value, true
			}
		}
		return v, false
	default: // kindInner
		bit := bitpos(hash, shift)
		if n.bitmap&bit == 0 {
			return v, false
		}
		child := n.kids[popIndex(n.bitmap, bit)]
		return getNode(child, shift+chunkBits, hash, key)
	}
}

// Set returns a Map with key bound to value. Nodes the current owner
// already holds are mutated in place; others are cloned.
func (m Map[K, V]) Set(owr *owner.Token, key K, value V) Map[K, V] {
	newRoot, grew := setNode(m.root, owr, 0, hashKey(key), key, value)
	m.root = newRoot
	if grew {
		m.size++
	}
	debugassert.Check(newRoot.kind != kindInner || bits.OnesCount32(newRoot.bitmap) == len(newRoot.kids),
		"hamt: bitmap popcount %d does not match kid count %d", bits.OnesCount32(newRoot.bitmap), len(newRoot.kids))
	return m
}

func setNode[K comparable, V any](n *node[K, V], owr *owner.Token, shift uint, hash uint32, key K, value V) (*node[K, V], bool) {
	if n == nil {
		return &node[K, V]{owner: owr, kind: kindLeaf, hash: hash, key: key, value: value}, true
	}
	switch n.kind {
	case kindLeaf:
		if n.hash == hash {
			if eqKey(n.key, key) {
				if reflect.DeepEqual(any(n.value), any(value)) {
					return n, false // identical value: preserve reference, per spec.md §8 property 5
				}
				return &node[K, V]{owner: owr, kind: kindLeaf, hash: hash, key: key, value: value}, false
			}
			return &node[K, V]{
				owner: owr, kind: kindCollision, hash: hash,
				entries: []entry[K, V]{{n.hash, n.key, n.value}, {hash, key, value}},
			}, true
		}
		return mergeLeaves(n, &node[K, V]{owner: owr, kind: kindLeaf, hash: hash, key: key, value: value}, shift, owr), true

	case kindCollision:
		if n.hash != hash {
			return mergeLeaves(n, &node[K, V]{owner: owr, kind: kindLeaf, hash: hash, key: key, value: value}, shift, owr), true
		}
		for i, e := range n.entries {
			if eqKey(e.key, key) {
				nn := n.forWrite(owr)
				nn.entries[i] = entry[K, V]{hash, key, value}
				return nn, false
			}
		}
		nn := n.forWrite(owr)
		nn.entries = append(nn.entries, entry[K, V]{hash, key, value})
		return nn, true

	default: // kindInner
		bit := bitpos(hash, shift)
		idx := popIndex(n.bitmap, bit)
		if n.bitmap&bit == 0 {
			nn := n.forWrite(owr)
			leaf := &node[K, V]{owner: owr, kind: kindLeaf, hash: hash, key: key, value: value}
			nn.kids = append(nn.kids, nil)
			copy(nn.kids[idx+1:], nn.kids[idx:])
			nn.kids[idx] = leaf
			nn.bitmap |= bit
			return nn, true
		}
		newChild, grew := setNode(n.kids[idx], owr, shift+chunkBits, hash, key, value)
		if newChild == n.kids[idx] {
			return n, false
		}
		nn := n.forWrite(owr)
		nn.kids[idx] = newChild
		return nn, grew
	}
}

// mergeLeaves builds the minimal inner-node chain separating two leaves
// with distinct hashes, per spec.md §4.2's merge rule.
func mergeLeaves[K comparable, V any](a, b *node[K, V], shift uint, owr *owner.Token) *node[K, V] {
	if shift >= maxShift {
		// Exhausted all 32 hash bits without divergence: fall back to a
		// collision chain keyed by a's hash (should not occur since
		// mergeLeaves is only invoked for distinct hashes).
		return &node[K, V]{owner: owr, kind: kindCollision, hash: a.hash, entries: []entry[K, V]{
			{a.hash, a.key, a.value}, {b.hash, b.key, b.value},
		}}
	}
	aSlot := (a.hash >> shift) & chunkMask
	bSlot := (b.hash >> shift) & chunkMask
	if aSlot == bSlot {
		child := mergeLeaves(a, b, shift+chunkBits, owr)
		return &node[K, V]{owner: owr, kind: kindInner, bitmap: uint32(1) << aSlot, kids: []*node[K, V]{child}}
	}
	inner := &node[K, V]{owner: owr, kind: kindInner, bitmap: (uint32(1) << aSlot) | (uint32(1) << bSlot)}
	if aSlot < bSlot {
		inner.kids = []*node[K, V]{a, b}
	} else {
		inner.kids = []*node[K, V]{b, a}
	}
	return inner
}

// Delete returns a Map with key removed, if present.
func (m Map[K, V]) Delete(owr *owner.Token, key K) Map[K, V] {
	newRoot, removed := deleteNode(m.root, owr, 0, hashKey(key), key, true)
	if removed {
		m.root = newRoot
		m.size--
	}
	return m
}

func deleteNode[K comparable, V any](n *node[K, V], owr *owner.Token, shift uint, hash uint32, key K, isRoot bool) (*node[K, V], bool) {
	if n == nil {
		return nil, false
	}
	switch n.kind {
	case kindLeaf:
		if n.hash == hash && eqKey(n.key, key) {
			return nil, true
		}
		return n, false

	case kindCollision:
		if n.hash != hash {
			return n, false
		}
		idx := -1
		for i, e := range n.entries {
			if eqKey(e.key, key) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return n, false
		}
		if len(n.entries) == 2 {
			other := n.entries[1-idx]
			return &node[K, V]{owner: owr, kind: kindLeaf, hash: other.hash, key: other.key, value: other.value}, true
		}
		nn := n.forWrite(owr)
		nn.entries = append(nn.entries[:idx:idx], nn.entries[idx+1:]...)
		return nn, true

	default: // kindInner
		bit := bitpos(hash, shift)
		if n.bitmap&bit == 0 {
			return n, false
		}
		idx := popIndex(n.bitmap, bit)
		newChild, removed := deleteNode(n.kids[idx], owr, shift+chunkBits, hash, key, false)
		if !removed {
			return n, false
		}
		if newChild == nil {
			if len(n.kids) == 1 {
				return nil, true
			}
			nn := n.forWrite(owr)
			nn.kids = append(nn.kids[:idx:idx], nn.kids[idx+1:]...)
			nn.bitmap &^= bit
			return compress(nn, isRoot), true
		}
		nn := n.forWrite(owr)
		nn.kids[idx] = newChild
		return compress(nn, isRoot), true
	}
}

// compress promotes a single remaining leaf child into its parent's
// slot, except at the root (spec.md §4.2).
func compress[K comparable, V any](n *node[K, V], isRoot bool) *node[K, V] {
	if !isRoot && len(n.kids) == 1 && n.kids[0].kind == kindLeaf {
		return n.kids[0]
	}
	return n
}

// All returns an iterator over every key/value pair in undefined (hash)
// order, per spec.md §4.2's iteration contract.
func (m Map[K, V]) All(yield func(K, V) bool) {
	walk(m.root, yield)
}

func walk[K comparable, V any](n *node[K, V], yield func(K, V) bool) bool {
	if n == nil {
		return true
	}
	switch n.kind {
	case kindLeaf:
		return yield(n.key, n.value)
	case kindCollision:
		for _, e := range n.entries {
			if !yield(e.key, e.value) {
				return false
			}
		}
		return true
	default:
		for _, k := range n.kids {
			if !walk(k, yield) {
				return false
			}
		}
		return true
	}
}
