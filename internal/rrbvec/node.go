// Package rrbvec implements the persistent bit-partitioned vector of
// SPEC_FULL.md §4.1: a 32-way trie with a trailing tail buffer, extended
// with RRB-relaxed nodes (cumulative size tables) for the trees Concat
// and Slice produce. Concat and Slice rebuild a relaxed trie from the
// leaves of their input, so they take time linear in the number of
// leaves rather than O(log n).
//
// The trie/tail/owner shape is grounded on lthibault/vector's
// Vector[T]/node[T]/Builder[T], generalized with an owner.Token (instead
// of the teacher's unconditional clone-on-write) and a relaxed/sizes
// extension for RRB concat and slice.
package rrbvec

import "github.com/cowtrie/persist/internal/owner"

const (
	// Bits is the number of index bits consumed per trie level.
	Bits = 5
	// B is the branching factor (teacher calls this "width").
	B = 1 << Bits
	// Mask extracts the low Bits bits of a shifted index.
	Mask = B - 1
)

// node is either an internal node (children are *node[T]) or a leaf
// (children are T values), distinguished by the caller-tracked shift —
// exactly as lthibault/vector's single node[T] type serves both roles.
type node[T any] struct {
	owner *owner.Token

	// kids holds either T leaf values or *node[T] children, length len.
	kids []any

	// relaxed is sticky along a path: set once a node (or an ancestor)
	// was produced by Concat/Slice with non-uniform child sizes.
	relaxed bool
	// sizes is the cumulative-size table used only when relaxed; nil
	// otherwise. len(sizes) == len(kids).
	sizes []int
}

func newNode[T any](owr *owner.Token) *node[T] {
	return &node[T]{owner: owr}
}

func (n *node[T]) len() int { return len(n.kids) }

// clone returns a copy of n, owned by owr. Used whenever a write would
// otherwise touch a node this operation doesn't already own.
func (n *node[T]) clone(owr *owner.Token) *node[T] {
	kids := make([]any, len(n.kids), cap(n.kids))
	copy(kids, n.kids)
	var sizes []int
	if n.sizes != nil {
		sizes = make([]int, len(n.sizes))
		copy(sizes, n.sizes)
	}
	return &node[T]{owner: owr, kids: kids, relaxed: n.relaxed, sizes: sizes}
}

// forWrite returns a node mutable by owr: n itself if n is already owned
// by owr, else a fresh clone.
func (n *node[T]) forWrite(owr *owner.Token) *node[T] {
	if n.owner.Is(owr) {
		return n
	}
	return n.clone(owr)
}

func (n *node[T]) child(i int) *node[T] { return n.kids[i].(*node[T]) }
func (n *node[T]) value(i int) T        { return n.kids[i].(T) }

// sizeAt returns the number of elements covered by kids[0:i+1] (regular:
// computed from level; relaxed: read from the size table).
func (n *node[T]) sizeAt(i, level int) int {
	if n.sizes != nil {
		return n.sizes[i]
	}
	// Regular node: every child but possibly the last covers a full
	// subtree of size 1<<level.
	return (i + 1) << level
}

// treeSize returns the total element count under n at the given level.
// Unlike sizeAt, this does not assume the last child is full: only the
// right spine of a regular trie may be partial, so the last child's real
// size is computed recursively.
func (n *node[T]) treeSize(level int) int {
	if len(n.kids) == 0 {
		return 0
	}
	if n.sizes != nil {
		return n.sizes[len(n.sizes)-1]
	}
	if level == 0 {
		return len(n.kids) // leaf: kids are raw values, one each
	}
	full := 1 << level
	last := n.kids[len(n.kids)-1].(*node[T]).treeSize(level - Bits)
	return (len(n.kids)-1)*full + last
}

// slotFor locates, at this node's level, the child index holding index i
// and the residual index within that child, using regular arithmetic or
// a binary search over sizes when relaxed.
func (n *node[T]) slotFor(i, level int) (slot, residual int) {
	if n.sizes == nil {
		slot = (i >> level) & Mask
		if slot == 0 {
			return 0, i
		}
		return slot, i - (slot << level)
	}
	slot = 0
	for slot < len(n.sizes)-1 && n.sizes[slot] <= i {
		slot++
	}
	prior := 0
	if slot > 0 {
		prior = n.sizes[slot-1]
	}
	return slot, i - prior
}

// buildSizes recomputes a relaxed node's cumulative-size table from its
// children's actual tree sizes at the given child level.
func buildSizes[T any](kids []any, childLevel int) []int {
	sizes := make([]int, len(kids))
	total := 0
	for i, k := range kids {
		total += k.(*node[T]).treeSize(childLevel)
		sizes[i] = total
	}
	return sizes
}
