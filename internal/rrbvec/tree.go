package rrbvec

import (
	"errors"

	"github.com/cowtrie/persist/internal/debugassert"
	"github.com/cowtrie/persist/internal/owner"
)

// ErrOutOfRange is returned by Assoc when the index is outside [0, Count).
var ErrOutOfRange = errors.New("rrbvec: index out of range")

// Tree is a persistent vector: (count, shift, root, tail), per
// SPEC_FULL.md §3. shift is the bit-shift of the root level; root is nil
// when the whole vector fits in tail.
type Tree[T any] struct {
	Count      int
	Shift      int
	Root       *node[T]
	Tail       []T
	tailOwner  *owner.Token
}

// Empty returns the zero-value persistent vector, matching the teacher's
// zero-value-friendly Vector[T]{}.
func Empty[T any]() Tree[T] { return Tree[T]{} }

func (t Tree[T]) tailoff() int {
	if t.Count < B {
		return 0
	}
	return ((t.Count - 1) >> Bits) << Bits
}

// Get returns the element at i, or ok=false if i is out of range.
func (t Tree[T]) Get(i int) (v T, ok bool) {
	if i < 0 || i >= t.Count {
		return v, false
	}
	treeCount := t.Count - len(t.Tail)
	if i >= treeCount {
		return t.Tail[i-treeCount], true
	}
	n := t.Root
	for level := t.Shift; level > 0; level -= Bits {
		slot, residual := n.slotFor(i, level)
		n = n.child(slot)
		i = residual
	}
	slot, _ := n.slotFor(i, 0)
	return n.value(slot), true
}

// Assoc returns a Tree with index i replaced by x, mutating in place
// wherever a node is already owned by owr.
func (t Tree[T]) Assoc(owr *owner.Token, i int, x T) (Tree[T], error) {
	if i < 0 || i >= t.Count {
		return t, ErrOutOfRange
	}
	treeCount := t.Count - len(t.Tail)
	if i >= treeCount {
		newTail := t.Tail
		if t.tailOwner.Is(owr) {
			newTail[i-treeCount] = x
		} else {
			newTail = make([]T, len(t.Tail))
			copy(newTail, t.Tail)
			newTail[i-treeCount] = x
		}
		t.Tail = newTail
		t.tailOwner = owr
		return t, nil
	}
	t.Root = assocTrie(t.Root, owr, t.Shift, i, x)
	return t, nil
}

func assocTrie[T any](n *node[T], owr *owner.Token, level, i int, x T) *node[T] {
	ret := n.forWrite(owr)
	slot, residual := ret.slotFor(i, level)
	if level == 0 {
		ret.kids[slot] = x
		return ret
	}
	ret.kids[slot] = assocTrie(ret.child(slot), owr, level-Bits, residual, x)
	return ret
}

// Push appends x, growing the tail or, when full, flushing it into the
// trie and possibly growing the tree by one level — the teacher's
// cons/pushTail logic, generalized with owner tokens.
func (t Tree[T]) Push(owr *owner.Token, x T) Tree[T] {
	if t.Root != nil && t.Root.relaxed {
		// Pushing onto a relaxed tree produced by Concat/Slice cannot use
		// the regular-shape bit arithmetic pushTail relies on; rebuild,
		// trading one O(n) pass for correctness on this cold path.
		xs := ToSlice(t)
		xs = append(xs, x)
		return FromSlice(xs)
	}
	if t.Count-t.tailoff() < B {
		newTail := make([]T, len(t.Tail)+1)
		copy(newTail, t.Tail)
		newTail[len(newTail)-1] = x
		t.Tail = newTail
		t.tailOwner = owr
		t.Count++
		return t
	}

	tailLeaf := newNode[T](owr)
	tailLeaf.kids = make([]any, len(t.Tail))
	for idx, v := range t.Tail {
		tailLeaf.kids[idx] = v
	}

	var newRoot *node[T]
	newShift := t.Shift
	if t.Root == nil {
		newRoot = tailLeaf
		newShift = 0
	} else if (t.Count >> Bits) > (1 << t.Shift) {
		newRoot = newNode[T](owr)
		newRoot.kids = []any{t.Root, newPath[T](t.Shift, tailLeaf, owr)}
		newShift = t.Shift + Bits
	} else {
		newRoot = pushTail(t.Root, owr, t.Shift, t.Count, tailLeaf)
	}

	t.Root = newRoot
	t.Shift = newShift
	t.Tail = []T{x}
	t.tailOwner = owr
	t.Count++
	debugassert.Check(t.Count == t.tailoff()+len(t.Tail),
		"push: count/tailoff mismatch count=%d tailoff=%d tail=%d", t.Count, t.tailoff(), len(t.Tail))
	return t
}

func newPath[T any](level int, leaf *node[T], owr *owner.Token) *node[T] {
	if level <= 0 {
		return leaf
	}
	p := newNode[T](owr)
	p.kids = []any{newPath[T](level-Bits, leaf, owr)}
	return p
}

func pushTail[T any](parent *node[T], owr *owner.Token, level, count int, tailLeaf *node[T]) *node[T] {
	ret := parent.forWrite(owr)
	subidx := ((count - 1) >> level) & Mask
	var toInsert *node[T]
	if level == Bits {
		toInsert = tailLeaf
	} else if subidx < len(ret.kids) {
		toInsert = pushTail(ret.child(subidx), owr, level-Bits, count, tailLeaf)
	} else {
		toInsert = newPath[T](level-Bits, tailLeaf, owr)
	}
	if subidx < len(ret.kids) {
		ret.kids[subidx] = toInsert
	} else {
		ret.kids = append(ret.kids, toInsert)
	}
	return ret
}

// Pop removes the last element, returning the shrunk Tree and the
// removed value. Popping an empty Tree is a no-op returning the zero
// value and ok=false.
func (t Tree[T]) Pop(owr *owner.Token) (Tree[T], T, bool) {
	var zero T
	if t.Count == 0 {
		return t, zero, false
	}
	if t.Count == 1 {
		return Tree[T]{}, t.Tail[0], true
	}
	if t.Root != nil && t.Root.relaxed {
		xs := ToSlice(t)
		last := xs[len(xs)-1]
		return FromSlice(xs[:len(xs)-1]), last, true
	}

	popped := t.Tail[len(t.Tail)-1]

	if len(t.Tail) > 1 {
		newTail := make([]T, len(t.Tail)-1)
		copy(newTail, t.Tail)
		t.Tail = newTail
		t.tailOwner = owr
		t.Count--
		return t, popped, true
	}

	// tail had exactly one element (it was just promoted on the last
	// push, or this is the tail-only case); pull the rightmost leaf out
	// of the trie to become the new tail.
	popped = t.Tail[0]
	lastIdx := t.tailoff() - 1
	newTail := leafValues(t.Root, t.Shift, lastIdx)

	newRoot, newShift := popTail(t.Root, owr, t.Shift, t.Count)
	if newRoot != nil {
		newRoot, newShift = collapseIfNeeded(newRoot, newShift)
	}
	t.Root = newRoot
	t.Shift = newShift
	t.Tail = newTail
	t.tailOwner = owr
	t.Count--
	debugassert.Check(t.Count == t.tailoff()+len(t.Tail),
		"pop: count/tailoff mismatch count=%d tailoff=%d tail=%d", t.Count, t.tailoff(), len(t.Tail))
	return t, popped, true
}

func leafValues[T any](n *node[T], level, i int) []T {
	for level > 0 {
		slot, _ := n.slotFor(i, level)
		n = n.child(slot)
		level -= Bits
	}
	vals := make([]T, len(n.kids))
	for i, k := range n.kids {
		vals[i] = k.(T)
	}
	return vals
}

// popTail removes the rightmost leaf from the trie. Pop then collapses
// the root when it becomes a singleton branch above K.
func popTail[T any](n *node[T], owr *owner.Token, level, count int) (*node[T], int) {
	if level == 0 {
		return nil, 0
	}
	subidx, _ := n.slotFor(count-2, level)
	if level == Bits {
		if subidx == 0 {
			return nil, 0
		}
		ret := n.forWrite(owr)
		ret.kids = ret.kids[:subidx]
		if ret.sizes != nil {
			ret.sizes = ret.sizes[:subidx]
		}
		return ret, level
	}
	child, _ := popTail(n.child(subidx), owr, level-Bits, count)
	if child == nil && subidx == 0 {
		return nil, 0
	}
	ret := n.forWrite(owr)
	if child == nil {
		ret.kids = ret.kids[:subidx]
		if ret.sizes != nil {
			ret.sizes = ret.sizes[:subidx]
		}
	} else {
		ret.kids[subidx] = child
	}
	return ret, level
}

// collapseIfNeeded drops a level when the root has shrunk to a single
// non-leaf child, per spec.md's Pop invariant, returning the new root
// and its shift.
func collapseIfNeeded[T any](n *node[T], level int) (*node[T], int) {
	if level > Bits && len(n.kids) == 1 {
		if child, ok := n.kids[0].(*node[T]); ok {
			return child, level - Bits
		}
	}
	return n, level
}

// FromSlice bulk-builds a Tree from a slice in O(n), bottom-up: full
// leaves are grouped into parents B at a time until a single root
// remains; any remainder populates the tail.
func FromSlice[T any](xs []T) Tree[T] {
	if len(xs) == 0 {
		return Tree[T]{}
	}
	owr := owner.New()
	// treeLen mirrors tailoff(): elements at [0, treeLen) live in the
	// trie as full B-element leaves, the rest sit in the tail.
	treeLen := 0
	if len(xs) >= B {
		treeLen = ((len(xs) - 1) >> Bits) << Bits
	}

	level := 0
	var layer []*node[T]
	for i := 0; i < treeLen; i += B {
		leaf := newNode[T](owr)
		leaf.kids = make([]any, B)
		for j := 0; j < B; j++ {
			leaf.kids[j] = xs[i+j]
		}
		layer = append(layer, leaf)
	}
	for len(layer) > 1 {
		var next []*node[T]
		for i := 0; i < len(layer); i += B {
			end := i + B
			if end > len(layer) {
				end = len(layer)
			}
			parent := newNode[T](owr)
			parent.kids = make([]any, end-i)
			for j := i; j < end; j++ {
				parent.kids[j-i] = layer[j]
			}
			next = append(next, parent)
		}
		layer = next
		level += Bits
	}

	var root *node[T]
	if len(layer) == 1 {
		root = layer[0]
	}

	tail := append([]T(nil), xs[treeLen:]...)

	return Tree[T]{
		Count: len(xs),
		Shift: level,
		Root:  root,
		Tail:  tail,
	}
}

// ToSlice materializes the Tree's elements in positional order.
func ToSlice[T any](t Tree[T]) []T {
	out := make([]T, 0, t.Count)
	for _, v := range Iter(t) {
		out = append(out, v)
	}
	return out
}
