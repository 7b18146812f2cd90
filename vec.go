package persist

import (
	"iter"

	"github.com/cowtrie/persist/internal/owner"
	"github.com/cowtrie/persist/internal/rrbvec"
)

// Vec is the ordered-sequence façade of SPEC_FULL.md §4.1/§4.4: a native
// Go slice below the adaptive threshold, an internal/rrbvec.Tree at or
// above it. Both representations answer the same method set.
type Vec[T any] struct {
	native  []T
	tree    rrbvec.Tree[T]
	wrapped bool
}

// WrapVec adapts s to size: small slices are copied natively, large ones
// bulk-built into a persistent trie. Idempotent in spirit — wrapping
// twice just re-copies, since Go slices carry no wrapped-marker of their
// own to short-circuit against.
func WrapVec[T any](s []T) Vec[T] {
	return vecFromNative(s)
}

func vecFromNative[T any](s []T) Vec[T] {
	if len(s) >= threshold {
		return Vec[T]{tree: rrbvec.FromSlice(s), wrapped: true}
	}
	cp := append([]T(nil), s...)
	return Vec[T]{native: cp}
}

func vecFromTree[T any](t rrbvec.Tree[T]) Vec[T] {
	invariantViolation(t.Count >= 0, "vec: negative tree count %d", t.Count)
	if t.Count < threshold {
		return vecFromNative(rrbvec.ToSlice(t))
	}
	return Vec[T]{tree: t, wrapped: true}
}

// IsWrapped reports whether v is backed by the persistent trie.
func (v Vec[T]) IsWrapped() bool { return v.wrapped }

// Len returns the element count.
func (v Vec[T]) Len() int {
	if v.wrapped {
		return v.tree.Count
	}
	return len(v.native)
}

// Unwrap produces a fresh native slice with v's contents. Idempotent on
// already-native Vecs other than the defensive copy.
func (v Vec[T]) Unwrap() []T {
	if v.wrapped {
		return rrbvec.ToSlice(v.tree)
	}
	return append([]T(nil), v.native...)
}

// At returns the element at i, or ok=false if i is out of range.
func (v Vec[T]) At(i int) (T, bool) {
	if v.wrapped {
		return v.tree.Get(i)
	}
	var zero T
	if i < 0 || i >= len(v.native) {
		return zero, false
	}
	return v.native[i], true
}

// With returns a Vec with index i replaced by x.
func (v Vec[T]) With(i int, x T) (Vec[T], error) {
	if v.wrapped {
		nt, err := v.tree.Assoc(owner.New(), i, x)
		if err != nil {
			return v, ErrOutOfRange
		}
		return Vec[T]{tree: nt, wrapped: true}, nil
	}
	if i < 0 || i >= len(v.native) {
		return v, ErrOutOfRange
	}
	cp := append([]T(nil), v.native...)
	cp[i] = x
	return Vec[T]{native: cp}, nil
}

// Push appends xs, adapting representation if the result crosses T.
func (v Vec[T]) Push(xs ...T) Vec[T] {
	if len(xs) == 0 {
		return v
	}
	if v.wrapped {
		t := v.tree
		owr := owner.New()
		for _, x := range xs {
			t = t.Push(owr, x)
		}
		return vecFromTree(t)
	}
	cp := append(append([]T(nil), v.native...), xs...)
	return vecFromNative(cp)
}

// Pop removes and returns the last element.
func (v Vec[T]) Pop() (Vec[T], T, bool) {
	var zero T
	if v.wrapped {
		nt, val, ok := v.tree.Pop(owner.New())
		if !ok {
			return v, zero, false
		}
		return vecFromTree(nt), val, true
	}
	if len(v.native) == 0 {
		return v, zero, false
	}
	val := v.native[len(v.native)-1]
	cp := append([]T(nil), v.native[:len(v.native)-1]...)
	return Vec[T]{native: cp}, val, true
}

// Concat joins v and other. Below the threshold the result is a native
// slice; once the combined length reaches it, both sides are converted
// to trees and joined with internal/rrbvec.Concat, which rebuilds a
// relaxed trie from their leaves.
func (v Vec[T]) Concat(other Vec[T]) Vec[T] {
	total := v.Len() + other.Len()
	if total < threshold {
		return vecFromNative(append(append([]T(nil), v.Unwrap()...), other.Unwrap()...))
	}
	at, bt := v.asTree(), other.asTree()
	return vecFromTree(rrbvec.Concat(at, bt, owner.New()))
}

// Slice returns the sub-sequence [start, end).
func (v Vec[T]) Slice(start, end int) Vec[T] {
	if v.wrapped {
		return vecFromTree(rrbvec.Slice(v.tree, owner.New(), start, end))
	}
	start = max(start, 0)
	end = min(end, len(v.native))
	if end <= start {
		return Vec[T]{}
	}
	return vecFromNative(v.native[start:end])
}

func (v Vec[T]) asTree() rrbvec.Tree[T] {
	if v.wrapped {
		return v.tree
	}
	return rrbvec.FromSlice(v.native)
}

// All iterates (index, value) pairs in positional order.
func (v Vec[T]) All() iter.Seq2[int, T] {
	if v.wrapped {
		return rrbvec.Iter(v.tree)
	}
	native := v.native
	return func(yield func(int, T) bool) {
		for i, x := range native {
			if !yield(i, x) {
				return
			}
		}
	}
}

// AllReverse iterates (index, value) pairs from last to first.
func (v Vec[T]) AllReverse() iter.Seq2[int, T] {
	if v.wrapped {
		return rrbvec.IterReverse(v.tree)
	}
	native := v.native
	return func(yield func(int, T) bool) {
		for i := len(native) - 1; i >= 0; i-- {
			if !yield(i, native[i]) {
				return
			}
		}
	}
}
