package rrbvec

import "iter"

// Iter yields (index, value) pairs in positional order via a recursive
// depth-first walk of the trie, then the tail, expressed as Go's native
// range-over-func rather than a suspend/resume primitive. The walk keeps
// its position on the call stack; there is no separate iterator-state
// stack.
func Iter[T any](t Tree[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		idx := 0
		if t.Root != nil {
			if !walk(t.Root, t.Shift, &idx, yield) {
				return
			}
		}
		for _, v := range t.Tail {
			if !yield(idx, v) {
				return
			}
			idx++
		}
	}
}

func walk[T any](n *node[T], level int, idx *int, yield func(int, T) bool) bool {
	if level == 0 {
		for _, k := range n.kids {
			if !yield(*idx, k.(T)) {
				return false
			}
			*idx++
		}
		return true
	}
	for _, k := range n.kids {
		if !walk(k.(*node[T]), level-Bits, idx, yield) {
			return false
		}
	}
	return true
}

// IterReverse yields (index, value) pairs from last to first.
func IterReverse[T any](t Tree[T]) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		idx := t.Count - 1
		for i := len(t.Tail) - 1; i >= 0; i-- {
			if !yield(idx, t.Tail[i]) {
				return
			}
			idx--
		}
		if t.Root != nil {
			walkReverse(t.Root, t.Shift, &idx, yield)
		}
	}
}

func walkReverse[T any](n *node[T], level int, idx *int, yield func(int, T) bool) bool {
	if level == 0 {
		for i := len(n.kids) - 1; i >= 0; i-- {
			if !yield(*idx, n.kids[i].(T)) {
				return false
			}
			*idx--
		}
		return true
	}
	for i := len(n.kids) - 1; i >= 0; i-- {
		if !walkReverse(n.kids[i].(*node[T]), level-Bits, idx, yield) {
			return false
		}
	}
	return true
}
