package rrbvec

import "github.com/cowtrie/persist/internal/owner"

// Concat joins a and b. Results of at most B elements are materialized
// by linear read into a tail-only Tree; otherwise both trees are
// decomposed into their leaves (each tail included as a final partial
// leaf), the two boundary leaves are combined when they fit in one
// B-sized leaf, and the result is rebuilt bottom-up as a relaxed trie
// with no tail. The cost is linear in the number of leaves of a and b,
// not O(log n), and no E=2 rebalancing of the merged nodes is done.
func Concat[T any](a, b Tree[T], owr *owner.Token) Tree[T] {
	total := a.Count + b.Count
	if total == 0 {
		return Tree[T]{}
	}
	if total <= B {
		merged := make([]T, 0, total)
		merged = append(merged, ToSlice(a)...)
		merged = append(merged, ToSlice(b)...)
		return Tree[T]{Count: total, Tail: merged}
	}

	aLeaves := collectLeaves(a, owr)
	bLeaves := collectLeaves(b, owr)
	if len(aLeaves) > 0 && len(bLeaves) > 0 {
		last := aLeaves[len(aLeaves)-1]
		first := bLeaves[0]
		if last.len()+first.len() <= B {
			combined := newNode[T](owr)
			combined.kids = append(append([]any{}, last.kids...), first.kids...)
			aLeaves[len(aLeaves)-1] = combined
			bLeaves = bLeaves[1:]
		}
	}
	leaves := append(aLeaves, bLeaves...)

	root, shift := buildRelaxed[T](leaves, owr)
	return Tree[T]{Count: total, Root: root, Shift: shift}
}

// Slice returns the sub-sequence [start, end). Small results materialize
// by linear read; larger ones decompose the source into leaves, trim the
// two boundary leaves, and rebuild a relaxed trie from what remains —
// collapsing naturally to a single leaf (Shift 0) or a minimal-height
// relaxed trie, satisfying the "collapse the root while it has a single
// non-relaxed child with shift > K" invariant by construction.
func Slice[T any](t Tree[T], owr *owner.Token, start, end int) Tree[T] {
	start = max(start, 0)
	end = min(end, t.Count)
	if end <= start {
		return Tree[T]{}
	}
	total := end - start
	if total <= B {
		all := ToSlice(t)
		sub := append([]T(nil), all[start:end]...)
		return Tree[T]{Count: total, Tail: sub}
	}

	leaves := collectLeaves(t, owr)
	var trimmed []*node[T]
	offset := 0
	for _, leaf := range leaves {
		leafLen := leaf.len()
		leafStart, leafEnd := offset, offset+leafLen
		offset = leafEnd

		lo, hi := max(leafStart, start), min(leafEnd, end)
		if lo >= hi {
			continue
		}
		if lo == leafStart && hi == leafEnd {
			trimmed = append(trimmed, leaf)
			continue
		}
		nl := newNode[T](owr)
		nl.kids = append([]any{}, leaf.kids[lo-leafStart:hi-leafStart]...)
		trimmed = append(trimmed, nl)
	}

	root, shift := buildRelaxed[T](trimmed, owr)
	return Tree[T]{Count: total, Root: root, Shift: shift}
}

// collectLeaves decomposes t into its ordered list of leaf nodes,
// appending the tail (if any) as one final, possibly-partial, leaf.
func collectLeaves[T any](t Tree[T], owr *owner.Token) []*node[T] {
	var leaves []*node[T]
	if t.Root != nil {
		leaves = collectLeavesRec(t.Root, t.Shift, leaves)
	}
	if len(t.Tail) > 0 {
		tailLeaf := newNode[T](owr)
		tailLeaf.kids = make([]any, len(t.Tail))
		for i, v := range t.Tail {
			tailLeaf.kids[i] = v
		}
		leaves = append(leaves, tailLeaf)
	}
	return leaves
}

func collectLeavesRec[T any](n *node[T], level int, out []*node[T]) []*node[T] {
	if level == 0 {
		return append(out, n)
	}
	for _, k := range n.kids {
		out = collectLeavesRec(k.(*node[T]), level-Bits, out)
	}
	return out
}

// buildRelaxed groups a leaf list into a relaxed trie, B children per
// parent per level, tracking a cumulative-size table at every level
// above the leaves (spec.md §4.1's relaxed-node merge).
func buildRelaxed[T any](leaves []*node[T], owr *owner.Token) (*node[T], int) {
	if len(leaves) == 0 {
		return nil, 0
	}
	if len(leaves) == 1 {
		return leaves[0], 0
	}

	layer := make([]any, len(leaves))
	for i, l := range leaves {
		layer[i] = l
	}

	level := 0
	for len(layer) > 1 {
		childLevel := level
		var next []any
		for i := 0; i < len(layer); i += B {
			end := min(i+B, len(layer))
			parent := newNode[T](owr)
			parent.kids = append([]any{}, layer[i:end]...)
			parent.relaxed = true
			parent.sizes = buildSizes[T](parent.kids, childLevel)
			next = append(next, parent)
		}
		layer = next
		level += Bits
	}
	return layer[0].(*node[T]), level
}
