package persist

import (
	"iter"

	"github.com/cowtrie/persist/internal/hamt"
	"github.com/cowtrie/persist/internal/order"
	"github.com/cowtrie/persist/internal/owner"
)

// KV is an ordered key/value pair, used where a caller must supply
// insertion order explicitly (Go's map type carries none of its own).
type KV[K any, V any] struct {
	Key   K
	Value V
}

// Map is the keyed-collection façade of SPEC_FULL.md §4.2/§4.4: a native
// Go map below the adaptive threshold, an internal/hamt.Map at or above
// it, or — when ordering is requested — an internal/order.Index that
// preserves insertion order regardless of size.
type Map[K comparable, V any] struct {
	nativeM map[K]V
	data    hamt.Map[K, V]
	idx     order.Index[K, V]
	wrapped bool
	ordered bool
}

// WrapMap adapts m to size. Iteration order is whatever Go's native map
// or the HAMT gives — neither preserves insertion order; use
// WrapMapOrdered when that matters.
func WrapMap[K comparable, V any](m map[K]V) Map[K, V] {
	if len(m) >= threshold {
		var data hamt.Map[K, V]
		owr := owner.New()
		for k, v := range m {
			data = data.Set(owr, k, v)
		}
		return Map[K, V]{data: data, wrapped: true}
	}
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Map[K, V]{nativeM: cp}
}

// WrapMapOrdered builds an order-preserving Map from pairs, forcing the
// internal/order.Index layer regardless of size (spec.md §6).
func WrapMapOrdered[K comparable, V any](pairs []KV[K, V]) Map[K, V] {
	var idx order.Index[K, V]
	owr := owner.New()
	for _, p := range pairs {
		if _, exists := idx.IndexOf(p.Key); exists {
			idx = idx.UpdateValue(owr, p.Key, p.Value)
			continue
		}
		idx = idx.Append(owr, p.Key, p.Value)
	}
	return Map[K, V]{idx: idx, wrapped: true, ordered: true}
}

// IsWrapped reports whether m is backed by a persistent trie (HAMT or
// order index) rather than a native Go map.
func (m Map[K, V]) IsWrapped() bool { return m.wrapped }

// Len returns the number of entries.
func (m Map[K, V]) Len() int {
	switch {
	case m.ordered:
		return m.idx.Len()
	case m.wrapped:
		return m.data.Size()
	default:
		return len(m.nativeM)
	}
}

// Get returns the value for key, and whether it was present.
func (m Map[K, V]) Get(key K) (V, bool) {
	switch {
	case m.ordered:
		return m.idx.Get(key)
	case m.wrapped:
		return m.data.Get(key)
	default:
		v, ok := m.nativeM[key]
		return v, ok
	}
}

// Has reports whether key is present.
func (m Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// With returns a Map with key bound to value.
func (m Map[K, V]) With(key K, value V) Map[K, V] {
	owr := owner.New()
	switch {
	case m.ordered:
		if _, exists := m.idx.IndexOf(key); exists {
			m.idx = m.idx.UpdateValue(owr, key, value)
		} else {
			m.idx = m.idx.Append(owr, key, value)
		}
		return m
	case m.wrapped:
		m.data = m.data.Set(owr, key, value)
		return m
	default:
		if len(m.nativeM)+1 >= threshold {
			return mapFromNative(m.nativeM, key, value)
		}
		cp := make(map[K]V, len(m.nativeM)+1)
		for k, v := range m.nativeM {
			cp[k] = v
		}
		cp[key] = value
		return Map[K, V]{nativeM: cp}
	}
}

func mapFromNative[K comparable, V any](base map[K]V, key K, value V) Map[K, V] {
	owr := owner.New()
	var data hamt.Map[K, V]
	for k, v := range base {
		data = data.Set(owr, k, v)
	}
	data = data.Set(owr, key, value)
	return Map[K, V]{data: data, wrapped: true}
}

// Without returns a Map with key removed, if present.
func (m Map[K, V]) Without(key K) Map[K, V] {
	owr := owner.New()
	switch {
	case m.ordered:
		m.idx = m.idx.Delete(owr, key)
		if m.idx.ShouldCompact() {
			m.idx = m.idx.Compact(owr)
		}
		return m
	case m.wrapped:
		m.data = m.data.Delete(owr, key)
		if m.data.Size() < threshold {
			return mapToNative(m.data)
		}
		return m
	default:
		if _, ok := m.nativeM[key]; !ok {
			return m
		}
		cp := make(map[K]V, len(m.nativeM)-1)
		for k, v := range m.nativeM {
			if k != key {
				cp[k] = v
			}
		}
		return Map[K, V]{nativeM: cp}
	}
}

func mapToNative[K comparable, V any](data hamt.Map[K, V]) Map[K, V] {
	cp := make(map[K]V, data.Size())
	for k, v := range data.All {
		cp[k] = v
	}
	return Map[K, V]{nativeM: cp}
}

// Unwrap produces a fresh native map with m's contents.
func (m Map[K, V]) Unwrap() map[K]V {
	out := make(map[K]V, m.Len())
	for k, v := range m.All() {
		out[k] = v
	}
	return out
}

// All iterates key/value pairs. Order is insertion order for ordered
// Maps, unspecified otherwise.
func (m Map[K, V]) All() iter.Seq2[K, V] {
	switch {
	case m.ordered:
		return m.idx.All
	case m.wrapped:
		return m.data.All
	default:
		native := m.nativeM
		return func(yield func(K, V) bool) {
			for k, v := range native {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Set is the unique-element façade of SPEC_FULL.md §3's "set is a map
// with a unit value", built directly on Map[T, struct{}].
type Set[T comparable] struct {
	inner Map[T, struct{}]
}

// WrapSet adapts xs to size. Duplicates collapse, and iteration order is
// unspecified (a native Go map or the HAMT holds the elements); only
// WrapSetOrdered keeps first-seen order.
func WrapSet[T comparable](xs []T) Set[T] {
	m := make(map[T]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return Set[T]{inner: WrapMap(m)}
}

// WrapSetOrdered builds an order-preserving Set from xs, forcing the
// internal/order.Index layer regardless of size.
func WrapSetOrdered[T comparable](xs []T) Set[T] {
	pairs := make([]KV[T, struct{}], 0, len(xs))
	seen := make(map[T]bool, len(xs))
	for _, x := range xs {
		if seen[x] {
			continue
		}
		seen[x] = true
		pairs = append(pairs, KV[T, struct{}]{Key: x})
	}
	return Set[T]{inner: WrapMapOrdered(pairs)}
}

// IsWrapped reports whether s is backed by a persistent trie.
func (s Set[T]) IsWrapped() bool { return s.inner.IsWrapped() }

// Len returns the number of elements.
func (s Set[T]) Len() int { return s.inner.Len() }

// Has reports whether x is a member.
func (s Set[T]) Has(x T) bool { return s.inner.Has(x) }

// With returns a Set with x added.
func (s Set[T]) With(x T) Set[T] { return Set[T]{inner: s.inner.With(x, struct{}{})} }

// Without returns a Set with x removed.
func (s Set[T]) Without(x T) Set[T] { return Set[T]{inner: s.inner.Without(x)} }

// Unwrap produces a fresh native slice with s's elements.
func (s Set[T]) Unwrap() []T {
	out := make([]T, 0, s.Len())
	for x := range s.All() {
		out = append(out, x)
	}
	return out
}

// All iterates elements. Order is insertion order for ordered Sets,
// unspecified otherwise.
func (s Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for x := range s.inner.All() {
			if !yield(x) {
				return
			}
		}
	}
}
