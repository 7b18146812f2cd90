package persist

import (
	"errors"

	"github.com/cowtrie/persist/internal/hamt"
	"github.com/cowtrie/persist/internal/order"
	"github.com/cowtrie/persist/internal/owner"
	"github.com/cowtrie/persist/internal/rrbvec"
)

// ErrCyclicDraft is returned by Transform family functions when a draft
// is asked to finalize while it is already finalizing — an ObjectDraft
// nested, directly or transitively, inside its own value.
var ErrCyclicDraft = errors.New("persist: cyclic draft")

// Draft records writes against base for Transform. Go has no analogue
// of a transparent JS Proxy (see SPEC_FULL.md §4.5's REDESIGN note), so
// mutation goes through explicit Get/Set/Push/Pop/Splice/SetLen rather
// than index assignment. Per spec.md §4.5, a wrapped base is worked on
// through its underlying internal/rrbvec.Tree with a single owner
// token, so a Set deep in a multi-thousand-element Vec only clones the
// nodes on the path to that index rather than rebuilding the whole
// structure; a native base, never persistent to begin with, is copied
// once into a plain slice.
type Draft[T any] struct {
	base    Vec[T]
	owr     *owner.Token
	tree    rrbvec.Tree[T]
	native  []T
	started bool

	modified bool
}

func (d *Draft[T]) ensure() {
	if d.started {
		return
	}
	d.started = true
	d.owr = owner.New()
	if d.base.wrapped {
		d.tree = d.base.tree
	} else {
		d.native = append([]T(nil), d.base.native...)
	}
}

// Len returns the current element count.
func (d *Draft[T]) Len() int {
	if !d.started {
		return d.base.Len()
	}
	if d.base.wrapped {
		return d.tree.Count
	}
	return len(d.native)
}

// Get returns the element at i.
func (d *Draft[T]) Get(i int) (T, bool) {
	if !d.started {
		return d.base.At(i)
	}
	if d.base.wrapped {
		return d.tree.Get(i)
	}
	var zero T
	if i < 0 || i >= len(d.native) {
		return zero, false
	}
	return d.native[i], true
}

// Set replaces the element at i.
func (d *Draft[T]) Set(i int, x T) error {
	d.ensure()
	if d.base.wrapped {
		nt, err := d.tree.Assoc(d.owr, i, x)
		if err != nil {
			return ErrOutOfRange
		}
		d.tree = nt
		d.modified = true
		return nil
	}
	if i < 0 || i >= len(d.native) {
		return ErrOutOfRange
	}
	d.native[i] = x
	d.modified = true
	return nil
}

// Push appends x.
func (d *Draft[T]) Push(x T) {
	d.ensure()
	if d.base.wrapped {
		d.tree = d.tree.Push(d.owr, x)
	} else {
		d.native = append(d.native, x)
	}
	d.modified = true
}

// Pop removes and returns the last element.
func (d *Draft[T]) Pop() (T, bool) {
	d.ensure()
	if d.base.wrapped {
		nt, val, ok := d.tree.Pop(d.owr)
		if !ok {
			return val, false
		}
		d.tree = nt
		d.modified = true
		return val, true
	}
	var zero T
	if len(d.native) == 0 {
		return zero, false
	}
	val := d.native[len(d.native)-1]
	d.native = d.native[:len(d.native)-1]
	d.modified = true
	return val, true
}

// Splice removes deleteCount elements starting at start and inserts xs
// in their place, per spec.md §4.5's splice(s,d,...xs) mutator.
func (d *Draft[T]) Splice(start, deleteCount int, xs ...T) {
	d.ensure()
	if d.base.wrapped {
		n := d.tree.Count
		start = max(0, min(start, n))
		end := max(start, min(start+deleteCount, n))
		left := rrbvec.Slice(d.tree, d.owr, 0, start)
		right := rrbvec.Slice(d.tree, d.owr, end, n)
		mid := rrbvec.FromSlice(xs)
		d.tree = rrbvec.Concat(rrbvec.Concat(left, mid, d.owr), right, d.owr)
	} else {
		n := len(d.native)
		start = max(0, min(start, n))
		end := max(start, min(start+deleteCount, n))
		next := append([]T(nil), d.native[:start]...)
		next = append(next, xs...)
		next = append(next, d.native[end:]...)
		d.native = next
	}
	d.modified = true
}

// SetLen resizes the draft to n elements, per spec.md §4.5's "length
// assignment either pops the excess or pads with the zero value."
func (d *Draft[T]) SetLen(n int) error {
	if n < 0 {
		return ErrInvalidLength
	}
	d.ensure()
	var zero T
	for d.Len() > n {
		d.Pop()
	}
	for d.Len() < n {
		d.Push(zero)
	}
	return nil
}

// Transform applies fn to a draft of base and returns the finalized
// result. On error, or if fn makes no change, base is returned
// untouched (spec.md §4.6 "no partial draft is exposed").
func Transform[T any](base Vec[T], fn func(*Draft[T]) error) (Vec[T], error) {
	d := &Draft[T]{base: base}
	if err := fn(d); err != nil {
		return base, err
	}
	if !d.modified {
		return base, nil
	}
	if base.wrapped {
		return vecFromTree(d.tree), nil
	}
	return vecFromNative(d.native), nil
}

// MapDraft records writes against base for TransformMap, mutating
// whichever persistent structure base already uses (order.Index,
// hamt.Map, or a plain native map) through a single owner token rather
// than rebuilding it from scratch on finalize.
type MapDraft[K comparable, V any] struct {
	base    Map[K, V]
	owr     *owner.Token
	data    hamt.Map[K, V]
	idx     order.Index[K, V]
	nativeM map[K]V
	started bool

	modified bool
}

func (d *MapDraft[K, V]) ensure() {
	if d.started {
		return
	}
	d.started = true
	d.owr = owner.New()
	switch {
	case d.base.ordered:
		d.idx = d.base.idx
	case d.base.wrapped:
		d.data = d.base.data
	default:
		d.nativeM = make(map[K]V, len(d.base.nativeM))
		for k, v := range d.base.nativeM {
			d.nativeM[k] = v
		}
	}
}

// Get returns the value for key.
func (d *MapDraft[K, V]) Get(key K) (V, bool) {
	if !d.started {
		return d.base.Get(key)
	}
	switch {
	case d.base.ordered:
		return d.idx.Get(key)
	case d.base.wrapped:
		return d.data.Get(key)
	default:
		v, ok := d.nativeM[key]
		return v, ok
	}
}

// Has reports whether key is present.
func (d *MapDraft[K, V]) Has(key K) bool {
	_, ok := d.Get(key)
	return ok
}

// Set binds key to value.
func (d *MapDraft[K, V]) Set(key K, value V) {
	d.ensure()
	switch {
	case d.base.ordered:
		if _, exists := d.idx.IndexOf(key); exists {
			d.idx = d.idx.UpdateValue(d.owr, key, value)
		} else {
			d.idx = d.idx.Append(d.owr, key, value)
		}
	case d.base.wrapped:
		d.data = d.data.Set(d.owr, key, value)
	default:
		d.nativeM[key] = value
	}
	d.modified = true
}

// Delete removes key, if present.
func (d *MapDraft[K, V]) Delete(key K) {
	d.ensure()
	switch {
	case d.base.ordered:
		if _, exists := d.idx.IndexOf(key); !exists {
			return
		}
		d.idx = d.idx.Delete(d.owr, key)
		if d.idx.ShouldCompact() {
			d.idx = d.idx.Compact(d.owr)
		}
	case d.base.wrapped:
		if !d.data.Has(key) {
			return
		}
		d.data = d.data.Delete(d.owr, key)
	default:
		if _, ok := d.nativeM[key]; !ok {
			return
		}
		delete(d.nativeM, key)
	}
	d.modified = true
}

// TransformMap applies fn to a draft of base and returns the finalized
// result.
func TransformMap[K comparable, V any](base Map[K, V], fn func(*MapDraft[K, V]) error) (Map[K, V], error) {
	d := &MapDraft[K, V]{base: base}
	if err := fn(d); err != nil {
		return base, err
	}
	if !d.modified {
		return base, nil
	}
	switch {
	case base.ordered:
		return Map[K, V]{idx: d.idx, wrapped: true, ordered: true}, nil
	case base.wrapped:
		if d.data.Size() < threshold {
			return mapToNative(d.data), nil
		}
		return Map[K, V]{data: d.data, wrapped: true}, nil
	default:
		return WrapMap(d.nativeM), nil
	}
}

// SetDraft records writes against base for TransformSet, built directly
// on MapDraft the way Set itself is built on Map[T, struct{}].
type SetDraft[T comparable] struct {
	inner MapDraft[T, struct{}]
}

// Has reports whether x is a member.
func (d *SetDraft[T]) Has(x T) bool { return d.inner.Has(x) }

// Add inserts x.
func (d *SetDraft[T]) Add(x T) { d.inner.Set(x, struct{}{}) }

// Remove deletes x, if present.
func (d *SetDraft[T]) Remove(x T) { d.inner.Delete(x) }

// TransformSet applies fn to a draft of base and returns the finalized
// result.
func TransformSet[T comparable](base Set[T], fn func(*SetDraft[T]) error) (Set[T], error) {
	d := &SetDraft[T]{inner: MapDraft[T, struct{}]{base: base.inner}}
	if err := fn(d); err != nil {
		return base, err
	}
	if !d.inner.modified {
		return base, nil
	}
	switch {
	case base.inner.ordered:
		return Set[T]{inner: Map[T, struct{}]{idx: d.inner.idx, wrapped: true, ordered: true}}, nil
	case base.inner.wrapped:
		if d.inner.data.Size() < threshold {
			return Set[T]{inner: mapToNative(d.inner.data)}, nil
		}
		return Set[T]{inner: Map[T, struct{}]{data: d.inner.data, wrapped: true}}, nil
	default:
		return Set[T]{inner: WrapMap(d.inner.nativeM)}, nil
	}
}

// ObjectDraft records writes against base's keys for TransformObject,
// with lazy, memoized child drafts for nested Objects — the recursive
// transitively-modified sweep of SPEC_FULL.md §4.5, grounded on
// banks-go-immutable-radix/txn.go's copyIfNeeded clone-on-first-write.
type ObjectDraft struct {
	base       Object
	cur        map[string]any
	keys       []string
	children   map[string]*ObjectDraft
	modified   bool
	finalizing bool
}

func (d *ObjectDraft) ensure() {
	if d.cur == nil {
		d.cur = make(map[string]any, d.base.Len())
		for k, v := range d.base.All() {
			d.cur[k] = v
		}
		d.keys = d.base.Keys()
	}
}

// Get returns the value for key.
func (d *ObjectDraft) Get(key string) (any, bool) {
	if d.cur != nil {
		v, ok := d.cur[key]
		return v, ok
	}
	return d.base.Get(key)
}

// Has reports whether key is present.
func (d *ObjectDraft) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Len returns the number of keys.
func (d *ObjectDraft) Len() int {
	if d.cur != nil {
		return len(d.keys)
	}
	return d.base.Len()
}

// Set binds key to value, appending it to the key order if new.
func (d *ObjectDraft) Set(key string, value any) {
	d.ensure()
	if _, exists := d.cur[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.cur[key] = value
	delete(d.children, key)
	d.modified = true
}

// Delete removes key, if present.
func (d *ObjectDraft) Delete(key string) {
	d.ensure()
	if _, exists := d.cur[key]; !exists {
		return
	}
	delete(d.cur, key)
	delete(d.children, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i:i], d.keys[i+1:]...)
			break
		}
	}
	d.modified = true
}

// DraftObject returns a memoized nested draft over key's value, if that
// value is itself an Object. Writes to the returned draft are folded
// back into d when d finalizes.
func (d *ObjectDraft) DraftObject(key string) (*ObjectDraft, bool) {
	if child, ok := d.children[key]; ok {
		return child, true
	}
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(Object)
	if !ok {
		return nil, false
	}
	child := &ObjectDraft{base: nested}
	if d.children == nil {
		d.children = make(map[string]*ObjectDraft)
	}
	d.children[key] = child
	return child, true
}

func (d *ObjectDraft) finalize() (Object, bool, error) {
	if d.finalizing {
		return Object{}, false, ErrCyclicDraft
	}
	d.finalizing = true
	defer func() { d.finalizing = false }()

	changed := d.modified
	for key, child := range d.children {
		nested, childChanged, err := child.finalize()
		if err != nil {
			return Object{}, false, err
		}
		if childChanged {
			d.ensure()
			d.cur[key] = nested
			changed = true
		}
	}
	if !changed {
		return d.base, false, nil
	}
	d.ensure()
	built := Object{}
	for _, k := range d.keys {
		built = built.With(k, d.cur[k])
	}
	return built, true, nil
}

// TransformObject applies fn to a draft of base and returns the
// finalized result.
func TransformObject(base Object, fn func(*ObjectDraft) error) (Object, error) {
	d := &ObjectDraft{base: base}
	if err := fn(d); err != nil {
		return base, err
	}
	out, changed, err := d.finalize()
	if err != nil {
		return base, err
	}
	if !changed {
		return base, nil
	}
	return out, nil
}
