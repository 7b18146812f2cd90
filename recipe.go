package persist

import "errors"

// ErrEmptyPath is returned when an ObjectRecorder operation is given a
// zero-length path.
var ErrEmptyPath = errors.New("persist: empty object path")

// VecRecorder queues operations against a Vec for replay by
// RecordAndApply, rather than applying them immediately the way Draft
// does — the Recipe protocol of SPEC_FULL.md §4.6.
type VecRecorder[T any] struct {
	ops []vecOp[T]
}

type vecOpKind uint8

const (
	vecOpSet vecOpKind = iota
	vecOpDelete
	vecOpPush
	vecOpSplice
	vecOpFilter
)

type vecOp[T any] struct {
	kind    vecOpKind
	idx     int
	val     T
	deleteN int
	vals    []T
	pred    func(T) bool
}

// Set queues replacing the element at i.
func (r *VecRecorder[T]) Set(i int, x T) { r.ops = append(r.ops, vecOp[T]{kind: vecOpSet, idx: i, val: x}) }

// Delete queues removing the element at i.
func (r *VecRecorder[T]) Delete(i int) { r.ops = append(r.ops, vecOp[T]{kind: vecOpDelete, idx: i}) }

// Push queues appending xs.
func (r *VecRecorder[T]) Push(xs ...T) { r.ops = append(r.ops, vecOp[T]{kind: vecOpPush, vals: xs}) }

// Splice queues removing deleteCount elements starting at start and
// inserting xs in their place.
func (r *VecRecorder[T]) Splice(start, deleteCount int, xs ...T) {
	r.ops = append(r.ops, vecOp[T]{kind: vecOpSplice, idx: start, deleteN: deleteCount, vals: xs})
}

// Filter queues keeping only the elements for which fn returns true.
func (r *VecRecorder[T]) Filter(fn func(T) bool) {
	r.ops = append(r.ops, vecOp[T]{kind: vecOpFilter, pred: fn})
}

// RecordAndApply replays the operations queued by fn against base in one
// batch and returns the result. base is returned untouched on error or
// if nothing was queued.
func RecordAndApply[T any](base Vec[T], fn func(*VecRecorder[T])) (Vec[T], error) {
	r := &VecRecorder[T]{}
	fn(r)
	if len(r.ops) == 0 {
		return base, nil
	}
	cur := base
	for _, op := range r.ops {
		switch op.kind {
		case vecOpSet:
			nv, err := cur.With(op.idx, op.val)
			if err != nil {
				return base, err
			}
			cur = nv
		case vecOpDelete:
			n := cur.Len()
			if op.idx < 0 || op.idx >= n {
				return base, ErrOutOfRange
			}
			cur = cur.Slice(0, op.idx).Concat(cur.Slice(op.idx+1, n))
		case vecOpPush:
			cur = cur.Push(op.vals...)
		case vecOpSplice:
			n := cur.Len()
			start := max(0, min(op.idx, n))
			end := max(start, min(start+op.deleteN, n))
			cur = cur.Slice(0, start).Concat(WrapVec(op.vals)).Concat(cur.Slice(end, n))
		case vecOpFilter:
			kept := make([]T, 0, cur.Len())
			for _, x := range cur.Unwrap() {
				if op.pred(x) {
					kept = append(kept, x)
				}
			}
			cur = WrapVec(kept)
		}
	}
	return cur, nil
}

// MapRecorder queues operations against a Map for replay.
type MapRecorder[K comparable, V any] struct {
	ops []mapOp[K, V]
}

type mapOp[K comparable, V any] struct {
	del bool
	key K
	val V
}

// Set queues binding key to value.
func (r *MapRecorder[K, V]) Set(key K, value V) {
	r.ops = append(r.ops, mapOp[K, V]{key: key, val: value})
}

// Delete queues removing key.
func (r *MapRecorder[K, V]) Delete(key K) {
	r.ops = append(r.ops, mapOp[K, V]{del: true, key: key})
}

// RecordAndApplyMap replays the operations queued by fn against base in
// one batch.
func RecordAndApplyMap[K comparable, V any](base Map[K, V], fn func(*MapRecorder[K, V])) (Map[K, V], error) {
	r := &MapRecorder[K, V]{}
	fn(r)
	if len(r.ops) == 0 {
		return base, nil
	}
	cur := base
	for _, op := range r.ops {
		if op.del {
			cur = cur.Without(op.key)
		} else {
			cur = cur.With(op.key, op.val)
		}
	}
	return cur, nil
}

// SetRecorder queues operations against a Set for replay.
type SetRecorder[T comparable] struct {
	ops []setOp[T]
}

type setOp[T comparable] struct {
	del bool
	val T
}

// Add queues inserting x.
func (r *SetRecorder[T]) Add(x T) { r.ops = append(r.ops, setOp[T]{val: x}) }

// Remove queues removing x.
func (r *SetRecorder[T]) Remove(x T) { r.ops = append(r.ops, setOp[T]{del: true, val: x}) }

// RecordAndApplySet replays the operations queued by fn against base in
// one batch.
func RecordAndApplySet[T comparable](base Set[T], fn func(*SetRecorder[T])) (Set[T], error) {
	r := &SetRecorder[T]{}
	fn(r)
	if len(r.ops) == 0 {
		return base, nil
	}
	cur := base
	for _, op := range r.ops {
		if op.del {
			cur = cur.Without(op.val)
		} else {
			cur = cur.With(op.val)
		}
	}
	return cur, nil
}

// ObjectRecorder queues path-addressed operations against an Object.
// Each queued op walks its own path from the root on replay — spec.md
// §4.6 also describes a cardinality-grouped pattern table (batching
// writes that share a path prefix into a single walk per distinct
// nested object); this recorder does not implement that batching, so
// replay cost is O(depth) per queued op rather than O(distinct paths).
// spec.md §4.6's "copy once and apply mutations sequentially" fallback
// is stated for the Vec recipe, not Object's pattern table, so this is
// a deliberate simplification, not the spec's own fallback.
type ObjectRecorder struct {
	ops []objectOp
}

type objectOpKind uint8

const (
	objectOpSet objectOpKind = iota
	objectOpDelete
	objectOpUpdate
	objectOpMerge
)

type objectOp struct {
	kind    objectOpKind
	path    []string
	val     any
	fn      func(any) any
	partial map[string]any
}

// Set queues binding the value at path, creating intermediate Objects
// as needed.
func (r *ObjectRecorder) Set(path []string, value any) {
	r.ops = append(r.ops, objectOp{kind: objectOpSet, path: path, val: value})
}

// Delete queues removing the key at path.
func (r *ObjectRecorder) Delete(path []string) {
	r.ops = append(r.ops, objectOp{kind: objectOpDelete, path: path})
}

// Update queues replacing the value at path with fn applied to its
// current value (nil if path is absent).
func (r *ObjectRecorder) Update(path []string, fn func(current any) any) {
	r.ops = append(r.ops, objectOp{kind: objectOpUpdate, path: path, fn: fn})
}

// Merge queues shallow-merging partial into the Object at path, creating
// it if absent or if a non-Object value currently occupies path.
func (r *ObjectRecorder) Merge(path []string, partial map[string]any) {
	r.ops = append(r.ops, objectOp{kind: objectOpMerge, path: path, partial: partial})
}

// RecordAndApplyObject replays the operations queued by fn against base
// in one batch.
func RecordAndApplyObject(base Object, fn func(*ObjectRecorder)) (Object, error) {
	r := &ObjectRecorder{}
	fn(r)
	if len(r.ops) == 0 {
		return base, nil
	}
	cur := base
	for _, op := range r.ops {
		next, err := applyObjectOp(cur, op)
		if err != nil {
			return base, err
		}
		cur = next
	}
	return cur, nil
}

func applyObjectOp(base Object, op objectOp) (Object, error) {
	if len(op.path) == 0 {
		return base, ErrEmptyPath
	}
	key := op.path[0]
	if len(op.path) == 1 {
		switch op.kind {
		case objectOpDelete:
			return base.Without(key), nil
		case objectOpSet:
			return base.With(key, op.val), nil
		case objectOpUpdate:
			cur, _ := base.Get(key)
			return base.With(key, op.fn(cur)), nil
		case objectOpMerge:
			target := Object{}
			if existing, ok := base.Get(key); ok {
				if asObj, ok := existing.(Object); ok {
					target = asObj
				}
			}
			for k, v := range op.partial {
				target = target.With(k, v)
			}
			return base.With(key, target), nil
		}
		return base, nil
	}

	nested := Object{}
	if v, ok := base.Get(key); ok {
		if asObj, ok := v.(Object); ok {
			nested = asObj
		} else if op.kind == objectOpDelete {
			return base, nil // non-Object in the path; deletion target doesn't exist
		}
	} else if op.kind == objectOpDelete {
		return base, nil
	}
	newNested, err := applyObjectOp(nested, objectOp{kind: op.kind, path: op.path[1:], val: op.val, fn: op.fn, partial: op.partial})
	if err != nil {
		return base, err
	}
	return base.With(key, newNested), nil
}
