package persist

import (
	"iter"

	"github.com/cowtrie/persist/internal/order"
	"github.com/cowtrie/persist/internal/owner"
)

// Object is the keyed-record façade of spec.md's §4.5 Object shape:
// string keys, arbitrary values, insertion order always preserved (Go's
// map type carries none, so Object never degrades to one — the native
// representation below threshold is a map paired with a key-order
// slice).
type Object struct {
	nativeM map[string]any
	nativeK []string
	idx     order.Index[string, any]
	wrapped bool
}

// WrapObject adapts m to size. Since a native Go map carries no
// iteration order, the key order for a freshly wrapped Object is Go's
// (unspecified) map iteration order — callers that need a specific
// initial order should build one key at a time with With.
func WrapObject(m map[string]any) Object {
	if len(m) >= threshold {
		var idx order.Index[string, any]
		owr := owner.New()
		for k, v := range m {
			idx = idx.Append(owr, k, v)
		}
		return Object{idx: idx, wrapped: true}
	}
	keys := make([]string, 0, len(m))
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
		keys = append(keys, k)
	}
	return Object{nativeM: cp, nativeK: keys}
}

// IsWrapped reports whether o is backed by the persistent order index.
func (o Object) IsWrapped() bool { return o.wrapped }

// Len returns the number of keys.
func (o Object) Len() int {
	if o.wrapped {
		return o.idx.Len()
	}
	return len(o.nativeK)
}

// Get returns the value for key, and whether it was present.
func (o Object) Get(key string) (any, bool) {
	if o.wrapped {
		return o.idx.Get(key)
	}
	v, ok := o.nativeM[key]
	return v, ok
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// With returns an Object with key bound to value, appended to the key
// order if new.
func (o Object) With(key string, value any) Object {
	owr := owner.New()
	if o.wrapped {
		if _, exists := o.idx.IndexOf(key); exists {
			o.idx = o.idx.UpdateValue(owr, key, value)
		} else {
			o.idx = o.idx.Append(owr, key, value)
		}
		return o
	}
	if len(o.nativeK)+1 >= threshold {
		var idx order.Index[string, any]
		for _, k := range o.nativeK {
			idx = idx.Append(owr, k, o.nativeM[k])
		}
		if _, exists := idx.IndexOf(key); exists {
			idx = idx.UpdateValue(owr, key, value)
		} else {
			idx = idx.Append(owr, key, value)
		}
		return Object{idx: idx, wrapped: true}
	}
	cp := make(map[string]any, len(o.nativeM)+1)
	for k, v := range o.nativeM {
		cp[k] = v
	}
	keys := o.nativeK
	if _, exists := cp[key]; !exists {
		keys = append(append([]string(nil), o.nativeK...), key)
	}
	cp[key] = value
	return Object{nativeM: cp, nativeK: keys}
}

// Without returns an Object with key removed, if present.
func (o Object) Without(key string) Object {
	if o.wrapped {
		owr := owner.New()
		o.idx = o.idx.Delete(owr, key)
		if o.idx.ShouldCompact() {
			o.idx = o.idx.Compact(owr)
		}
		return o
	}
	if _, ok := o.nativeM[key]; !ok {
		return o
	}
	cp := make(map[string]any, len(o.nativeM)-1)
	keys := make([]string, 0, len(o.nativeK)-1)
	for _, k := range o.nativeK {
		if k == key {
			continue
		}
		keys = append(keys, k)
		cp[k] = o.nativeM[k]
	}
	return Object{nativeM: cp, nativeK: keys}
}

// Keys returns the keys in insertion order.
func (o Object) Keys() []string {
	if o.wrapped {
		keys := make([]string, 0, o.idx.Len())
		for k := range o.idx.All {
			keys = append(keys, k)
		}
		return keys
	}
	return append([]string(nil), o.nativeK...)
}

// Unwrap produces a fresh native map with o's contents.
func (o Object) Unwrap() map[string]any {
	out := make(map[string]any, o.Len())
	for k, v := range o.All() {
		out[k] = v
	}
	return out
}

// All iterates key/value pairs in insertion order.
func (o Object) All() iter.Seq2[string, any] {
	if o.wrapped {
		return o.idx.All
	}
	keys, m := o.nativeK, o.nativeM
	return func(yield func(string, any) bool) {
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
