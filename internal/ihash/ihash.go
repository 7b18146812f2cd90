// Package ihash computes the deterministic 32-bit hashes and the
// SameValueZero equality used by the HAMT (internal/hamt) for every
// scalar and reference-typed key kind.
//
// Hashing mirrors rogpeppe/generic/ctrie's approach of a stable mix
// function per key kind (ctrie hashes strings/bytes via maphash; this
// port uses fixed-seed mixes instead, so scalar keys hash the same in
// every process). Keys of any other kind get a number from a monotonic
// identity counter, assigned on first use, so their hashes depend on
// the order in which they are first hashed.
package ihash

import (
	"math"
	"sync"
	"sync/atomic"
)

// Of returns the 32-bit hash of an arbitrary comparable key, dispatching
// by dynamic kind the way spec.md's HAMT hashing section describes:
// strings get a Murmur3-style mix, integers a SplitMix32 finalizer,
// booleans and nil fixed sentinels, everything else an identity-cache
// mix.
func Of(key any) uint32 {
	switch k := key.(type) {
	case nil:
		return hashNil
	case bool:
		if k {
			return hashTrue
		}
		return hashFalse
	case string:
		return hashString(k)
	case int:
		return hashInt64(int64(k))
	case int8:
		return hashInt64(int64(k))
	case int16:
		return hashInt64(int64(k))
	case int32:
		return hashInt64(int64(k))
	case int64:
		return hashInt64(k)
	case uint:
		return hashInt64(int64(k))
	case uint8:
		return hashInt64(int64(k))
	case uint16:
		return hashInt64(int64(k))
	case uint32:
		return hashInt64(int64(k))
	case uint64:
		return hashInt64(int64(k))
	case float32:
		return hashFloat64(float64(k))
	case float64:
		return hashFloat64(k)
	default:
		return hashIdentity(key)
	}
}

const (
	hashNil   uint32 = 0x9e3779b1
	hashTrue  uint32 = 0x85ebca77
	hashFalse uint32 = 0xc2b2ae3d
)

// splitMix32 is the SplitMix32 finalizer named in spec.md's hashing
// section.
func splitMix32(x uint32) uint32 {
	x += 0x9e3779b9
	x ^= x >> 16
	x *= 0x21f0aaad
	x ^= x >> 15
	x *= 0x735a2d97
	x ^= x >> 15
	return x
}

func hashInt64(v int64) uint32 {
	return splitMix32(uint32(v) ^ uint32(v>>32))
}

func hashFloat64(f float64) uint32 {
	if f == 0 {
		f = 0 // fold -0 into +0 per SameValueZero
	}
	return splitMix32(uint32(math.Float64bits(f) ^ (math.Float64bits(f) >> 32)))
}

// hashString implements the 32-bit Murmur3-style mix spec.md calls for.
func hashString(s string) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
	)
	var h uint32 = 0xf9ea92d5 // arbitrary fixed seed, stable across runs
	var i int
	for ; i+4 <= len(s); i += 4 {
		k := uint32(s[i]) | uint32(s[i+1])<<8 | uint32(s[i+2])<<16 | uint32(s[i+3])<<24
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2
		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}
	var tail uint32
	switch len(s) - i {
	case 3:
		tail ^= uint32(s[i+2]) << 16
		fallthrough
	case 2:
		tail ^= uint32(s[i+1]) << 8
		fallthrough
	case 1:
		tail ^= uint32(s[i])
		tail *= c1
		tail = (tail << 15) | (tail >> 17)
		tail *= c2
		h ^= tail
	}
	h ^= uint32(len(s))
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

var (
	identityMu      sync.Mutex
	identityTable   = map[any]uint32{}
	identityCounter atomic.Uint32
)

// hashIdentity assigns (and caches) a monotonically increasing identity
// number to reference-typed or symbol-like keys, then mixes it, per
// spec.md's "monotonically incremented identity number cached in a weak
// identity table, then mixed". The table is an ordinary map, not a weak
// one: every key hashed here stays referenced by the table for the life
// of the process, so a pointer key's target is never garbage collected
// and entries are never removed.
func hashIdentity(key any) uint32 {
	identityMu.Lock()
	id, ok := identityTable[key]
	if !ok {
		id = identityCounter.Add(1)
		identityTable[key] = id
	}
	identityMu.Unlock()
	return splitMix32(id)
}

// SameValueZero implements the equality spec.md's HAMT relies on: NaN
// equals itself, +0 equals -0, otherwise ordinary equality.
func SameValueZero(a, b any) bool {
	af, aIsFloat := asFloat(a)
	bf, bIsFloat := asFloat(b)
	if aIsFloat && bIsFloat {
		if af != af && bf != bf {
			return true // NaN == NaN
		}
		return af == bf // +0 == -0 falls out of ==
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
