package persist

// DefaultThreshold is the adaptive threshold T from SPEC_FULL.md §4.4:
// collections smaller than this use a native Go container; at or above
// it, the persistent trie-backed form takes over.
const DefaultThreshold = 512

// threshold is package-level rather than a per-value option: every
// façade constructor in this package consults it at wrap time, and
// SetThreshold (test-only in intent, but exported because the pack's
// library-shaped repos — lthibault/vector, gaissmai/bart — all expose
// their tunables as plain package state rather than a config object)
// lets callers dial it down to exercise the persistent path in tests
// without building 512-element fixtures.
var threshold = DefaultThreshold

// SetThreshold overrides the adaptive threshold and returns a function
// that restores the previous value.
func SetThreshold(n int) (restore func()) {
	old := threshold
	threshold = n
	return func() { threshold = old }
}

// Container is satisfied by all four façade kinds.
type Container interface {
	IsWrapped() bool
	Len() int
}
