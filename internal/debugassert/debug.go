//go:build persistdebug

// Package debugassert gates InvariantViolation checks (spec.md §7) behind
// the persistdebug build tag, the way gaissmai-bart keeps bitset sanity
// checks out of its hot path: compiled in only with `-tags persistdebug`,
// a no-op otherwise (see release.go).
package debugassert

import "fmt"

// Check panics with a formatted message if cond is false.
func Check(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("persist: invariant violation: "+format, args...))
	}
}
