//go:build persistdebug

package persist

import "github.com/cowtrie/persist/internal/debugassert"

// invariantViolation panics with a formatted message when cond is false.
// Compiled in only under the persistdebug build tag (go build -tags
// persistdebug); never part of a default build, per spec.md §7 "not
// user-facing".
func invariantViolation(cond bool, format string, args ...any) {
	debugassert.Check(cond, format, args...)
}
