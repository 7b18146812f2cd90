//go:build !persistdebug

package persist

// invariantViolation is a no-op outside persistdebug builds.
func invariantViolation(cond bool, format string, args ...any) {}
