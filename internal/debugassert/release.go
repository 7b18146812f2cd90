//go:build !persistdebug

package debugassert

// Check is a no-op outside persistdebug builds.
func Check(cond bool, format string, args ...any) {}
