package persist

import "errors"

// Error kinds from SPEC_FULL.md §7. InvariantViolation is not exposed as
// an error value: it is a debug-only panic gated behind the persistdebug
// build tag (see assertions_debug.go / assertions_release.go), never
// surfaced to callers.
var (
	// ErrOutOfRange is returned by Vec.With, Draft.Set and RecordAndApply
	// for an invalid index.
	ErrOutOfRange = errors.New("persist: index out of range")

	// ErrInvalidLength is returned by Draft.SetLen for a negative length.
	ErrInvalidLength = errors.New("persist: invalid length")
)
