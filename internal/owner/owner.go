// Package owner implements the owner-token mechanism that authorizes
// in-place mutation of otherwise-immutable trie nodes.
//
// A token is an opaque heap identity. A node may be mutated in place iff
// its recorded owner equals the current token; nodes from older values
// carry no owner (or a stale one) and are never mutated.
package owner

// Token is a unique, comparable owner identity, minted once per draft or
// batch. Only pointer identity is used; the pointed-to value is never
// read. Token must carry a field: two distinct zero-size allocations can
// share an address in Go, same as rogpeppe/generic/ctrie's generation
// struct.
type Token struct{ _ byte }

// New mints a fresh owner token.
func New() *Token { return new(Token) }

// Is reports whether candidate is the same token as t. A nil owner never
// matches, including against another nil.
func (t *Token) Is(candidate *Token) bool {
	return t != nil && t == candidate
}
