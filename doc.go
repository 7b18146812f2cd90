// Package persist implements a library of persistent (immutable-by-default)
// collections with structural sharing: an ordered sequence (Vec), a keyed
// record (Object), a keyed map (Map), and a unique set (Set). Each is a
// façade that behaves like its native Go counterpart but swaps between a
// native representation and a persistent trie-backed one based on size
// (see adaptive.go).
//
// Updates go through one of two protocols: Transform records writes
// against a short-lived draft and applies them with structural sharing on
// completion; RecordAndApply queues typed mutations and replays them in
// one batch. Object replay applies each queued operation on its own,
// walking its path from the root; there is no separate fast path for
// small, shallow Object changes.
package persist
