package persist_test

import (
	"testing"

	"github.com/cowtrie/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapZeroValue(t *testing.T) {
	t.Parallel()

	var m persist.Map[string, int]
	assert.Zero(t, m.Len())
	_, ok := m.Get("missing")
	assert.False(t, ok)
}

func TestMapNativeRoundtrip(t *testing.T) {
	t.Parallel()

	src := map[string]int{"a": 1, "b": 2}
	m := persist.WrapMap(src)
	require.False(t, m.IsWrapped())
	assert.Equal(t, src, m.Unwrap())
}

func TestMapWrappedRoundtrip(t *testing.T) {
	t.Parallel()
	defer persist.SetThreshold(4)()

	src := map[string]int{}
	for i := 0; i < 50; i++ {
		src[string(rune('a'+i%26))+string(rune(i))] = i
	}
	m := persist.WrapMap(src)
	require.True(t, m.IsWrapped())
	assert.Equal(t, src, m.Unwrap())
}

func TestMapWithAndWithout(t *testing.T) {
	t.Parallel()
	defer persist.SetThreshold(2)()

	var m persist.Map[string, int]
	m = m.With("a", 1)
	m2 := m.With("b", 2)

	assert.False(t, m.Has("b"), "original must be unchanged")
	assert.True(t, m2.Has("a"))
	assert.True(t, m2.Has("b"))

	m3 := m2.Without("a")
	assert.False(t, m3.Has("a"))
	assert.True(t, m3.Has("b"))
}

func TestMapOrderedPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	pairs := []persist.KV[string, int]{
		{Key: "z", Value: 1},
		{Key: "a", Value: 2},
		{Key: "m", Value: 3},
	}
	m := persist.WrapMapOrdered(pairs)
	require.True(t, m.IsWrapped())

	var keys []string
	for k := range m.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)

	m = m.With("a", 20)
	keys = keys[:0]
	for k := range m.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys, "updating a value must not move its slot")
}

func TestSetOrderedDeleteThenReinsertAppendsAtEnd(t *testing.T) {
	t.Parallel()

	// spec.md §8 seed scenario: insert ["c","a","b"], delete "a", iterate
	// yields ["c","b"], re-insert "a", iterate yields ["c","b","a"] — a
	// deleted key's slot is a hole, not reused, so reinsertion lands at
	// the end of iteration order rather than its old position.
	s := persist.WrapSetOrdered([]string{"c", "a", "b"})
	s = s.Without("a")

	var got []string
	for x := range s.All() {
		got = append(got, x)
	}
	assert.Equal(t, []string{"c", "b"}, got)

	s = s.With("a")
	got = got[:0]
	for x := range s.All() {
		got = append(got, x)
	}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestSetDedup(t *testing.T) {
	t.Parallel()

	s := persist.WrapSet([]int{1, 2, 2, 3, 1})
	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has(2))
	assert.False(t, s.Has(4))
}

func TestSetWithAndWithout(t *testing.T) {
	t.Parallel()

	var s persist.Set[int]
	s = s.With(1)
	s2 := s.With(2)

	assert.False(t, s.Has(2), "original must be unchanged")
	assert.True(t, s2.Has(1))
	assert.True(t, s2.Has(2))

	s3 := s2.Without(1)
	assert.False(t, s3.Has(1))
	assert.True(t, s3.Has(2))
}

func TestSetOrderedPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := persist.WrapSetOrdered([]string{"z", "a", "m", "a"})
	var got []string
	for x := range s.All() {
		got = append(got, x)
	}
	assert.Equal(t, []string{"z", "a", "m"}, got)
}
