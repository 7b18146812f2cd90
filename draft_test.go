package persist_test

import (
	"errors"
	"testing"

	"github.com/cowtrie/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformVecModifies(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		d.Push(4)
		if err := d.Set(0, -1); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{-1, 2, 3, 4}, out.Unwrap())
	assert.Equal(t, []int{1, 2, 3}, base.Unwrap(), "base must be untouched")
}

func TestTransformVecNoopReturnsIdenticalValue(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		_, _ = d.Get(0)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, base, out, "no-op transform should return the same value")
}

func TestTransformVecErrorLeavesBaseUntouched(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		d.Push(99)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, base, out)
}

func TestTransformVecSplice(t *testing.T) {
	t.Parallel()
	defer persist.SetThreshold(4)()

	base := persist.WrapVec([]int{0, 1, 2, 3, 4, 5})
	out, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		d.Splice(1, 2, 9, 9)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 9, 9, 3, 4, 5}, out.Unwrap())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, base.Unwrap(), "base must be untouched")
}

func TestTransformVecSetLen(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})

	grown, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		return d.SetLen(5)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 0, 0}, grown.Unwrap())

	shrunk, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		return d.SetLen(1)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, shrunk.Unwrap())

	_, err = persist.Transform(base, func(d *persist.Draft[int]) error {
		return d.SetLen(-1)
	})
	assert.ErrorIs(t, err, persist.ErrInvalidLength)
}

func TestTransformVecWrappedSetUsesUnderlyingTree(t *testing.T) {
	t.Parallel()
	defer persist.SetThreshold(8)()

	xs := make([]int, 2000)
	for i := range xs {
		xs[i] = i
	}
	base := persist.WrapVec(xs)
	require.True(t, base.IsWrapped())

	out, err := persist.Transform(base, func(d *persist.Draft[int]) error {
		return d.Set(0, -1)
	})
	require.NoError(t, err)
	require.True(t, out.IsWrapped(), "a single Set on a large wrapped Vec should stay wrapped, not collapse to native")

	v0, _ := out.At(0)
	assert.Equal(t, -1, v0)
	for i := 1; i < len(xs); i++ {
		vi, _ := out.At(i)
		assert.Equal(t, xs[i], vi, "every untouched index must retain its original value")
	}
	v0base, _ := base.At(0)
	assert.Equal(t, 0, v0base, "base must be untouched")
}

func TestTransformMapAndSet(t *testing.T) {
	t.Parallel()

	baseMap := persist.WrapMap(map[string]int{"a": 1})
	outMap, err := persist.TransformMap(baseMap, func(d *persist.MapDraft[string, int]) error {
		d.Set("b", 2)
		d.Delete("a")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, outMap.Has("a"))
	assert.True(t, outMap.Has("b"))
	assert.True(t, baseMap.Has("a"), "base map must be untouched")

	baseSet := persist.WrapSet([]int{1, 2})
	outSet, err := persist.TransformSet(baseSet, func(d *persist.SetDraft[int]) error {
		d.Add(3)
		d.Remove(1)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, outSet.Has(3))
	assert.False(t, outSet.Has(1))
	assert.True(t, baseSet.Has(1), "base set must be untouched")
}

func TestTransformMapWrappedStaysWrapped(t *testing.T) {
	t.Parallel()
	defer persist.SetThreshold(8)()

	src := make(map[string]int, 200)
	for i := 0; i < 200; i++ {
		src[string(rune('a'+i%26))+string(rune(i))] = i
	}
	base := persist.WrapMap(src)
	require.True(t, base.IsWrapped())

	out, err := persist.TransformMap(base, func(d *persist.MapDraft[string, int]) error {
		d.Set("new-key", -1)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, out.IsWrapped(), "a single Set on a large wrapped Map should stay wrapped")
	v, ok := out.Get("new-key")
	require.True(t, ok)
	assert.Equal(t, -1, v)
	assert.False(t, base.Has("new-key"), "base must be untouched")
}

func TestTransformMapOrderedPreservesOrder(t *testing.T) {
	t.Parallel()

	pairs := []persist.KV[string, int]{{Key: "z", Value: 1}, {Key: "a", Value: 2}}
	base := persist.WrapMapOrdered(pairs)

	out, err := persist.TransformMap(base, func(d *persist.MapDraft[string, int]) error {
		d.Set("m", 3)
		return nil
	})
	require.NoError(t, err)

	var keys []string
	for k := range out.All() {
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestTransformObjectNestedDraft(t *testing.T) {
	t.Parallel()

	inner := persist.WrapObject(map[string]any{"count": 1})
	base := persist.WrapObject(map[string]any{"inner": inner, "top": "x"})

	out, err := persist.TransformObject(base, func(d *persist.ObjectDraft) error {
		child, ok := d.DraftObject("inner")
		require.True(t, ok)
		child.Set("count", 2)
		return nil
	})
	require.NoError(t, err)

	gotInner, ok := out.Get("inner")
	require.True(t, ok)
	innerObj := gotInner.(persist.Object)
	v, _ := innerObj.Get("count")
	assert.Equal(t, 2, v)

	// base must be untouched, including the nested object
	baseInner, _ := base.Get("inner")
	baseInnerObj := baseInner.(persist.Object)
	origCount, _ := baseInnerObj.Get("count")
	assert.Equal(t, 1, origCount)
}

func TestTransformObjectSelfReferenceDoesNotHang(t *testing.T) {
	t.Parallel()

	// An Object value can legally hold itself (Go has no occurs-check);
	// DraftObject always allocates a fresh child rather than walking into
	// existing drafts, so this must finalize cleanly rather than loop.
	// Direct coverage of the reentrancy guard itself lives in
	// draft_internal_test.go, which can reach the unexported finalize.
	var base persist.Object
	base = base.With("x", 1)
	base = base.With("self", base)

	out, err := persist.TransformObject(base, func(d *persist.ObjectDraft) error {
		d.Set("x", 2)
		return nil
	})
	require.NoError(t, err)
	v, _ := out.Get("x")
	assert.Equal(t, 2, v)
}
