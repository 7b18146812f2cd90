package persist_test

import (
	"testing"

	"github.com/cowtrie/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndApplyVec(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.RecordAndApply(base, func(r *persist.VecRecorder[int]) {
		r.Push(4, 5)
		r.Set(0, -1)
		r.Delete(4)
	})
	require.NoError(t, err)
	// push 4,5 -> [1,2,3,4,5]; set 0 -> [-1,2,3,4,5]; delete index 4 -> [-1,2,3,4]
	assert.Equal(t, []int{-1, 2, 3, 4}, out.Unwrap())
	assert.Equal(t, []int{1, 2, 3}, base.Unwrap(), "base must be untouched")
}

func TestRecordAndApplyVecNoOpsReturnsBase(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.RecordAndApply(base, func(r *persist.VecRecorder[int]) {})
	require.NoError(t, err)
	assert.Equal(t, base, out)
}

func TestRecordAndApplyVecSplice(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{0, 1, 2, 3, 4})
	out, err := persist.RecordAndApply(base, func(r *persist.VecRecorder[int]) {
		r.Splice(1, 2, 9, 9, 9)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 9, 9, 9, 3, 4}, out.Unwrap())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, base.Unwrap(), "base must be untouched")
}

func TestRecordAndApplyVecFilter(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3, 4, 5, 6})
	out, err := persist.RecordAndApply(base, func(r *persist.VecRecorder[int]) {
		r.Filter(func(x int) bool { return x%2 == 0 })
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out.Unwrap())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, base.Unwrap(), "base must be untouched")
}

func TestRecordAndApplyVecDeleteOutOfRange(t *testing.T) {
	t.Parallel()

	base := persist.WrapVec([]int{1, 2, 3})
	out, err := persist.RecordAndApply(base, func(r *persist.VecRecorder[int]) {
		r.Delete(9001)
	})
	assert.ErrorIs(t, err, persist.ErrOutOfRange)
	assert.Equal(t, base, out)
}

func TestRecordAndApplyMap(t *testing.T) {
	t.Parallel()

	base := persist.WrapMap(map[string]int{"a": 1})
	out, err := persist.RecordAndApplyMap(base, func(r *persist.MapRecorder[string, int]) {
		r.Set("b", 2)
		r.Delete("a")
	})
	require.NoError(t, err)
	assert.False(t, out.Has("a"))
	assert.True(t, out.Has("b"))
	assert.True(t, base.Has("a"), "base must be untouched")
}

func TestRecordAndApplySet(t *testing.T) {
	t.Parallel()

	base := persist.WrapSet([]int{1, 2})
	out, err := persist.RecordAndApplySet(base, func(r *persist.SetRecorder[int]) {
		r.Add(3)
		r.Remove(1)
	})
	require.NoError(t, err)
	assert.True(t, out.Has(3))
	assert.False(t, out.Has(1))
	assert.True(t, base.Has(1), "base must be untouched")
}

func TestRecordAndApplyObjectShallow(t *testing.T) {
	t.Parallel()

	base := persist.WrapObject(map[string]any{"a": 1})
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Set([]string{"b"}, 2)
		r.Delete([]string{"a"})
	})
	require.NoError(t, err)
	assert.False(t, out.Has("a"))
	v, ok := out.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.True(t, base.Has("a"), "base must be untouched")
}

func TestRecordAndApplyObjectNestedPath(t *testing.T) {
	t.Parallel()

	inner := persist.WrapObject(map[string]any{"count": 1})
	base := persist.WrapObject(map[string]any{"inner": inner})

	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Set([]string{"inner", "count"}, 2)
		r.Set([]string{"inner", "label"}, "hi")
	})
	require.NoError(t, err)

	gotInner, ok := out.Get("inner")
	require.True(t, ok)
	innerObj := gotInner.(persist.Object)
	count, _ := innerObj.Get("count")
	label, _ := innerObj.Get("label")
	assert.Equal(t, 2, count)
	assert.Equal(t, "hi", label)

	// base's nested object must be untouched
	baseInner, _ := base.Get("inner")
	baseInnerObj := baseInner.(persist.Object)
	origCount, _ := baseInnerObj.Get("count")
	assert.Equal(t, 1, origCount)
}

func TestRecordAndApplyObjectCreatesIntermediatePath(t *testing.T) {
	t.Parallel()

	var base persist.Object
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Set([]string{"a", "b", "c"}, 42)
	})
	require.NoError(t, err)

	a, ok := out.Get("a")
	require.True(t, ok)
	b, ok := a.(persist.Object).Get("b")
	require.True(t, ok)
	c, ok := b.(persist.Object).Get("c")
	require.True(t, ok)
	assert.Equal(t, 42, c)
}

func TestRecordAndApplyObjectSetInLeavesDisjointPathsUntouched(t *testing.T) {
	t.Parallel()

	inner := persist.WrapObject(map[string]any{"count": 1, "label": "orig"})
	base := persist.WrapObject(map[string]any{"inner": inner, "other": 7})

	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Set([]string{"inner", "count"}, 99)
	})
	require.NoError(t, err)

	gotInner, ok := out.Get("inner")
	require.True(t, ok)
	innerObj := gotInner.(persist.Object)
	count, _ := innerObj.Get("count")
	assert.Equal(t, 99, count, "the set path must take effect")

	label, _ := innerObj.Get("label")
	assert.Equal(t, "orig", label, "a disjoint key under the same parent must be unaffected")

	other, _ := out.Get("other")
	assert.Equal(t, 7, other, "a disjoint top-level key must be unaffected")
}

func TestRecordAndApplyObjectUpdate(t *testing.T) {
	t.Parallel()

	base := persist.WrapObject(map[string]any{"count": 1})
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Update([]string{"count"}, func(cur any) any { return cur.(int) + 1 })
	})
	require.NoError(t, err)
	count, ok := out.Get("count")
	require.True(t, ok)
	assert.Equal(t, 2, count)
	origCount, _ := base.Get("count")
	assert.Equal(t, 1, origCount, "base must be untouched")
}

func TestRecordAndApplyObjectUpdateAbsentPathSeesNil(t *testing.T) {
	t.Parallel()

	var base persist.Object
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Update([]string{"missing"}, func(cur any) any {
			assert.Nil(t, cur)
			return "created"
		})
	})
	require.NoError(t, err)
	v, ok := out.Get("missing")
	require.True(t, ok)
	assert.Equal(t, "created", v)
}

func TestRecordAndApplyObjectMerge(t *testing.T) {
	t.Parallel()

	inner := persist.WrapObject(map[string]any{"a": 1, "b": 2})
	base := persist.WrapObject(map[string]any{"inner": inner})

	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Merge([]string{"inner"}, map[string]any{"b": 20, "c": 3})
	})
	require.NoError(t, err)

	gotInner, ok := out.Get("inner")
	require.True(t, ok)
	innerObj := gotInner.(persist.Object)
	a, _ := innerObj.Get("a")
	b, _ := innerObj.Get("b")
	c, _ := innerObj.Get("c")
	assert.Equal(t, 1, a, "merge must not disturb keys absent from partial")
	assert.Equal(t, 20, b)
	assert.Equal(t, 3, c)

	baseInner, _ := base.Get("inner")
	baseB, _ := baseInner.(persist.Object).Get("b")
	assert.Equal(t, 2, baseB, "base must be untouched")
}

func TestRecordAndApplyObjectMergeCreatesMissingPath(t *testing.T) {
	t.Parallel()

	var base persist.Object
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Merge([]string{"settings"}, map[string]any{"theme": "dark"})
	})
	require.NoError(t, err)
	settings, ok := out.Get("settings")
	require.True(t, ok)
	theme, _ := settings.(persist.Object).Get("theme")
	assert.Equal(t, "dark", theme)
}

func TestRecordAndApplyObjectEmptyPathErrors(t *testing.T) {
	t.Parallel()

	base := persist.WrapObject(map[string]any{"a": 1})
	out, err := persist.RecordAndApplyObject(base, func(r *persist.ObjectRecorder) {
		r.Set(nil, 1)
	})
	assert.ErrorIs(t, err, persist.ErrEmptyPath)
	assert.Equal(t, base, out)
}
