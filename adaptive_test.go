package persist_test

import (
	"testing"

	"github.com/cowtrie/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetThresholdRestores(t *testing.T) {
	t.Parallel()

	small := []int{1, 2, 3}
	restore := persist.SetThreshold(2)
	v := persist.WrapVec(small)
	assert.True(t, v.IsWrapped(), "threshold of 2 should wrap a 3-element slice")
	restore()

	v2 := persist.WrapVec(small)
	assert.False(t, v2.IsWrapped(), "restored threshold should leave a small slice native")
}

func TestContainerInterface(t *testing.T) {
	t.Parallel()

	var containers []persist.Container
	containers = append(containers,
		persist.WrapVec([]int{1}),
		persist.WrapMap(map[string]int{"a": 1}),
		persist.WrapSet([]int{1}),
		persist.WrapObject(map[string]any{"a": 1}),
	)

	for _, c := range containers {
		require.Equal(t, 1, c.Len())
		assert.False(t, c.IsWrapped())
	}
}
