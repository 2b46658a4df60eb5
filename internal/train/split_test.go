package train

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSplitIsDeterministic(t *testing.T) {
	t.Parallel()

	train1, test1 := Split(100, 0.2, 42)
	train2, test2 := Split(100, 0.2, 42)

	require.Equal(t, train1, train2)
	require.Equal(t, test1, test2)
	require.Len(t, test1, 20)
	require.Len(t, train1, 80)
}

func TestSplitSeedChangesPartition(t *testing.T) {
	t.Parallel()

	_, testA := Split(100, 0.2, 42)
	_, testB := Split(100, 0.2, 7)
	require.NotEqual(t, testA, testB)
}

func TestSplitCoversAllIndicesOnce(t *testing.T) {
	t.Parallel()

	trainIdx, testIdx := Split(10, 0.3, 1)
	seen := make(map[int]bool)
	for _, i := range append(append([]int{}, trainIdx...), testIdx...) {
		require.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}
	require.Len(t, seen, 10)
}

func TestSplitTinyDatasetLeavesTestEmpty(t *testing.T) {
	t.Parallel()

	trainIdx, testIdx := Split(1, 0.2, 42)
	require.Len(t, trainIdx, 1)
	require.Empty(t, testIdx)

	trainIdx, testIdx = Split(4, 0.2, 42)
	require.Len(t, trainIdx, 4)
	require.Empty(t, testIdx)
}

func TestSubset(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	target := []float64{10, 20, 30}

	sub, y := subset(m, target, []int{0, 2})
	require.Equal(t, []float64{10, 30}, y)
	require.Equal(t, []float64{1, 2}, mat.Row(nil, 0, sub))
	require.Equal(t, []float64{5, 6}, mat.Row(nil, 1, sub))

	sub, y = subset(m, target, nil)
	require.Nil(t, sub)
	require.Nil(t, y)
}
