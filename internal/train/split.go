// Package train fits the price model and scores it on a held-out split.
package train

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Split partitions row indices into train and test sets with a seeded
// shuffle, so the same rows, ratio and seed always give the same split. With
// very few rows the test set may come out empty; callers handle that.
func Split(n int, testSize float64, seed int64) (trainIdx, testIdx []int) {
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	testCount := int(float64(n) * testSize)
	testIdx = append(testIdx, perm[:testCount]...)
	trainIdx = append(trainIdx, perm[testCount:]...)
	sort.Ints(testIdx)
	sort.Ints(trainIdx)
	return trainIdx, testIdx
}

// subset picks the given rows out of a matrix/target pair.
func subset(features *mat.Dense, target []float64, idx []int) (*mat.Dense, []float64) {
	if len(idx) == 0 {
		return nil, nil
	}
	_, cols := features.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	y := make([]float64, len(idx))
	for i, row := range idx {
		out.SetRow(i, mat.Row(nil, row, features))
		y[i] = target[row]
	}
	return out, y
}
