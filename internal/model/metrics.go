package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// MAE is the mean absolute error of predictions against actuals.
func MAE(predicted, actual []float64) float64 {
	if len(predicted) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for i := range predicted {
		sum += math.Abs(predicted[i] - actual[i])
	}
	return sum / float64(len(predicted))
}

// R2 is the coefficient of determination of predictions against actuals.
func R2(predicted, actual []float64) float64 {
	return stat.RSquaredFrom(predicted, actual, nil)
}

// TrainTestSplit shuffles [0, n) with a deterministic seed and splits off
// testSize as the test fraction. The same n, testSize and seed always
// yield the same partition.
func TrainTestSplit(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Round(float64(n) * testSize))
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return perm[nTest:], perm[:nTest]
}
