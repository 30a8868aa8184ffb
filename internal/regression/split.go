// Package regression fits linear tip models to a feature table and
// compares them by held-out mean absolute error.
package regression

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidInput is returned for malformed design matrices or options.
var ErrInvalidInput = errors.New("invalid regression input")

// Split holds a train/test partition of rows.
type Split struct {
	XTrain, XTest [][]float64
	YTrain, YTest []float64
}

// TrainTestSplit shuffles rows with a PCG source seeded by seed and holds
// out ceil(n*testRatio) of them for testing. Rows are shared, not copied.
func TrainTestSplit(X [][]float64, y []float64, testRatio float64, seed uint64) (Split, error) {
	n := len(X)
	if n != len(y) {
		return Split{}, fmt.Errorf("%w: %d rows but %d targets", ErrInvalidInput, n, len(y))
	}
	if !(testRatio > 0 && testRatio < 1) {
		return Split{}, fmt.Errorf("%w: test ratio %v not in (0, 1)", ErrInvalidInput, testRatio)
	}
	nTest := int(math.Ceil(float64(n) * testRatio))
	if nTest < 1 || nTest >= n {
		return Split{}, fmt.Errorf("%w: %d rows cannot be split with test ratio %v", ErrInvalidInput, n, testRatio)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)

	s := Split{
		XTest:  make([][]float64, 0, nTest),
		YTest:  make([]float64, 0, nTest),
		XTrain: make([][]float64, 0, n-nTest),
		YTrain: make([]float64, 0, n-nTest),
	}
	for i, idx := range perm {
		if i < nTest {
			s.XTest = append(s.XTest, X[idx])
			s.YTest = append(s.YTest, y[idx])
		} else {
			s.XTrain = append(s.XTrain, X[idx])
			s.YTrain = append(s.YTrain, y[idx])
		}
	}
	return s, nil
}
