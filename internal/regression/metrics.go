package regression

import "math"

// MAE is the mean absolute error. It returns NaN for empty input.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	var s float64
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / float64(len(yTrue))
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	var s float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(yTrue)))
}

// R2 is the coefficient of determination. It is 0 when yTrue is constant.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return math.NaN()
	}
	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssTot, ssRes float64
	for i := range yTrue {
		d := yTrue[i] - mean
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}
