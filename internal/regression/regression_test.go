package regression

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/tipgen/internal/config"
	"github.com/nvandessel/tipgen/internal/dataset"
)

// exactData returns y = 1 + 2a - 3b with no noise.
func exactData(n int) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range n {
		a := float64(i)
		b := float64((i * i) % 7)
		X[i] = []float64{a, b}
		y[i] = 1 + 2*a - 3*b
	}
	return X, y
}

func generated(t *testing.T, rows int) *dataset.Table {
	t.Helper()
	res, err := dataset.Generate(config.DefaultGenerator(), dataset.WithRows(rows), dataset.WithSeed(99))
	require.NoError(t, err)
	return res.Table
}

func TestTrainTestSplit(t *testing.T) {
	X := make([][]float64, 10)
	y := make([]float64, 10)
	for i := range X {
		X[i] = []float64{float64(i)}
		y[i] = float64(i)
	}

	s, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	assert.Len(t, s.XTest, 2)
	assert.Len(t, s.YTest, 2)
	assert.Len(t, s.XTrain, 8)
	assert.Len(t, s.YTrain, 8)

	all := append(slices.Clone(s.YTrain), s.YTest...)
	slices.Sort(all)
	assert.Equal(t, y, all, "split should partition every row exactly once")

	for i, row := range s.XTrain {
		assert.Equal(t, row[0], s.YTrain[i], "features and targets must stay aligned")
	}

	again, err := TrainTestSplit(X, y, 0.2, 42)
	require.NoError(t, err)
	assert.Equal(t, s.YTest, again.YTest, "same seed should give the same split")
}

func TestTrainTestSplit_RoundsUp(t *testing.T) {
	X := make([][]float64, 11)
	y := make([]float64, 11)
	for i := range X {
		X[i] = []float64{0}
	}
	s, err := TrainTestSplit(X, y, 0.2, 1)
	require.NoError(t, err)
	assert.Len(t, s.YTest, 3)
}

func TestTrainTestSplit_Errors(t *testing.T) {
	X, y := exactData(10)

	_, err := TrainTestSplit(X, y[:5], 0.2, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = TrainTestSplit(X, y, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = TrainTestSplit(X, y, 1, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = TrainTestSplit(X[:1], y[:1], 0.2, 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStandardScaler(t *testing.T) {
	X := [][]float64{{1, 5}, {2, 5}, {3, 5}, {4, 5}}

	var s StandardScaler
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Std[0], 1e-12)
	assert.Equal(t, 1.0, s.Std[1], "constant column should not be scaled")

	var sum, sq float64
	for _, row := range out {
		sum += row[0]
		sq += row[0] * row[0]
		assert.Equal(t, 0.0, row[1])
	}
	assert.InDelta(t, 0, sum/4, 1e-12)
	assert.InDelta(t, 1, sq/4, 1e-12)

	assert.Equal(t, 1.0, X[0][0], "input should not be modified")
}

func TestStandardScaler_Errors(t *testing.T) {
	var s StandardScaler
	_, err := s.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, ErrInvalidInput, "unfitted")

	assert.ErrorIs(t, s.Fit(nil), ErrInvalidInput)
	assert.ErrorIs(t, s.Fit([][]float64{{1, 2}, {3}}), ErrInvalidInput)

	require.NoError(t, s.Fit([][]float64{{1, 2}}))
	_, err = s.Transform([][]float64{{1, 2, 3}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLinear_RecoversCoefficients(t *testing.T) {
	X, y := exactData(30)
	m := NewLinear()
	require.NoError(t, m.Fit(X, y))

	coef := m.Coef()
	assert.InDelta(t, 2, coef[0], 1e-9)
	assert.InDelta(t, -3, coef[1], 1e-9)
	assert.InDelta(t, 1, m.Intercept(), 1e-9)

	pred, err := m.Predict(X)
	require.NoError(t, err)
	assert.InDelta(t, 0, MAE(y, pred), 1e-9)
}

func TestLinear_CollinearMinimumNorm(t *testing.T) {
	X := [][]float64{{1, 2}, {2, 4}, {3, 6}, {4, 8}}
	y := []float64{1, 2, 3, 4}
	m := NewLinear()
	require.NoError(t, m.Fit(X, y))

	// Any w with w0 + 2*w1 = 1 fits exactly; the shortest is (1, 2)/5.
	assert.InDelta(t, 0.2, m.Coef()[0], 1e-9)
	assert.InDelta(t, 0.4, m.Coef()[1], 1e-9)
	assert.InDelta(t, 0, m.Intercept(), 1e-9)
}

func TestLinear_ConstantColumn(t *testing.T) {
	X := [][]float64{{1, 7}, {2, 7}, {3, 7}, {4, 7}, {5, 7}}
	y := []float64{3, 5, 7, 9, 11}
	for _, m := range []coefModel{NewLinear(), NewRidge(0)} {
		require.NoError(t, m.Fit(X, y), m.Name())
		assert.InDelta(t, 2, m.Coef()[0], 1e-9, m.Name())
		assert.InDelta(t, 0, m.Coef()[1], 1e-9, m.Name())
		assert.InDelta(t, 1, m.Intercept(), 1e-9, m.Name())
	}
}

func TestLinear_AllConstantColumns(t *testing.T) {
	X := [][]float64{{2}, {2}, {2}}
	y := []float64{1, 2, 6}
	m := NewLinear()
	require.NoError(t, m.Fit(X, y))
	assert.Equal(t, []float64{0}, m.Coef())
	assert.InDelta(t, 3, m.Intercept(), 1e-12)
}

func TestPredict_Unfitted(t *testing.T) {
	_, err := NewRidge(1).Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRidge(t *testing.T) {
	X, y := exactData(30)

	zero := NewRidge(0)
	require.NoError(t, zero.Fit(X, y))
	assert.InDelta(t, 2, zero.Coef()[0], 1e-8)
	assert.InDelta(t, -3, zero.Coef()[1], 1e-8)

	var prev float64 = math.Inf(1)
	for _, alpha := range []float64{0.1, 10, 1000} {
		m := NewRidge(alpha)
		require.NoError(t, m.Fit(X, y))
		norm := math.Hypot(m.Coef()[0], m.Coef()[1])
		assert.Less(t, norm, prev, "alpha %v should shrink coefficients", alpha)
		prev = norm
	}

	assert.ErrorIs(t, NewRidge(-1).Fit(X, y), ErrInvalidInput)
}

func TestLasso(t *testing.T) {
	X, y := exactData(30)

	zero := NewLasso(0)
	require.NoError(t, zero.Fit(X, y))
	assert.InDelta(t, 2, zero.Coef()[0], 1e-3)
	assert.InDelta(t, -3, zero.Coef()[1], 1e-3)

	huge := NewLasso(1e6)
	require.NoError(t, huge.Fit(X, y))
	assert.Equal(t, []float64{0, 0}, huge.Coef())
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	assert.InDelta(t, mean/30, huge.Intercept(), 1e-9)
	assert.Equal(t, 1, huge.Iterations())

	assert.ErrorIs(t, NewLasso(-0.1).Fit(X, y), ErrInvalidInput)
}

func TestLasso_DropsIrrelevantFeature(t *testing.T) {
	n := 200
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range n {
		a := float64(i%20) - 9.5
		noise := float64((i*7)%11) - 5
		X[i] = []float64{a, noise}
		y[i] = 3 * a
	}
	var s StandardScaler
	xs, err := s.FitTransform(X)
	require.NoError(t, err)

	m := NewLasso(0.5)
	require.NoError(t, m.Fit(xs, y))
	assert.Greater(t, m.Coef()[0], 0.0)
	assert.Equal(t, 0.0, m.Coef()[1])
}

func TestSoftThreshold(t *testing.T) {
	assert.Equal(t, 1.0, softThreshold(3, 2))
	assert.Equal(t, -1.0, softThreshold(-3, 2))
	assert.Equal(t, 0.0, softThreshold(1.5, 2))
}

func TestPolynomialFeatures(t *testing.T) {
	out := PolynomialFeatures([][]float64{{2, 3}})
	assert.Equal(t, [][]float64{{2, 3, 4, 6, 9}}, out)

	names := PolynomialNames([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b", "a^2", "a*b", "b^2"}, names)
	assert.Len(t, PolynomialNames(Predictors), 27)
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{2, 2, 3, 2}

	assert.InDelta(t, 0.75, MAE(yTrue, yPred), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/4.0), RMSE(yTrue, yPred), 1e-12)
	assert.InDelta(t, 0, R2(yTrue, []float64{2.5, 2.5, 2.5, 2.5}), 1e-12)
	assert.Equal(t, 1.0, R2(yTrue, yTrue))
	assert.Equal(t, 0.0, R2([]float64{5, 5}, []float64{1, 2}))
	assert.True(t, math.IsNaN(MAE(nil, nil)))
}

func TestEvaluate(t *testing.T) {
	opts := DefaultOptions()
	opts.Sweep = []float64{0.01, 1}

	report, err := Evaluate(generated(t, 2000), opts)
	require.NoError(t, err)

	assert.Equal(t, 1600, report.TrainRows)
	assert.Equal(t, 400, report.TestRows)
	assert.Equal(t, Predictors, report.Features)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "linear", report.Results[0].Model)
	assert.Equal(t, "ridge", report.Results[1].Model)
	assert.Equal(t, 1.0, report.Results[1].Alpha)
	assert.Equal(t, "lasso", report.Results[2].Model)
	assert.Equal(t, 0.1, report.Results[2].Alpha)

	best := report.Results[0]
	for _, r := range report.Results[1:] {
		if r.MAE < best.MAE {
			best = r
		}
	}
	assert.Equal(t, best.Model, report.Best)
	assert.Equal(t, best.MAE, report.BestMAE)

	// Noise std is 3, so a fitted model lands near the noise floor.
	assert.Less(t, report.BestMAE, 4.0)
	assert.Greater(t, report.BestMAE, 1.0)

	linear := report.Results[0]
	assert.Greater(t, linear.Coefficients[dataset.ColCommunicationRating], 0.0)
	assert.Less(t, linear.Coefficients[dataset.ColWaitTimeMinutes], 0.0)
	assert.Greater(t, linear.Coefficients[dataset.ColDistanceMiles], 0.0)

	assert.Len(t, report.Sweep, 4)
}

func TestEvaluate_Polynomial(t *testing.T) {
	opts := DefaultOptions()
	opts.Degree = 2

	report, err := Evaluate(generated(t, 1000), opts)
	require.NoError(t, err)
	assert.Len(t, report.Features, 27)
	assert.Len(t, report.Results[0].Coefficients, 27)
}

func TestEvaluate_ConstantPredictors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.GeneratorConfig)
	}{
		{"no messages sent", func(g *config.GeneratorConfig) { g.MessagesSent.Rate = 0 }},
		{"single rating", func(g *config.GeneratorConfig) { g.Rating = config.IntRange{Min: 3, Max: 3} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultGenerator()
			tt.modify(&cfg)
			res, err := dataset.Generate(cfg, dataset.WithRows(500), dataset.WithSeed(7))
			require.NoError(t, err)

			opts := DefaultOptions()
			opts.Sweep = []float64{0}
			report, err := Evaluate(res.Table, opts)
			require.NoError(t, err)
			require.Len(t, report.Results, 3)
			for _, r := range report.Results {
				assert.False(t, math.IsNaN(r.MAE), "%s MAE is NaN", r.Model)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	opts := DefaultOptions()
	opts.Degree = 3
	_, err := Evaluate(generated(t, 100), opts)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Evaluate(generated(t, 1), DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidInput)
}
