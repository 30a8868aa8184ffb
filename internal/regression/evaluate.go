package regression

import (
	"fmt"

	"github.com/nvandessel/tipgen/internal/dataset"
)

// Predictors are the numeric features models are fitted on.
var Predictors = []string{
	dataset.ColDistanceMiles,
	dataset.ColOrderSubtotal,
	dataset.ColWaitTimeMinutes,
	dataset.ColCommunicationRating,
	dataset.ColItemCount,
	dataset.ColMessagesSent,
}

// Target is the column models predict.
const Target = dataset.ColTipPercent

// Options controls Evaluate.
type Options struct {
	TestRatio  float64   `json:"test_ratio"`
	Seed       uint64    `json:"seed"`
	Degree     int       `json:"degree"` // 1 or 2
	RidgeAlpha float64   `json:"ridge_alpha"`
	LassoAlpha float64   `json:"lasso_alpha"`
	Sweep      []float64 `json:"sweep,omitempty"` // alphas tried for both ridge and lasso
}

// DefaultOptions holds out 20% of rows with seed 42 and fits linear,
// ridge(1.0) and lasso(0.1) on the raw predictors.
func DefaultOptions() Options {
	return Options{
		TestRatio:  0.2,
		Seed:       42,
		Degree:     1,
		RidgeAlpha: 1.0,
		LassoAlpha: 0.1,
	}
}

// ModelResult is one fitted model's held-out performance.
type ModelResult struct {
	Model        string             `json:"model"`
	Alpha        float64            `json:"alpha,omitempty"`
	MAE          float64            `json:"mae"`
	RMSE         float64            `json:"rmse"`
	R2           float64            `json:"r2"`
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// SweepResult is the held-out MAE of one model at one alpha.
type SweepResult struct {
	Model string  `json:"model"`
	Alpha float64 `json:"alpha"`
	MAE   float64 `json:"mae"`
}

// Report is the outcome of Evaluate.
type Report struct {
	TrainRows int           `json:"train_rows"`
	TestRows  int           `json:"test_rows"`
	Features  []string      `json:"features"`
	Results   []ModelResult `json:"results"`
	Best      string        `json:"best"`
	BestMAE   float64       `json:"best_mae"`
	Sweep     []SweepResult `json:"sweep,omitempty"`
}

type coefModel interface {
	Model
	Coef() []float64
	Intercept() float64
}

// Evaluate splits t, standardizes predictors on the training rows, fits
// linear, ridge and lasso models, and scores them on the held-out rows.
// Best is the model with the lowest MAE; earlier models win ties.
func Evaluate(t *dataset.Table, opts Options) (*Report, error) {
	if opts.Degree != 1 && opts.Degree != 2 {
		return nil, fmt.Errorf("%w: unsupported degree %d", ErrInvalidInput, opts.Degree)
	}

	X, y, err := design(t)
	if err != nil {
		return nil, err
	}
	features := Predictors
	if opts.Degree == 2 {
		X = PolynomialFeatures(X)
		features = PolynomialNames(Predictors)
	}

	split, err := TrainTestSplit(X, y, opts.TestRatio, opts.Seed)
	if err != nil {
		return nil, err
	}
	var scaler StandardScaler
	xTrain, err := scaler.FitTransform(split.XTrain)
	if err != nil {
		return nil, err
	}
	xTest, err := scaler.Transform(split.XTest)
	if err != nil {
		return nil, err
	}

	report := &Report{
		TrainRows: len(xTrain),
		TestRows:  len(xTest),
		Features:  features,
	}

	models := []coefModel{NewLinear(), NewRidge(opts.RidgeAlpha), NewLasso(opts.LassoAlpha)}
	for i, m := range models {
		res, err := score(m, xTrain, split.YTrain, xTest, split.YTest)
		if err != nil {
			return nil, fmt.Errorf("fitting %s: %w", m.Name(), err)
		}
		res.Alpha = alphaOf(m)
		res.Intercept = m.Intercept()
		res.Coefficients = make(map[string]float64, len(features))
		for j, c := range m.Coef() {
			res.Coefficients[features[j]] = c
		}
		report.Results = append(report.Results, res)

		if i == 0 || res.MAE < report.BestMAE {
			report.Best = res.Model
			report.BestMAE = res.MAE
		}
	}

	for _, alpha := range opts.Sweep {
		for _, m := range []coefModel{NewRidge(alpha), NewLasso(alpha)} {
			res, err := score(m, xTrain, split.YTrain, xTest, split.YTest)
			if err != nil {
				return nil, fmt.Errorf("sweeping %s alpha %v: %w", m.Name(), alpha, err)
			}
			report.Sweep = append(report.Sweep, SweepResult{Model: m.Name(), Alpha: alpha, MAE: res.MAE})
		}
	}
	return report, nil
}

func score(m Model, xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) (ModelResult, error) {
	if err := m.Fit(xTrain, yTrain); err != nil {
		return ModelResult{}, err
	}
	pred, err := m.Predict(xTest)
	if err != nil {
		return ModelResult{}, err
	}
	return ModelResult{
		Model: m.Name(),
		MAE:   MAE(yTest, pred),
		RMSE:  RMSE(yTest, pred),
		R2:    R2(yTest, pred),
	}, nil
}

func alphaOf(m Model) float64 {
	switch v := m.(type) {
	case *Ridge:
		return v.Alpha
	case *Lasso:
		return v.Alpha
	}
	return 0
}

// design extracts the predictor matrix and target vector from t.
func design(t *dataset.Table) ([][]float64, []float64, error) {
	cols := make([][]float64, len(Predictors))
	for j, name := range Predictors {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, nil, err
		}
		cols[j] = vals
	}
	y, err := t.Floats(Target)
	if err != nil {
		return nil, nil, err
	}

	X := make([][]float64, t.Len())
	for i := range X {
		row := make([]float64, len(Predictors))
		for j := range Predictors {
			row[j] = cols[j][i]
		}
		X[i] = row
	}
	return X, y, nil
}
