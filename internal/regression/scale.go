package regression

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each column to zero mean and scales it to unit
// population variance. Constant columns are centered but not scaled.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// Fit learns per-column means and standard deviations from X.
func (s *StandardScaler) Fit(X [][]float64) error {
	cols, err := dims(X)
	if err != nil {
		return err
	}

	s.Mean = make([]float64, cols)
	s.Std = make([]float64, cols)
	col := make([]float64, len(X))
	for j := range cols {
		for i, row := range X {
			col[i] = row[j]
		}
		s.Mean[j], s.Std[j] = stat.PopMeanStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return nil
}

// Transform returns a scaled copy of X using the fitted statistics.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.Mean == nil {
		return nil, fmt.Errorf("%w: scaler is not fitted", ErrInvalidInput)
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("%w: row %d has %d columns, scaler has %d", ErrInvalidInput, i, len(row), len(s.Mean))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform fits on X and returns X scaled.
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// dims checks that X is non-empty and rectangular and returns its column count.
func dims(X [][]float64) (int, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return 0, fmt.Errorf("%w: empty design matrix", ErrInvalidInput)
	}
	cols := len(X[0])
	for i, row := range X {
		if len(row) != cols {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, i, len(row), cols)
		}
	}
	return cols, nil
}
