package regression

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrSingular is returned when the normal equations cannot be solved.
var ErrSingular = errors.New("design matrix is rank deficient")

// Model is a fitted-in-place linear predictor.
type Model interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// linear holds the coefficients shared by every model here.
type linear struct {
	coef      []float64
	intercept float64
}

// Coef returns a copy of the fitted coefficients.
func (l *linear) Coef() []float64 { return slices.Clone(l.coef) }

// Intercept returns the fitted intercept.
func (l *linear) Intercept() float64 { return l.intercept }

// Predict returns intercept + x·coef for every row.
func (l *linear) Predict(X [][]float64) ([]float64, error) {
	if l.coef == nil {
		return nil, fmt.Errorf("%w: model is not fitted", ErrInvalidInput)
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(l.coef) {
			return nil, fmt.Errorf("%w: row %d has %d columns, model has %d", ErrInvalidInput, i, len(row), len(l.coef))
		}
		out[i] = l.intercept + floats.Dot(row, l.coef)
	}
	return out, nil
}

// finish sets the intercept so the fit passes through the column means.
func (l *linear) finish(c *centered, coef []float64) {
	l.coef = coef
	l.intercept = c.yMean - floats.Dot(c.xMean, coef)
}

// centered is a design matrix and target with column means removed.
type centered struct {
	x     *mat.Dense
	y     *mat.VecDense
	xMean []float64
	yMean float64
}

func center(X [][]float64, y []float64) (*centered, error) {
	cols, err := dims(X)
	if err != nil {
		return nil, err
	}
	if len(y) != len(X) {
		return nil, fmt.Errorf("%w: %d rows but %d targets", ErrInvalidInput, len(X), len(y))
	}

	n := len(X)
	c := &centered{
		x:     mat.NewDense(n, cols, nil),
		xMean: make([]float64, cols),
		yMean: stat.Mean(y, nil),
	}
	col := make([]float64, n)
	for j := range cols {
		for i, row := range X {
			col[i] = row[j]
		}
		c.xMean[j] = stat.Mean(col, nil)
		for i := range n {
			c.x.Set(i, j, col[i]-c.xMean[j])
		}
	}

	yc := make([]float64, n)
	for i, v := range y {
		yc[i] = v - c.yMean
	}
	c.y = mat.NewVecDense(n, yc)
	return c, nil
}

// Linear is ordinary least squares with an intercept. It returns the
// minimum-norm solution, so constant or collinear predictors share their
// weight instead of failing the fit.
type Linear struct {
	linear
}

// NewLinear returns an unfitted OLS model.
func NewLinear() *Linear { return &Linear{} }

// Name implements Model.
func (m *Linear) Name() string { return "linear" }

// Fit implements Model.
func (m *Linear) Fit(X [][]float64, y []float64) error {
	c, err := center(X, y)
	if err != nil {
		return err
	}
	coef, err := minNorm(c.x, c.y)
	if err != nil {
		return err
	}
	m.finish(c, coef)
	return nil
}

// minNorm solves min ||x·w - y|| by a thin SVD, dropping singular values
// at or below rcond times the largest. A rank-zero design yields all-zero weights.
func minNorm(x *mat.Dense, y *mat.VecDense) ([]float64, error) {
	n, p := x.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, fmt.Errorf("%w: singular value decomposition did not converge", ErrSingular)
	}

	rcond := float64(max(n, p)) * machEps
	rank := svd.Rank(rcond)
	if rank == 0 {
		return make([]float64, p), nil
	}
	var w mat.VecDense
	svd.SolveVecTo(&w, y, rank)
	return slices.Clone(w.RawVector().Data), nil
}

// machEps is the float64 unit roundoff used for rank truncation.
const machEps = 0x1p-52

// Ridge is least squares with an L2 penalty alpha*||w||^2 on the
// coefficients. The intercept is not penalized.
type Ridge struct {
	linear
	Alpha float64
}

// NewRidge returns an unfitted ridge model.
func NewRidge(alpha float64) *Ridge { return &Ridge{Alpha: alpha} }

// Name implements Model.
func (m *Ridge) Name() string { return "ridge" }

// Fit solves (XᵀX + αI)w = Xᵀy on centered data by Cholesky. With a zero
// alpha it reduces to the minimum-norm least-squares fit of Linear.
func (m *Ridge) Fit(X [][]float64, y []float64) error {
	if m.Alpha < 0 {
		return fmt.Errorf("%w: negative ridge alpha %v", ErrInvalidInput, m.Alpha)
	}
	c, err := center(X, y)
	if err != nil {
		return err
	}
	if m.Alpha == 0 {
		coef, err := minNorm(c.x, c.y)
		if err != nil {
			return err
		}
		m.finish(c, coef)
		return nil
	}

	_, p := c.x.Dims()
	var gram mat.SymDense
	gram.SymOuterK(1, c.x.T())
	for j := range p {
		gram.SetSym(j, j, gram.At(j, j)+m.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(c.x.T(), c.y)

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return fmt.Errorf("%w: ridge normal equations are not positive definite", ErrSingular)
	}
	var w mat.VecDense
	if err := chol.SolveVecTo(&w, &rhs); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	m.finish(c, slices.Clone(w.RawVector().Data))
	return nil
}

// Lasso minimizes (1/2n)||y - Xw - b||^2 + alpha*||w||_1 by cyclic
// coordinate descent.
type Lasso struct {
	linear
	Alpha   float64
	MaxIter int
	Tol     float64

	iterations int
}

// NewLasso returns an unfitted lasso model with 1000 iterations and a
// tolerance of 1e-6 on the largest coefficient change per sweep.
func NewLasso(alpha float64) *Lasso {
	return &Lasso{Alpha: alpha, MaxIter: 1000, Tol: 1e-6}
}

// Name implements Model.
func (m *Lasso) Name() string { return "lasso" }

// Iterations reports how many coordinate sweeps the last Fit ran.
func (m *Lasso) Iterations() int { return m.iterations }

// Fit implements Model.
func (m *Lasso) Fit(X [][]float64, y []float64) error {
	if m.Alpha < 0 {
		return fmt.Errorf("%w: negative lasso alpha %v", ErrInvalidInput, m.Alpha)
	}
	c, err := center(X, y)
	if err != nil {
		return err
	}

	n, p := c.x.Dims()
	cols := make([][]float64, p)
	sq := make([]float64, p)
	for j := range p {
		cols[j] = mat.Col(nil, j, c.x)
		sq[j] = floats.Dot(cols[j], cols[j]) / float64(n)
	}

	w := make([]float64, p)
	resid := slices.Clone(c.y.RawVector().Data)

	m.iterations = 0
	for m.iterations < m.MaxIter {
		m.iterations++
		maxDelta := 0.0
		for j := range p {
			if sq[j] == 0 {
				continue
			}
			old := w[j]
			// Correlation of column j with the residual excluding its own term.
			rho := floats.Dot(cols[j], resid)/float64(n) + sq[j]*old
			w[j] = softThreshold(rho, m.Alpha) / sq[j]
			if d := w[j] - old; d != 0 {
				floats.AddScaled(resid, -d, cols[j])
				maxDelta = math.Max(maxDelta, math.Abs(d))
			}
		}
		if maxDelta <= m.Tol {
			break
		}
	}

	m.finish(c, w)
	return nil
}

func softThreshold(x, lambda float64) float64 {
	switch {
	case x > lambda:
		return x - lambda
	case x < -lambda:
		return x + lambda
	}
	return 0
}
