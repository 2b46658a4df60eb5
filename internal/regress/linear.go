// Package regress implements the pipeline's single regression algorithm:
// linear least squares with an intercept term.
package regress

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ridgeLambda is a tiny regularization term added to the normal equations so
// degenerate inputs (a single row, collinear dummy columns) still produce a
// solution instead of a rank error.
const ridgeLambda = 1e-8

// Model is a fitted linear estimator.
type Model struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Fit solves (AᵀA + λI)β = Aᵀy for the design matrix A = [1 | X]. An empty
// or dimension-mismatched input is an error; rank deficiency is not.
func Fit(features *mat.Dense, target []float64) (*Model, error) {
	if features == nil {
		return nil, fmt.Errorf("fit: empty feature matrix")
	}
	rows, cols := features.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("fit: empty feature matrix (%dx%d)", rows, cols)
	}
	if len(target) != rows {
		return nil, fmt.Errorf("fit: target length %d does not match %d rows", len(target), rows)
	}

	design := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		design.Set(i, 0, 1)
	}
	design.Slice(0, rows, 1, cols+1).(*mat.Dense).Copy(features)

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for i := 0; i < cols+1; i++ {
		gram.Set(i, i, gram.At(i, i)+ridgeLambda)
	}

	var moment mat.VecDense
	moment.MulVec(design.T(), mat.NewVecDense(rows, target))

	var beta mat.VecDense
	if err := beta.SolveVec(&gram, &moment); err != nil {
		// SolveVec still stores a usable solution when it reports
		// mat.Condition (ill-conditioned, e.g. the degenerate inputs the
		// ridge term exists for); only a hard failure is a fit error.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("fit: solve normal equations: %w", err)
		}
	}

	coeffs := make([]float64, cols)
	for i := range coeffs {
		coeffs[i] = beta.AtVec(i + 1)
	}
	return &Model{
		Intercept:    beta.AtVec(0),
		Coefficients: coeffs,
	}, nil
}

// Predict returns the estimated price for one feature vector.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Coefficients) {
		return 0, fmt.Errorf("predict: %d features, model has %d", len(features), len(m.Coefficients))
	}
	sum := m.Intercept
	for i, v := range features {
		sum += m.Coefficients[i] * v
	}
	return sum, nil
}
