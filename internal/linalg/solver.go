// Package linalg wraps the small dense linear-algebra operations the
// estimator needs: inverting the per-iteration Hessian and solving for the
// parameter increment. It is a thin adapter over gonum/mat rather than a
// hand-rolled Gaussian elimination routine.
package linalg

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned by Invert when the matrix has no usable inverse.
// Callers should treat this as a non-convergent iteration step, never
// propagate a sentinel value through further arithmetic.
var ErrSingular = errors.New("linalg: matrix is singular")

// Invert computes A^-1 for a square n x n matrix given row-major. It
// returns ErrSingular instead of the source's 999999.9 sentinel fill when
// the matrix is not invertible.
func Invert(a []float64, n int) ([]float64, error) {
	dense := mat.NewDense(n, n, append([]float64(nil), a...))

	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		return nil, ErrSingular
	}

	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = inv.At(i, j)
		}
	}
	return out, nil
}

// Solve computes dp = A*b for an n x n row-major matrix A and vector b — a
// single dense matrix-vector multiply (Axb in the source).
func Solve(a []float64, b []float64, n int) []float64 {
	dp := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		row := a[i*n : i*n+n]
		for j := 0; j < n; j++ {
			sum += row[j] * b[j]
		}
		dp[i] = sum
	}
	return dp
}
