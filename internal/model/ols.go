// Package model fits the per-region, per-variable linear autoregressions.
package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularFit is returned when the least-squares system cannot be solved.
var ErrSingularFit = errors.New("least squares fit failed")

// rcond is the relative singular value cutoff below which a direction of the
// centered design matrix is treated as degenerate.
const rcond = 1e-10

// Linear is y = Intercept + Coef[0]*lag1 + Coef[1]*lag2.
type Linear struct {
	Intercept float64
	Coef      [2]float64
}

// Predict evaluates the fitted function.
func (l Linear) Predict(lag1, lag2 float64) float64 {
	return l.Intercept + l.Coef[0]*lag1 + l.Coef[1]*lag2
}

// FitOLS fits an ordinary least-squares regression with intercept of y on the
// two predictor columns in x.
//
// The predictors and response are centered and the slope is the
// minimum-norm least-squares solution from a thin SVD, with the intercept
// recovered from the means. Collinear or constant predictors therefore
// resolve to the smallest coefficients that fit, and constant predictors give
// a flat model predicting mean(y).
func FitOLS(x [][2]float64, y []float64) (Linear, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return Linear{}, fmt.Errorf("%w: %d predictor rows, %d responses", ErrSingularFit, len(x), n)
	}

	var xMean [2]float64
	var yMean float64
	for i := range y {
		if !finite(y[i]) || !finite(x[i][0]) || !finite(x[i][1]) {
			return Linear{}, fmt.Errorf("%w: non-finite input at row %d", ErrSingularFit, i)
		}
		xMean[0] += x[i][0]
		xMean[1] += x[i][1]
		yMean += y[i]
	}
	xMean[0] /= float64(n)
	xMean[1] /= float64(n)
	yMean /= float64(n)

	a := mat.NewDense(n, 2, nil)
	b := mat.NewDense(n, 1, nil)
	for i := range y {
		a.Set(i, 0, x[i][0]-xMean[0])
		a.Set(i, 1, x[i][1]-xMean[1])
		b.Set(i, 0, y[i]-yMean)
	}

	var coef [2]float64
	if mat.Norm(a, 1) > 0 {
		var svd mat.SVD
		if ok := svd.Factorize(a, mat.SVDThin); !ok {
			return Linear{}, ErrSingularFit
		}
		if rank := svd.Rank(rcond); rank > 0 {
			var beta mat.Dense
			svd.SolveTo(&beta, b, rank)
			coef[0] = beta.At(0, 0)
			coef[1] = beta.At(1, 0)
		}
	}

	fit := Linear{
		Intercept: yMean - coef[0]*xMean[0] - coef[1]*xMean[1],
		Coef:      coef,
	}
	if !finite(fit.Intercept) || !finite(fit.Coef[0]) || !finite(fit.Coef[1]) {
		return Linear{}, ErrSingularFit
	}
	return fit, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
