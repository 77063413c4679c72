package solver

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

const referenceTol = 1e-10

// referenceRelax solves the relaxation of c with gonum's standard form
// simplex, as a cross-check for the bounded simplex.
//
// Each variable is shifted to y = x - lo >= 0. Every row and every finite
// upper bound gets its own slack column, which keeps A at full row rank.
// Equalities are split into two inequalities for the same reason.
func referenceRelax(c *component, lo, hi []float64) (float64, []float64, lpStatus, error) {
	n := len(c.vars)
	x := make([]float64, n)
	col := make([]int, n)
	ncols := 0
	for j := 0; j < n; j++ {
		if hi[j] < lo[j]-feasTol {
			return 0, nil, lpInfeasible, nil
		}
		x[j] = lo[j]
		if hi[j]-lo[j] <= fixTol {
			col[j] = -1
			continue
		}
		col[j] = ncols
		ncols++
	}

	type stdRow struct {
		terms []int
		coefs []float64
		b     float64
	}
	var rows []stdRow
	for _, r := range c.rows {
		rest := r.rhs
		var idx []int
		var coefs []float64
		for _, t := range r.terms {
			rest -= t.Coef * lo[t.Var]
			if col[t.Var] >= 0 {
				idx = append(idx, col[t.Var])
				coefs = append(coefs, t.Coef)
			}
		}
		if len(idx) == 0 {
			if !satisfied(0, r.sense, rest) {
				return 0, nil, lpInfeasible, nil
			}
			continue
		}
		neg := make([]float64, len(coefs))
		for k, v := range coefs {
			neg[k] = -v
		}
		switch r.sense {
		case core.LessEqual:
			rows = append(rows, stdRow{terms: idx, coefs: coefs, b: rest})
		case core.GreaterEqual:
			rows = append(rows, stdRow{terms: idx, coefs: neg, b: -rest})
		default:
			rows = append(rows, stdRow{terms: idx, coefs: coefs, b: rest}, stdRow{terms: idx, coefs: neg, b: -rest})
		}
	}
	for j := 0; j < n; j++ {
		if col[j] >= 0 && !math.IsInf(hi[j], 1) {
			rows = append(rows, stdRow{terms: []int{col[j]}, coefs: []float64{1}, b: hi[j] - lo[j]})
		}
	}

	offset := 0.0
	for j := 0; j < n; j++ {
		offset += c.cost[j] * lo[j]
	}
	if ncols == 0 {
		return offset, x, lpOptimal, nil
	}
	if len(rows) == 0 {
		// Every free variable is unconstrained above; the cheapest point is lo
		// unless some cost is negative.
		for j := 0; j < n; j++ {
			if col[j] >= 0 && c.cost[j] < 0 {
				return 0, nil, lpUnbounded, nil
			}
		}
		return offset, x, lpOptimal, nil
	}

	m := len(rows)
	A := mat.NewDense(m, ncols+m, nil)
	b := make([]float64, m)
	basic := make([]int, m)
	feasibleSlacks := true
	for i, r := range rows {
		for k, j := range r.terms {
			A.Set(i, j, A.At(i, j)+r.coefs[k])
		}
		A.Set(i, ncols+i, 1)
		b[i] = r.b
		basic[i] = ncols + i
		if r.b < 0 {
			feasibleSlacks = false
		}
	}
	cost := make([]float64, ncols+m)
	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			cost[col[j]] = c.cost[j]
		}
	}
	if !feasibleSlacks {
		basic = nil
	}

	f, y, err := gonumSimplex(cost, A, b, basic)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, lpInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return 0, nil, lpUnbounded, nil
	case err != nil:
		return 0, nil, lpInfeasible, fmt.Errorf("%w: %v", ErrNumericalFailure, err)
	}
	for j := 0; j < n; j++ {
		if col[j] >= 0 {
			x[j] = lo[j] + y[col[j]]
		}
	}
	return f + offset, x, lpOptimal, nil
}

// gonumSimplex calls lp.Simplex, turning its input panics into errors.
func gonumSimplex(c []float64, A mat.Matrix, b []float64, basic []int) (f float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNumericalFailure, r)
		}
	}()
	return lp.Simplex(c, A, b, referenceTol, basic)
}
