package solver

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

func row(sense core.Sense, rhs float64, coefs ...float64) lpRow {
	r := lpRow{sense: sense, rhs: rhs}
	for j, a := range coefs {
		if a != 0 {
			r.terms = append(r.terms, core.Term{Var: core.Var(j), Coef: a})
		}
	}
	return r
}

func newComponent(cost, lo, hi []float64, rows ...lpRow) *component {
	c := &component{
		cost:     cost,
		lo:       lo,
		hi:       hi,
		rows:     rows,
		integral: make([]bool, len(cost)),
	}
	for j := range cost {
		c.vars = append(c.vars, core.Var(j))
	}
	return c
}

func TestSimplexSmallPrograms(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name   string
		c      *component
		status lpStatus
		obj    float64
		x      []float64
	}{
		{
			name: "knapsack relaxation",
			c: newComponent([]float64{-5, -4}, []float64{0, 0}, []float64{inf, inf},
				row(core.LessEqual, 24, 6, 4),
				row(core.LessEqual, 6, 1, 2)),
			status: lpOptimal,
			obj:    -21,
			x:      []float64{3, 1.5},
		},
		{
			name: "covering rows",
			c: newComponent([]float64{2, 3}, []float64{0, 0}, []float64{inf, inf},
				row(core.GreaterEqual, 4, 1, 1),
				row(core.GreaterEqual, 6, 1, 3)),
			status: lpOptimal,
			obj:    9,
			x:      []float64{3, 1},
		},
		{
			name: "equality with upper bounds",
			c: newComponent([]float64{1, -1, 0}, []float64{0, 0, 1}, []float64{4, 2, 3},
				row(core.Equal, 5, 1, 1, 1)),
			status: lpOptimal,
			obj:    -2,
			x:      []float64{0, 2, 3},
		},
		{
			name: "infeasible",
			c: newComponent([]float64{1, 1}, []float64{0, 0}, []float64{inf, inf},
				row(core.GreaterEqual, 5, 1, 1),
				row(core.LessEqual, 3, 1, 1)),
			status: lpInfeasible,
		},
		{
			name: "unbounded",
			c: newComponent([]float64{-1, 0}, []float64{0, 0}, []float64{inf, inf},
				row(core.GreaterEqual, 1, 1, -1)),
			status: lpUnbounded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := newSimplex(tt.c).solve(context.Background(), tt.c.lo, tt.c.hi)
			require.NoError(t, err)
			require.Equal(t, tt.status, sol.status)
			if tt.status != lpOptimal {
				return
			}
			assert.InDelta(t, tt.obj, sol.objective, 1e-9)
			assert.InDeltaSlice(t, tt.x, sol.x, 1e-9)
		})
	}
}

// randomComponent builds a bounded program that is feasible at a known point.
func randomComponent(rng *rand.Rand, n, m int) *component {
	cost := make([]float64, n)
	lo := make([]float64, n)
	hi := make([]float64, n)
	x0 := make([]float64, n)
	for j := range cost {
		cost[j] = math.Round(rng.Float64()*20 - 10)
		hi[j] = float64(1 + rng.IntN(9))
		x0[j] = rng.Float64() * hi[j]
	}
	rows := make([]lpRow, m)
	for i := range rows {
		coefs := make([]float64, n)
		act := 0.0
		for j := range coefs {
			if rng.Float64() < 0.5 {
				coefs[j] = math.Round(rng.Float64()*10 - 3)
			}
			act += coefs[j] * x0[j]
		}
		switch i % 3 {
		case 0:
			rows[i] = row(core.LessEqual, math.Ceil(act), coefs...)
		case 1:
			rows[i] = row(core.GreaterEqual, math.Floor(act), coefs...)
		default:
			rows[i] = row(core.Equal, act, coefs...)
		}
	}
	return newComponent(cost, lo, hi, rows...)
}

func TestSimplexMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	compared := 0
	for k := 0; k < 40; k++ {
		c := randomComponent(rng, 4+rng.IntN(8), 2+rng.IntN(6))
		want, _, st, err := referenceRelax(c, c.lo, c.hi)
		if err != nil || st != lpOptimal {
			continue
		}
		sol, err := newSimplex(c).solve(context.Background(), c.lo, c.hi)
		require.NoError(t, err, "program %d", k)
		require.Equal(t, lpOptimal, sol.status, "program %d", k)
		assert.InDelta(t, want, sol.objective, 1e-6, "program %d", k)
		assertFeasible(t, c, c.lo, c.hi, sol.x)
		compared++
	}
	assert.Greater(t, compared, 20)
}

// Re-solving after bound changes starts from the previous basis and must
// agree with a solve from scratch.
func TestSimplexWarmStart(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	c := randomComponent(rng, 10, 6)
	warm := newSimplex(c)

	lo := append([]float64(nil), c.lo...)
	hi := append([]float64(nil), c.hi...)
	for k := 0; k < 30; k++ {
		j := rng.IntN(len(lo))
		if rng.IntN(2) == 0 {
			hi[j] = math.Floor(c.hi[j] * rng.Float64())
		} else {
			lo[j] = math.Ceil(c.hi[j] * rng.Float64())
		}
		if k%5 == 4 {
			copy(lo, c.lo)
			copy(hi, c.hi)
		}

		got, err := warm.solve(context.Background(), lo, hi)
		require.NoError(t, err)
		want, err := newSimplex(c).solve(context.Background(), lo, hi)
		require.NoError(t, err)
		require.Equal(t, want.status, got.status, "step %d", k)
		if got.status == lpOptimal {
			assert.InDelta(t, want.objective, got.objective, 1e-6, "step %d", k)
			assertFeasible(t, c, lo, hi, got.x)
		}
	}
}

func TestSimplexCancelled(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	c := randomComponent(rng, 8, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSimplex(c).solve(ctx, c.lo, c.hi)
	assert.ErrorIs(t, err, context.Canceled)
}

func assertFeasible(t *testing.T, c *component, lo, hi, x []float64) {
	t.Helper()
	for j, v := range x {
		assert.GreaterOrEqual(t, v, lo[j]-1e-6, "x[%d]", j)
		assert.LessOrEqual(t, v, hi[j]+1e-6, "x[%d]", j)
	}
	for i, r := range c.rows {
		act := 0.0
		for _, term := range r.terms {
			act += term.Coef * x[term.Var]
		}
		switch r.sense {
		case core.LessEqual:
			assert.LessOrEqual(t, act, r.rhs+1e-6, "row %d", i)
		case core.GreaterEqual:
			assert.GreaterOrEqual(t, act, r.rhs-1e-6, "row %d", i)
		default:
			assert.InDelta(t, r.rhs, act, 1e-6, "row %d", i)
		}
	}
}
