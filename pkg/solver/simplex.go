package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

const (
	// pivotTol is the smallest column entry accepted as a pivot.
	pivotTol = 1e-8
	// dualTol is the reduced cost below which a column cannot improve.
	dualTol = 1e-9
	// dropTol zeroes tableau entries left over from cancellation.
	dropTol = 1e-12
	// verifyTol bounds the drift between updated and recomputed basic values.
	verifyTol = 1e-6

	// degenerateRun is the number of consecutive zero steps after which
	// pricing falls back to Bland's rule.
	degenerateRun = 50
	// refreshEvery is the number of pivots after which basic values and
	// reduced costs are recomputed from the tableau.
	refreshEvery = 100
	// checkEvery is the number of iterations between context checks.
	checkEvery = 16
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
	lpUnbounded
)

type lpSolution struct {
	status    lpStatus
	objective float64
	x         []float64
}

// relaxation solves the LP relaxation of a component under node bounds.
type relaxation interface {
	solve(ctx context.Context, lo, hi []float64) (lpSolution, error)
}

var errNoFeasiblePoint = errors.New("relaxation is infeasible")

// simplex is a bounded-variable primal simplex over one component, kept as a
// dense tableau B⁻¹[A I]. Columns below n are the component variables, column
// n+i is the slack of row i, so every row reads a·x + s = rhs.
//
// The basis, the basic values and the objective's reduced costs survive
// between solves. A node solved after another one only moves the nonbasic
// columns whose bounds changed and repairs feasibility from there.
type simplex struct {
	m, n, cols int

	rows []lpRow
	rhs  []float64
	cost []float64

	tab   []float64
	basis []int
	pos   []int
	x     []float64
	lo    []float64
	hi    []float64

	// d holds the reduced costs of the objective for the current basis.
	d []float64
	// infeas and w price the phase one objective.
	infeas []float64
	w      []float64
	nz     []int

	// stale is set when x and d must be recomputed before the next solve.
	stale  bool
	since  int
	pivots int
}

var _ relaxation = (*simplex)(nil)

func newSimplex(c *component) *simplex {
	m, n := len(c.rows), len(c.vars)
	s := &simplex{
		m:      m,
		n:      n,
		cols:   n + m,
		rows:   c.rows,
		rhs:    make([]float64, m),
		cost:   make([]float64, n+m),
		tab:    make([]float64, m*(n+m)),
		basis:  make([]int, m),
		pos:    make([]int, n+m),
		x:      make([]float64, n+m),
		lo:     make([]float64, n+m),
		hi:     make([]float64, n+m),
		d:      make([]float64, n+m),
		infeas: make([]float64, n+m),
		w:      make([]float64, m),
	}
	copy(s.cost, c.cost)
	copy(s.lo, c.lo)
	copy(s.hi, c.hi)
	for i, r := range c.rows {
		s.rhs[i] = r.rhs
		j := n + i
		switch r.sense {
		case core.LessEqual:
			s.lo[j], s.hi[j] = 0, math.Inf(1)
		case core.GreaterEqual:
			s.lo[j], s.hi[j] = math.Inf(-1), 0
		default:
			s.lo[j], s.hi[j] = 0, 0
		}
	}
	s.reset()
	return s
}

// reset rebuilds the tableau from the rows with the all-slack basis.
func (s *simplex) reset() {
	clear(s.tab)
	for i, r := range s.rows {
		row := s.tab[i*s.cols : (i+1)*s.cols]
		for _, t := range r.terms {
			row[t.Var] += t.Coef
		}
		row[s.n+i] = 1
	}
	for j := 0; j < s.n; j++ {
		s.pos[j] = -1
		s.x[j] = 0
	}
	for i := 0; i < s.m; i++ {
		s.basis[i] = s.n + i
		s.pos[s.n+i] = i
	}
	s.stale = true
}

// solve minimizes the component objective within [lo, hi]. On a numerical
// failure the tableau is rebuilt and the solve retried once from scratch.
func (s *simplex) solve(ctx context.Context, lo, hi []float64) (lpSolution, error) {
	for j := 0; j < s.n; j++ {
		if hi[j] < lo[j]-feasTol {
			return lpSolution{status: lpInfeasible}, nil
		}
		s.lo[j], s.hi[j] = lo[j], math.Max(hi[j], lo[j])
	}

	sol, err := s.run(ctx)
	if err == nil || !errors.Is(err, ErrNumericalFailure) {
		return sol, err
	}
	s.reset()
	return s.run(ctx)
}

func (s *simplex) run(ctx context.Context) (lpSolution, error) {
	for j := 0; j < s.cols; j++ {
		if s.pos[j] >= 0 {
			continue
		}
		old := s.x[j]
		s.place(j)
		if !s.stale && s.x[j] != old {
			s.shift(j, s.x[j]-old)
		}
	}
	if s.stale {
		s.refresh()
	}

	maxIter := 20*s.cols + 1000
	if err := s.phaseOne(ctx, maxIter); err != nil {
		if errors.Is(err, errNoFeasiblePoint) {
			return lpSolution{status: lpInfeasible}, nil
		}
		return lpSolution{}, err
	}
	unbounded, err := s.phaseTwo(ctx, maxIter)
	if err != nil {
		return lpSolution{}, err
	}
	if unbounded {
		return lpSolution{status: lpUnbounded}, nil
	}

	if s.since >= refreshEvery {
		s.refresh()
		for _, b := range s.basis {
			if s.x[b] < s.lo[b]-verifyTol || s.x[b] > s.hi[b]+verifyTol {
				return lpSolution{}, fmt.Errorf("%w: basic column %d drifted to %g outside [%g, %g]",
					ErrNumericalFailure, b, s.x[b], s.lo[b], s.hi[b])
			}
		}
	}

	out := lpSolution{status: lpOptimal, x: make([]float64, s.n)}
	for j := 0; j < s.n; j++ {
		v := math.Min(math.Max(s.x[j], s.lo[j]), s.hi[j])
		out.x[j] = v
		out.objective += s.cost[j] * v
	}
	return out, nil
}

// place moves a nonbasic column onto a finite bound of its current box.
func (s *simplex) place(j int) {
	l, h, v := s.lo[j], s.hi[j], s.x[j]
	switch {
	case math.IsInf(l, -1) && math.IsInf(h, 1):
		if math.IsInf(v, 0) || math.IsNaN(v) {
			s.x[j] = 0
		}
	case v <= l:
		s.x[j] = l
	case v >= h:
		s.x[j] = h
	case math.IsInf(h, 1) || (!math.IsInf(l, -1) && v-l <= h-v):
		s.x[j] = l
	default:
		s.x[j] = h
	}
}

// shift updates the basic values after nonbasic column j moved by delta.
func (s *simplex) shift(j int, delta float64) {
	for i := 0; i < s.m; i++ {
		if a := s.tab[i*s.cols+j]; a != 0 {
			s.x[s.basis[i]] -= a * delta
		}
	}
}

// refresh recomputes the basic values and the reduced costs from the tableau.
func (s *simplex) refresh() {
	s.computeBasics()
	for i, b := range s.basis {
		s.w[i] = s.cost[b]
	}
	s.price(s.d, s.cost)
	s.stale = false
	s.since = 0
}

// computeBasics sets the basic values from the nonbasic ones:
// x_B = B⁻¹·rhs - B⁻¹·N·x_N, where B⁻¹ is held in the slack columns.
func (s *simplex) computeBasics() {
	for i := 0; i < s.m; i++ {
		row := s.tab[i*s.cols : (i+1)*s.cols]
		v := 0.0
		for k, b := range s.rhs {
			v += row[s.n+k] * b
		}
		for j, a := range row {
			if a != 0 && s.pos[j] < 0 {
				v -= a * s.x[j]
			}
		}
		s.x[s.basis[i]] = v
	}
}

// price sets d to base - wᵀ·tab, with base nil meaning zero costs.
func (s *simplex) price(d, base []float64) {
	if base == nil {
		clear(d)
	} else {
		copy(d, base)
	}
	for i, wi := range s.w {
		if wi == 0 {
			continue
		}
		row := s.tab[i*s.cols : (i+1)*s.cols]
		for j, a := range row {
			if a != 0 {
				d[j] -= wi * a
			}
		}
	}
	for _, b := range s.basis {
		d[b] = 0
	}
}

// phaseOne minimizes the total bound violation of the basic columns.
func (s *simplex) phaseOne(ctx context.Context, maxIter int) error {
	degenerate := 0
	for it := 0; ; it++ {
		if it%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if it > maxIter {
			return fmt.Errorf("%w: phase one did not converge in %d iterations", ErrNumericalFailure, maxIter)
		}
		if s.since >= refreshEvery {
			s.refresh()
		}

		infeasible := false
		for i, b := range s.basis {
			switch {
			case s.x[b] < s.lo[b]-feasTol:
				s.w[i] = -1
				infeasible = true
			case s.x[b] > s.hi[b]+feasTol:
				s.w[i] = 1
				infeasible = true
			default:
				s.w[i] = 0
			}
		}
		if !infeasible {
			return nil
		}

		s.price(s.infeas, nil)
		bland := degenerate > degenerateRun
		q, dir := s.entering(s.infeas, bland)
		if q < 0 {
			return errNoFeasiblePoint
		}
		theta, r, at := s.ratio(q, dir, true, bland)
		if math.IsInf(theta, 1) {
			return fmt.Errorf("%w: unbounded phase one step on column %d", ErrNumericalFailure, q)
		}
		if theta <= dropTol {
			degenerate++
		} else {
			degenerate = 0
		}
		s.step(q, dir, theta, r, at)
	}
}

// phaseTwo minimizes the objective from a feasible basis. It reports true
// when the objective is unbounded below.
func (s *simplex) phaseTwo(ctx context.Context, maxIter int) (bool, error) {
	degenerate := 0
	for it := 0; ; it++ {
		if it%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		if it > maxIter {
			return false, fmt.Errorf("%w: phase two did not converge in %d iterations", ErrNumericalFailure, maxIter)
		}
		if s.since >= refreshEvery {
			s.refresh()
		}

		bland := degenerate > degenerateRun
		q, dir := s.entering(s.d, bland)
		if q < 0 {
			return false, nil
		}
		theta, r, at := s.ratio(q, dir, false, bland)
		if math.IsInf(theta, 1) {
			return true, nil
		}
		if theta <= dropTol {
			degenerate++
		} else {
			degenerate = 0
		}
		s.step(q, dir, theta, r, at)
	}
}

// entering picks the nonbasic column with the largest improving reduced
// cost in d, or the first one under Bland's rule. dir is +1 when the column
// increases and -1 when it decreases.
func (s *simplex) entering(d []float64, bland bool) (int, float64) {
	q, dir, best := -1, 0.0, 0.0
	for j := 0; j < s.cols; j++ {
		if s.pos[j] >= 0 {
			continue
		}
		dj := d[j]
		var score, sign float64
		switch {
		case dj < -dualTol && s.x[j] < s.hi[j]:
			score, sign = -dj, 1
		case dj > dualTol && s.x[j] > s.lo[j]:
			score, sign = dj, -1
		default:
			continue
		}
		if bland {
			return j, sign
		}
		if score > best {
			q, dir, best = j, sign, score
		}
	}
	return q, dir
}

// ratio returns the step length along column q, the row whose basic column
// blocks it and the bound that column stops at. r is -1 when q reaches its
// own opposite bound first. In phase one, a basic column outside its bounds
// blocks where it becomes feasible and does not block when moving away.
func (s *simplex) ratio(q int, dir float64, phaseOne, bland bool) (float64, int, float64) {
	theta := s.hi[q] - s.lo[q]
	r, at, bestPivot := -1, 0.0, 0.0

	for i := 0; i < s.m; i++ {
		a := s.tab[i*s.cols+q]
		if math.Abs(a) <= pivotTol {
			continue
		}
		rate := -a * dir
		b := s.basis[i]
		v, l, h := s.x[b], s.lo[b], s.hi[b]

		var limit, bound float64
		if rate > 0 {
			switch {
			case phaseOne && v < l-feasTol:
				limit, bound = (l-v)/rate, l
			case math.IsInf(h, 1), phaseOne && v > h+feasTol:
				continue
			default:
				limit, bound = (h-v)/rate, h
			}
		} else {
			switch {
			case phaseOne && v > h+feasTol:
				limit, bound = (v-h)/-rate, h
			case math.IsInf(l, -1), phaseOne && v < l-feasTol:
				continue
			default:
				limit, bound = (v-l)/-rate, l
			}
		}
		limit = math.Max(limit, 0)

		switch {
		case limit < theta-dropTol:
		case limit <= theta+dropTol && r >= 0:
			// ties go to the larger pivot, or the lower column under Bland's rule
			if bland {
				if b > s.basis[r] {
					continue
				}
			} else if math.Abs(a) <= bestPivot {
				continue
			}
		default:
			continue
		}
		theta, r, at, bestPivot = limit, i, bound, math.Abs(a)
	}
	return theta, r, at
}

// step moves column q by theta in direction dir and, when a row blocks,
// pivots q into that row with the leaving column fixed at bound at.
func (s *simplex) step(q int, dir, theta float64, r int, at float64) {
	if theta > 0 {
		s.x[q] += dir * theta
		s.shift(q, dir*theta)
	}
	if r < 0 {
		if dir > 0 {
			s.x[q] = s.hi[q]
		} else {
			s.x[q] = s.lo[q]
		}
		return
	}
	s.x[s.basis[r]] = at
	s.pivot(r, q)
}

// pivot makes q basic in row r and updates the reduced costs to the new basis.
func (s *simplex) pivot(r, q int) {
	pr := s.tab[r*s.cols : (r+1)*s.cols]
	inv := 1 / pr[q]
	s.nz = s.nz[:0]
	for j, v := range pr {
		if v == 0 {
			continue
		}
		v *= inv
		if math.Abs(v) < dropTol {
			pr[j] = 0
			continue
		}
		pr[j] = v
		s.nz = append(s.nz, j)
	}
	pr[q] = 1

	for i := 0; i < s.m; i++ {
		if i == r {
			continue
		}
		row := s.tab[i*s.cols : (i+1)*s.cols]
		f := row[q]
		if f == 0 {
			continue
		}
		for _, j := range s.nz {
			v := row[j] - f*pr[j]
			if math.Abs(v) < dropTol {
				v = 0
			}
			row[j] = v
		}
		row[q] = 0
	}

	if dq := s.d[q]; dq != 0 {
		for _, j := range s.nz {
			s.d[j] -= dq * pr[j]
		}
	}
	s.d[q] = 0

	s.pos[s.basis[r]] = -1
	s.basis[r] = q
	s.pos[q] = r
	s.pivots++
	s.since++
}
