package solver

import (
	"fmt"
	"math"
	"sort"

	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

const (
	intTol  = 1e-6
	feasTol = 1e-7
	fixTol  = 1e-9
)

// reduced is a program after presolve: tightened bounds, the rows that still
// couple two or more free variables and the dense objective.
type reduced struct {
	lo, hi []float64
	cost   []float64
	active []int
	kinds  []core.VarKind
}

func (r *reduced) fixed(v core.Var) bool {
	return r.hi[v]-r.lo[v] <= fixTol
}

// presolve tightens bounds from singleton rows and fixes dominated variables
// until a fixed point is reached.
// It returns NotSolved when components remain to be searched.
func presolve(p *core.Program) (*reduced, Status, error) {
	n := p.NumVars()
	r := &reduced{
		lo:    make([]float64, n),
		hi:    make([]float64, n),
		cost:  make([]float64, n),
		kinds: make([]core.VarKind, n),
	}
	for i, d := range p.Vars() {
		if math.IsInf(d.Lower, -1) {
			return nil, Error, fmt.Errorf("variable %q has no lower bound; free variables are not supported", d.Name)
		}
		r.lo[i], r.hi[i], r.kinds[i] = d.Lower, d.Upper, d.Kind
		if d.Kind.IsIntegral() {
			r.lo[i] = math.Ceil(r.lo[i] - intTol)
			r.hi[i] = math.Floor(r.hi[i] + intTol)
		}
		if r.lo[i] > r.hi[i]+feasTol {
			return r, Infeasible, nil
		}
	}
	for _, t := range p.Objective().Terms {
		r.cost[t.Var] += t.Coef
	}

	rows := p.Rows()
	active := make([]bool, len(rows))
	for i := range active {
		active[i] = true
	}
	for changed := true; changed; {
		changed = false
		for i, row := range rows {
			if !active[i] {
				continue
			}
			rest := row.RHS - row.Expr.Constant
			var free []core.Term
			for _, t := range row.Expr.Terms {
				if r.fixed(t.Var) {
					rest -= t.Coef * r.lo[t.Var]
				} else {
					free = append(free, t)
				}
			}
			switch len(free) {
			case 0:
				if !satisfied(0, row.Sense, rest) {
					return r, Infeasible, nil
				}
			case 1:
				if !r.tighten(free[0], row.Sense, rest) {
					return r, Infeasible, nil
				}
			default:
				continue
			}
			active[i] = false
			changed = true
		}
		if !changed {
			changed = r.fixDominated(rows, active)
		}
	}

	inRow := make([]bool, n)
	for i, row := range rows {
		if !active[i] {
			continue
		}
		r.active = append(r.active, i)
		for _, t := range row.Expr.Terms {
			inRow[t.Var] = true
		}
	}
	for v := 0; v < n; v++ {
		if inRow[v] || r.fixed(core.Var(v)) {
			continue
		}
		switch {
		case r.cost[v] < 0 && math.IsInf(r.hi[v], 1):
			return r, Unbounded, nil
		case r.cost[v] < 0:
			r.lo[v] = r.hi[v]
		default:
			r.hi[v] = r.lo[v]
		}
	}
	return r, NotSolved, nil
}

// fixDominated fixes every free variable that no active row stops from
// moving in its improving direction: towards lo when its cost is not
// negative and towards a finite hi when its cost is not positive. Variables
// in no active row are left to the caller.
func (r *reduced) fixDominated(rows []core.Row, active []bool) bool {
	n := len(r.lo)
	down := make([]bool, n)
	up := make([]bool, n)
	seen := make([]bool, n)
	for i, row := range rows {
		if !active[i] {
			continue
		}
		for _, t := range row.Expr.Terms {
			seen[t.Var] = true
			switch {
			case row.Sense == core.Equal:
				down[t.Var], up[t.Var] = true, true
			case (row.Sense == core.LessEqual) == (t.Coef > 0):
				up[t.Var] = true
			default:
				down[t.Var] = true
			}
		}
	}

	changed := false
	for v := 0; v < n; v++ {
		if !seen[v] || r.fixed(core.Var(v)) {
			continue
		}
		switch {
		case r.cost[v] >= 0 && !down[v]:
			r.hi[v] = r.lo[v]
		case r.cost[v] <= 0 && !up[v] && !math.IsInf(r.hi[v], 1):
			r.lo[v] = r.hi[v]
		default:
			continue
		}
		changed = true
	}
	return changed
}

// tighten applies coef·x <sense> rest to the bounds of x.
func (r *reduced) tighten(t core.Term, sense core.Sense, rest float64) bool {
	v := t.Var
	b := rest / t.Coef
	if t.Coef < 0 {
		switch sense {
		case core.LessEqual:
			sense = core.GreaterEqual
		case core.GreaterEqual:
			sense = core.LessEqual
		}
	}
	lo, hi := math.Inf(-1), math.Inf(1)
	switch sense {
	case core.LessEqual:
		hi = b
	case core.GreaterEqual:
		lo = b
	default:
		lo, hi = b, b
	}
	if r.kinds[v].IsIntegral() {
		lo = math.Ceil(lo - intTol)
		hi = math.Floor(hi + intTol)
	}
	r.lo[v] = math.Max(r.lo[v], lo)
	r.hi[v] = math.Min(r.hi[v], hi)
	if r.lo[v] > r.hi[v]+feasTol {
		return false
	}
	if r.lo[v] > r.hi[v] {
		r.hi[v] = r.lo[v]
	}
	return true
}

func satisfied(activity float64, sense core.Sense, rhs float64) bool {
	switch sense {
	case core.LessEqual:
		return activity <= rhs+feasTol
	case core.GreaterEqual:
		return activity >= rhs-feasTol
	default:
		return math.Abs(activity-rhs) <= feasTol
	}
}

// lpRow is a row restricted to one component, in local variable indices,
// with the contribution of globally fixed variables moved to rhs.
type lpRow struct {
	terms []core.Term
	sense core.Sense
	rhs   float64
}

// component is an independent sub-problem.
type component struct {
	vars     []core.Var
	rows     []lpRow
	cost     []float64
	lo, hi   []float64
	integral []bool
	// step divides every objective value reached at an integral point, or is
	// zero when no such step is known.
	step float64
}

// decompose groups the free variables of the reduced program into components
// connected by the active rows, ordered by their smallest variable.
func decompose(p *core.Program, r *reduced) []*component {
	parent := make(map[core.Var]core.Var)
	var find func(core.Var) core.Var
	find = func(v core.Var) core.Var {
		for parent[v] != v {
			parent[v] = parent[parent[v]]
			v = parent[v]
		}
		return v
	}
	rows := p.Rows()
	for _, i := range r.active {
		var first core.Var = -1
		for _, t := range rows[i].Expr.Terms {
			if r.fixed(t.Var) {
				continue
			}
			if _, ok := parent[t.Var]; !ok {
				parent[t.Var] = t.Var
			}
			if first < 0 {
				first = t.Var
				continue
			}
			a, b := find(first), find(t.Var)
			if a != b {
				if a < b {
					parent[b] = a
				} else {
					parent[a] = b
				}
			}
		}
	}

	byRoot := make(map[core.Var]*component)
	local := make(map[core.Var]int, len(parent))
	vars := make([]core.Var, 0, len(parent))
	for v := range parent {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	var out []*component
	for _, v := range vars {
		root := find(v)
		c, ok := byRoot[root]
		if !ok {
			c = &component{step: objectiveSteps[0]}
			byRoot[root] = c
			out = append(out, c)
		}
		local[v] = len(c.vars)
		c.vars = append(c.vars, v)
		c.cost = append(c.cost, r.cost[v])
		c.lo = append(c.lo, r.lo[v])
		c.hi = append(c.hi, r.hi[v])
		integral := r.kinds[v].IsIntegral()
		c.integral = append(c.integral, integral)
		c.step = narrowStep(c.step, r.cost[v], integral)
	}

	for _, i := range r.active {
		row := rows[i]
		lr := lpRow{sense: row.Sense, rhs: row.RHS - row.Expr.Constant}
		var owner *component
		for _, t := range row.Expr.Terms {
			if r.fixed(t.Var) {
				lr.rhs -= t.Coef * r.lo[t.Var]
				continue
			}
			owner = byRoot[find(t.Var)]
			lr.terms = append(lr.terms, core.Term{Var: core.Var(local[t.Var]), Coef: t.Coef})
		}
		owner.rows = append(owner.rows, lr)
	}
	return out
}

// objectiveSteps are the candidate granularities of a component objective,
// coarsest first.
var objectiveSteps = []float64{1, 0.5, 0.25, 0.2, 0.1, 0.05, 0.01}

// narrowStep returns the coarsest candidate dividing both step and cost, or
// zero when none does.
func narrowStep(step, cost float64, integral bool) float64 {
	if cost == 0 || step == 0 {
		return step
	}
	if !integral {
		return 0
	}
	for _, cand := range objectiveSteps {
		if divides(cand, step) && divides(cand, cost) {
			return cand
		}
	}
	return 0
}

func divides(step, v float64) bool {
	q := v / step
	return math.Abs(q-math.Round(q)) <= 1e-9*math.Max(1, math.Abs(q))
}
