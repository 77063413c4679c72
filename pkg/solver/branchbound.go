package solver

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

// BranchAndBound is the embedded MILP solver.
type BranchAndBound struct {
	spec *config.SolverSpec
	// relaxation builds the LP solver of one component.
	relaxation func(c *component) relaxation
}

// NewBranchAndBound creates a branch-and-bound solver bounded by spec.
func NewBranchAndBound(spec *config.SolverSpec) *BranchAndBound {
	if spec == nil {
		spec = config.DefaultSolverSpec()
	}
	return &BranchAndBound{
		spec:       spec,
		relaxation: func(c *component) relaxation { return newSimplex(c) },
	}
}

// Name returns the backend name.
func (s *BranchAndBound) Name() string {
	return string(config.BackendBranchAndBound)
}

// Solve presolves p, splits it into independent components and searches each one.
func (s *BranchAndBound) Solve(ctx context.Context, p *core.Program) (*Result, error) {
	start := time.Now()
	logger := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.spec.TimeLimit)
	defer cancel()

	result := &Result{Status: NotSolved}
	finish := func(st Status) (*Result, error) {
		result.Status = st
		result.Elapsed = time.Since(start)
		if st != Optimal {
			result.Values = nil
		}
		return result, nil
	}
	if ctx.Err() != nil {
		return finish(TimeLimit)
	}

	red, st, err := presolve(p)
	if err != nil {
		result.Status = Error
		return result, err
	}
	if st != NotSolved {
		return finish(st)
	}

	values := make([]float64, p.NumVars())
	copy(values, red.lo)
	comps := decompose(p, red)
	logger.V(logging.DEBUG).Info("Presolve completed",
		"vars", p.NumVars(),
		"rows", p.NumRows(),
		"activeRows", len(red.active),
		"components", len(comps))

	for i, c := range comps {
		cr, err := s.search(ctx, c, s.relaxation(c))
		result.Nodes += cr.nodes
		if err != nil {
			result.Status = Error
			result.Elapsed = time.Since(start)
			return result, err
		}
		if cr.status != Optimal {
			logger.V(logging.DEBUG).Info("Component search stopped",
				"component", i,
				"status", cr.status.String(),
				"nodes", cr.nodes)
			return finish(cr.status)
		}
		for j, v := range c.vars {
			values[v] = cr.values[j]
		}
		logger.V(logging.TRACE).Info("Component solved",
			"component", i,
			"vars", len(c.vars),
			"rows", len(c.rows),
			"nodes", cr.nodes,
			"objective", cr.objective)
	}

	result.Values = values
	result.Objective = p.Objective().Eval(values)
	return finish(Optimal)
}

type searchResult struct {
	status    Status
	values    []float64
	objective float64
	nodes     int
}

// bbNode is one branching decision on top of its parent's bounds. The root
// has v set to -1.
type bbNode struct {
	parent *bbNode
	v      int
	lo, hi float64
	bound  float64
	depth  int
}

// bounds writes the bounds of the node's sub-problem into lo and hi.
func (nd *bbNode) bounds(c *component, lo, hi []float64) {
	copy(lo, c.lo)
	copy(hi, c.hi)
	for n := nd; n != nil && n.v >= 0; n = n.parent {
		lo[n.v] = math.Max(lo[n.v], n.lo)
		hi[n.v] = math.Min(hi[n.v], n.hi)
	}
}

// nodeQueue orders nodes by bound, deeper first on ties.
type nodeQueue []*bbNode

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].bound != q[j].bound {
		return q[i].bound < q[j].bound
	}
	return q[i].depth > q[j].depth
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*bbNode)) }
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// search runs branch-and-bound over one component. It dives into the child
// nearest the relaxed value until the dive is pruned, then resumes from the
// open node with the best bound.
func (s *BranchAndBound) search(ctx context.Context, c *component, relax relaxation) (searchResult, error) {
	logger := logging.FromContext(ctx)

	lo := make([]float64, len(c.vars))
	hi := make([]float64, len(c.vars))
	queue := &nodeQueue{}
	next := &bbNode{v: -1, bound: math.Inf(-1)}

	var incumbent []float64
	best := math.Inf(1)
	nodes, skipped := 0, 0

	for next != nil || queue.Len() > 0 {
		if ctx.Err() != nil {
			return searchResult{status: TimeLimit, nodes: nodes}, nil
		}
		if s.spec.NodeLimit > 0 && nodes >= s.spec.NodeLimit {
			return searchResult{status: NodeLimit, nodes: nodes}, nil
		}
		nd := next
		next = nil
		if nd == nil {
			nd = heap.Pop(queue).(*bbNode)
		}
		if s.prune(nd.bound, best) {
			continue
		}
		nodes++

		nd.bounds(c, lo, hi)
		sol, err := relax.solve(ctx, lo, hi)
		if err != nil {
			if ctx.Err() != nil {
				return searchResult{status: TimeLimit, nodes: nodes}, nil
			}
			if nodes == 1 {
				return searchResult{status: Error, nodes: nodes}, err
			}
			skipped++
			logger.V(logging.TRACE).Info("Skipping node after LP failure", "depth", nd.depth, "error", err.Error())
			continue
		}
		switch sol.status {
		case lpInfeasible:
			continue
		case lpUnbounded:
			return searchResult{status: Unbounded, nodes: nodes}, nil
		}

		bound := c.roundBound(sol.objective)
		if s.prune(bound, best) {
			continue
		}

		x := sol.x
		j := c.branchVar(x)
		if j < 0 {
			for k := range x {
				if c.integral[k] {
					x[k] = math.Round(x[k])
				}
			}
			incumbent = x
			best = c.eval(x)
			logger.V(logging.TRACE).Info("New incumbent", "objective", best, "nodes", nodes, "depth", nd.depth)
			continue
		}

		down := &bbNode{parent: nd, v: j, lo: lo[j], hi: math.Floor(x[j]), bound: bound, depth: nd.depth + 1}
		up := &bbNode{parent: nd, v: j, lo: math.Ceil(x[j]), hi: hi[j], bound: bound, depth: nd.depth + 1}
		if x[j]-math.Floor(x[j]) < 0.5 {
			next = down
			heap.Push(queue, up)
		} else {
			next = up
			heap.Push(queue, down)
		}
	}

	if skipped > 0 {
		// A skipped node may hold a better solution than the incumbent.
		return searchResult{status: Error, nodes: nodes}, fmt.Errorf("%w: %d nodes skipped after LP failures",
			ErrNumericalFailure, skipped)
	}
	if incumbent == nil {
		return searchResult{status: Infeasible, nodes: nodes}, nil
	}
	return searchResult{status: Optimal, values: incumbent, objective: best, nodes: nodes}, nil
}

// prune reports whether a node with the given bound cannot beat best by more
// than the allowed gap.
func (s *BranchAndBound) prune(bound, best float64) bool {
	if math.IsInf(best, 1) {
		return false
	}
	gap := math.Max(fixTol, s.spec.Gap()*math.Abs(best))
	return bound >= best-gap
}

// roundBound lifts an LP bound to the next objective value an integral
// point can reach.
func (c *component) roundBound(obj float64) float64 {
	if c.step == 0 {
		return obj
	}
	return math.Ceil(obj/c.step-intTol) * c.step
}

// branchVar returns the fractional integral variable nearest to an integer,
// or -1.
func (c *component) branchVar(x []float64) int {
	best, idx := math.Inf(1), -1
	for j, v := range x {
		if !c.integral[j] {
			continue
		}
		frac := v - math.Floor(v)
		dist := math.Min(frac, 1-frac)
		if dist > intTol && dist < best {
			best, idx = dist, j
		}
	}
	return idx
}

func (c *component) eval(x []float64) float64 {
	total := 0.0
	for j, v := range x {
		total += c.cost[j] * v
	}
	return total
}
