// Package core provides the solver-neutral mathematical program used by the meal planner.
//
// A Program is a set of bounded decision variables, linear rows over those
// variables and a single linear objective that is always minimized:
//
//   - Var: handle of a continuous, integer or binary variable
//   - LinExpr: sparse linear expression with a constant offset
//   - Row: a named `<=`, `>=` or `==` comparison of an expression against a value
//   - Program: the variables, rows and objective submitted to a solver
//
// Programs are built once per optimization run and are not safe for
// concurrent mutation. Solvers in package solver only read them.
//
// Example usage:
//
//	p := core.NewProgram()
//	qty := p.AddVar("qty", core.Integer, 0, math.Inf(1))
//	used := p.AddVar("used", core.Binary, 0, 1)
//
//	link := core.NewExpr().Add(qty, 1).Add(used, -10)
//	p.AddRow("link", link, core.LessEqual, 0)
//	p.SetObjective(core.NewExpr().Add(qty, 150))
//
//	// check a candidate assignment
//	violations := p.Check([]float64{2, 1}, 1e-6)
//
// Check is used by model-validation tests to prove that a hand-built
// assignment is rejected without running a solver.
package core
