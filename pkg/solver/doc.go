// Package solver implements the mixed-integer solver adapters used by the meal planner.
//
// A Solver takes a core.Program and returns a Result carrying a Status and,
// when a solution was proven optimal, one value per program variable.
//
// Key Components:
//
//   - BranchAndBound: embedded branch-and-bound over a warm-started bounded simplex
//   - CBC: external COIN-OR CBC binary driven through CPLEX LP files
//   - NewSolverFromSpec: factory selecting a backend from config.SolverSpec
//
// Embedded strategy:
//  1. Presolve: singleton rows become bounds, fixed variables are substituted,
//     variables that no row keeps from their cheapest bound are fixed there
//  2. Decompose the remaining rows into independent components
//  3. Solve each component by branch-and-bound: dive into the child nearest
//     the relaxed value of the least fractional variable, then resume from
//     the best open bound, pruning with the incumbent and the configured gap
//  4. Relaxations re-solve from the previous basis after each bound change
//     and check the context while pivoting
//
// Every Solve is bounded by the SolverSpec time limit and by the caller's context.
// A solve that stops early reports TimeLimit or NodeLimit and no values.
//
// Example usage:
//
//	s, err := solver.NewSolverFromSpec(config.DefaultSolverSpec())
//	if err != nil {
//	    return err
//	}
//	res, err := s.Solve(ctx, program)
//	if err != nil {
//	    return err
//	}
//	if res.Status != solver.Optimal {
//	    return fmt.Errorf("no optimal solution: %s", res.Status)
//	}
//
// Solvers hold no per-solve state and may be shared, but the planner builds a
// fresh one per run.
package solver
