// Package config holds the solver settings shared by the optimizer and the solver backends.
//
// SolverSpec selects a backend and bounds a solve:
//
//   - Backend: "branch-and-bound" (embedded, pure Go) or "cbc" (external binary)
//   - TimeLimit: wall-clock budget for one solve
//   - BigM: serving cap used by the quantity/used linking rows
//   - MIPGap: relative optimality gap accepted as optimal
//   - NodeLimit: branch-and-bound node budget (0 means unlimited)
//   - CBCPath: path or name of the cbc executable
//
// Example usage:
//
//	spec := config.DefaultSolverSpec()
//	spec.TimeLimit = 30 * time.Second
//	if err := spec.Validate(); err != nil {
//	    return err
//	}
//	s, err := solver.NewSolverFromSpec(spec)
//
// BigM silently caps the servings of a single food in one meal slot; raise it
// when requirements need more than ten servings of one food per meal.
package config
