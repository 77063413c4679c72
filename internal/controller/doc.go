// Package controller runs batches of planning requests.
//
// A BatchController turns profile configuration into plan requests, runs
// them through the optimizer with bounded concurrency, and hands every
// result to the actuator.
//
// # Run Flow
//
//  1. Resolve each profile: merge its settings over the default profile.
//  2. Build its requirements: the profile's requirements file when set,
//     otherwise the diet guide targets of its calorie level.
//  3. Run the optimizer: build, solve, assemble and refine.
//  4. Publish the outcome or the failure: store, metrics and plan cache.
//
// Runs are independent: each builds its own model and random source, so
// one failing profile does not abort the batch. Cancelling the context
// stops runs that have not started yet; they are reported with the
// context error.
//
// # Usage
//
//	ctrl := &controller.BatchController{
//	    Planner:     optimizer.NewOptimizer(&cfg.Solver, opts),
//	    Publisher:   actuator.NewActuator(st, emitter, cache),
//	    Catalog:     cat,
//	    Backend:     string(cfg.Solver.Backend),
//	    Concurrency: cfg.Concurrency,
//	}
//	reqs, err := controller.ProfileRequests(ctx, cfg.ProfileData(), names, cat, 0)
//	results, err := ctrl.Run(ctx, reqs)
//
// See also:
//   - internal/optimizer: the planning pipeline
//   - internal/actuator: outcome publication
//   - internal/config: profile configuration
package controller
