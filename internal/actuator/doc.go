// Package actuator publishes the outcome of planning runs.
//
// The planner computes a plan and the actuator makes it visible. Each
// finished run, successful or not, is:
//
//  1. Persisted: a row in the runs table of the store, with the
//     JSON-encoded outcome of successful runs.
//  2. Measured: run counters, plan totals, the creativity score and the
//     solve time on the metrics emitter.
//  3. Cached: the latest summary per profile in the plan cache.
//
// Every sink is optional; a nil sink is skipped.
//
// # Usage Example
//
//	act := actuator.NewActuator(st, emitter, cache)
//
//	out, err := opt.Run(ctx, cat, reqs, params)
//	id, pubErr := act.Publish(ctx, actuator.Record{
//	    Profile: "default",
//	    Backend: string(spec.Backend),
//	    Params:  params,
//	    Outcome: out,
//	    Err:     err,
//	})
//
// A failed run is recorded with the solver status carried by
// *optimizer.NoOptimalSolutionError, or StatusError for any other failure.
//
// See also:
//   - internal/store: SQLite persistence
//   - internal/metrics: Prometheus collectors
//   - internal/engines/common: plan cache
package actuator
