// Package optimizer builds and solves the weekly meal-plan program.
//
// The optimizer package turns a RequirementSet and a food catalog into a
// mixed-integer program, solves it, and hands the extracted plan to the
// creativity refiner.
//
// Architecture:
//
// The optimizer follows a pipeline pattern:
//
//	Build → Solve → Extract → Assemble → Refine
//	(Model)  (Solver) (Model)   (plan)    (creativity)
//
// Example usage:
//
//	opt := optimizer.NewOptimizer(spec, optimizer.DefaultOptions())
//
//	out, err := opt.Run(ctx, cat, reqs, optimizer.RunParams{
//	    Refinement: creativity.DefaultParams(0.5),
//	    Seed:       42,
//	})
//	if errors.Is(err, optimizer.ErrNoOptimalSolution) {
//	    log.Error(err, "no plan for these requirements")
//	    return err
//	}
//
//	log.Info("plan ready",
//	    "calories", out.Refined.TotalCalories(),
//	    "score", out.RefinedMetrics.Score)
//
// Decision Variables:
//
// For every (food, meal type, day) slot the model holds an integer serving
// quantity and a selection binary linked by qty <= BigM*used. Slots whose
// food is not suitable for the meal are fixed to zero by an equality row.
//
// Constraint Kinds:
//
//   - calories: Σ calories*qty per scope.
//   - food group (attribute naming a group, or diet_guide_group with the
//     group as name): Σ qty over the group's foods.
//   - food_group_category: Σ qty over every group of the category.
//   - meal_balance: each meal's calories within [min, max] of the day's.
//   - any numeric catalog attribute: Σ attribute*qty per scope.
//
// Objective Kinds:
//
//   - proteins, calories and catalog attributes: weighted sums, negated
//     when maximized.
//   - diversity: weighted count of selection binaries.
//   - creativity: weighted count of foods served on two consecutive days,
//     always minimized.
//
// With no usable objective the model minimizes weekly calories.
//
// Error Policies:
//
// Declarations the model cannot use are handled per Options: fail-fast
// aborts the build, best-effort drops them with a warning. Constraints
// default to fail-fast and objectives to best-effort.
//
// Any solver status other than Optimal is returned as a
// *NoOptimalSolutionError; no partial plan is produced.
package optimizer
