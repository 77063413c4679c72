package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/plan"
	"github.com/llm-d/llm-d-meal-planner/pkg/solver"
)

// ExtractEpsilon is the smallest quantity extracted from a solution.
const ExtractEpsilon = 0.001

// Solve runs s on the model and extracts the solution table. Any status
// other than Optimal is returned as a *NoOptimalSolutionError together with
// the solver result; no partial table is returned.
func (m *Model) Solve(ctx context.Context, s solver.Solver) (plan.RawSolution, *solver.Result, error) {
	logger := logging.FromContext(ctx)

	res, err := s.Solve(ctx, m.program)
	if err != nil {
		return nil, res, fmt.Errorf("%s solver failed: %w", s.Name(), err)
	}
	logger.V(logging.DEBUG).Info("Solver finished",
		"solver", s.Name(),
		"status", res.Status.String(),
		"objective", res.Objective,
		"nodes", res.Nodes,
		"elapsed", res.Elapsed.String())

	if res.Status != solver.Optimal {
		return nil, res, &NoOptimalSolutionError{Status: res.Status}
	}
	raw, err := m.Extract(res.Values)
	if err != nil {
		return nil, res, err
	}
	return raw, res, nil
}

// Extract converts variable values into one record per (day, meal, food)
// whose quantity exceeds ExtractEpsilon. Integer quantities are rounded to
// absorb solver noise.
func (m *Model) Extract(values []float64) (plan.RawSolution, error) {
	if len(values) != m.program.NumVars() {
		return nil, fmt.Errorf("expected %d values, got %d", m.program.NumVars(), len(values))
	}
	var out plan.RawSolution
	for day := 1; day <= v1alpha1.DaysPerWeek; day++ {
		for mi, meal := range v1alpha1.MealTypes {
			for fi, food := range m.foods {
				v := m.qty[m.slot(fi, mi, day)]
				q := values[v]
				if m.program.VarDef(v).Kind.IsIntegral() {
					q = math.Round(q)
				}
				if q <= ExtractEpsilon {
					continue
				}
				out = append(out, plan.RawAssignment{
					Day:             day,
					Meal:            meal,
					FoodID:          food.ID,
					Name:            food.Name,
					Quantity:        q,
					ServingCalories: food.Calories,
					ServingProteins: food.Proteins,
					Group:           food.Group,
				})
			}
		}
	}
	return out, nil
}
