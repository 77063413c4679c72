package creativity

import (
	"context"
	"math"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
)

// Substitution swaps assignments for other foods of the same group and
// meal suitability, scaling the quantity to keep the slot's calories.
type Substitution struct{}

var _ Strategy = (*Substitution)(nil)

// Kind returns SubstitutionStrategy.
func (*Substitution) Kind() StrategyKind { return SubstitutionStrategy }

type assignmentRef struct {
	day  int
	meal v1alpha1.MealType
	idx  int
}

// Apply substitutes round(2 * meals * creativity) assignments sampled
// without replacement.
func (st *Substitution) Apply(ctx context.Context, s *Session) int {
	logger := logging.FromContext(ctx)

	var pool []assignmentRef
	for _, d := range s.plan.Days {
		for _, m := range d.Meals {
			for i := range m.Assignments {
				pool = append(pool, assignmentRef{day: d.Day, meal: m.Type, idx: i})
			}
		}
	}
	count := min(scaled(2*s.plan.MealCount(), s.Params.CreativityLevel), len(pool))
	if count == 0 {
		return 0
	}

	changes := 0
	for _, pi := range s.Rand.Perm(len(pool))[:count] {
		ref := pool[pi]
		orig := s.plan.Days[ref.day-1].Meal(ref.meal).Assignments[ref.idx]

		var candidates []v1alpha1.FoodItem
		for _, f := range s.Catalog.ByGroup(orig.Group) {
			if f.ID != orig.FoodID && f.SuitableFor(ref.meal) {
				candidates = append(candidates, f)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		var replacement v1alpha1.FoodItem
		if s.explore() {
			replacement = s.pick(candidates)
		} else {
			replacement = closestCalories(candidates, orig.ServingCalories)
		}
		if replacement.Calories <= minCalories {
			logger.V(logging.TRACE).Info("Skipping substitution with zero-calorie replacement",
				"day", ref.day, "meal", ref.meal, "food", replacement.ID)
			continue
		}

		qty := orig.Quantity * orig.ServingCalories / replacement.Calories
		s.Substitute(ref.day, ref.meal, ref.idx, replacement, qty)
		changes++
	}
	return changes
}

// closestCalories returns the candidate whose per-serving calories are
// nearest target; the first candidate wins ties.
func closestCalories(candidates []v1alpha1.FoodItem, target float64) v1alpha1.FoodItem {
	best := candidates[0]
	for _, f := range candidates[1:] {
		if math.Abs(f.Calories-target) < math.Abs(best.Calories-target) {
			best = f
		}
	}
	return best
}
