package creativity

import (
	"context"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/utils/foodgroup"
)

// Surprise adds a small portion of an absent food to round(14 * creativity)
// (day, meal) slots and flags it as a surprise.
type Surprise struct{}

var _ Strategy = (*Surprise)(nil)

// Kind returns SurpriseStrategy.
func (*Surprise) Kind() StrategyKind { return SurpriseStrategy }

type mealRef struct {
	day  int
	meal v1alpha1.MealType
}

// Apply samples the slots without replacement from every (day, meal type)
// pair. Exploring picks prefer the less common groups.
func (st *Surprise) Apply(_ context.Context, s *Session) int {
	var pool []mealRef
	for _, d := range s.plan.Days {
		for _, mt := range v1alpha1.MealTypes {
			pool = append(pool, mealRef{day: d.Day, meal: mt})
		}
	}
	count := min(scaled(2*len(s.plan.Days), s.Params.CreativityLevel), len(pool))
	if count == 0 {
		return 0
	}

	changes := 0
	for _, pi := range s.Rand.Perm(len(pool))[:count] {
		ref := pool[pi]
		options := s.suitableAbsent(ref.day, ref.meal, nil)
		if len(options) == 0 {
			continue
		}

		choice := options
		if s.explore() {
			var lessCommon []v1alpha1.FoodItem
			for _, f := range options {
				if foodgroup.IsLessCommon(f.Group) {
					lessCommon = append(lessCommon, f)
				}
			}
			if len(lessCommon) > 0 {
				choice = lessCommon
			}
		}
		if s.Add(ref.day, ref.meal, s.pick(choice), surprisePortion, true) {
			changes++
		}
	}
	return changes
}
