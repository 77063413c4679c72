// Package creativity perturbs a solved weekly plan to add variety while
// keeping its weekly calorie total.
//
// A Refiner picks max(1, round(4 * creativity)) strategies at random, applies
// each once to a private copy of the base plan, and then rescales the copy
// when its weekly calories drift more than NutritionTolerance from the base.
// Per-day, per-group and meal balance constraints are not re-checked after
// refinement.
package creativity

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
)

// RefinementReport summarizes one refinement.
type RefinementReport struct {
	Strategies       []string    `json:"strategies"`
	Changes          int         `json:"changes"`
	Operations       []Operation `json:"operations,omitempty"`
	OriginalCalories float64     `json:"originalCalories"`
	RefinedCalories  float64     `json:"refinedCalories"`
	Rescaled         bool        `json:"rescaled"`
	ScaleFactor      float64     `json:"scaleFactor,omitempty"`
}

// Count returns the number of recorded operations of kind k.
func (r *RefinementReport) Count(k OpKind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, op := range r.Operations {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Refiner applies creativity strategies to solved plans. A Refiner is not
// safe for concurrent use since it owns its random source.
type Refiner struct {
	cat        catalog.FoodCatalog
	rng        *rand.Rand
	strategies []Strategy
}

// NewRefiner returns a refiner with every built-in strategy registered.
func NewRefiner(cat catalog.FoodCatalog, rng *rand.Rand) *Refiner {
	strategies := make([]Strategy, 0, len(StrategyKinds))
	for _, k := range StrategyKinds {
		st, err := NewStrategy(k)
		if err != nil {
			// every registered kind has a constructor
			panic(err)
		}
		strategies = append(strategies, st)
	}
	return NewRefinerWithStrategies(cat, rng, strategies...)
}

// NewRefinerWithStrategies returns a refiner restricted to the given strategies.
func NewRefinerWithStrategies(cat catalog.FoodCatalog, rng *rand.Rand, strategies ...Strategy) *Refiner {
	return &Refiner{cat: cat, rng: rng, strategies: strategies}
}

// Refine returns a refined copy of base. base is never modified.
func (r *Refiner) Refine(ctx context.Context, base v1alpha1.WeeklyPlan, params Params) (v1alpha1.WeeklyPlan, *RefinementReport, error) {
	logger := logging.FromContext(ctx)

	if err := params.Validate(); err != nil {
		return v1alpha1.WeeklyPlan{}, nil, fmt.Errorf("invalid refinement parameters: %w", err)
	}
	if err := base.Validate(); err != nil {
		return v1alpha1.WeeklyPlan{}, nil, fmt.Errorf("invalid base plan: %w", err)
	}
	if r.cat == nil || r.rng == nil {
		return v1alpha1.WeeklyPlan{}, nil, fmt.Errorf("refiner requires a catalog and a random source")
	}

	s := newSession(r.cat, r.rng, params, base)
	report := &RefinementReport{OriginalCalories: base.TotalCalories()}

	for _, st := range r.selectStrategies(params.CreativityLevel) {
		if err := ctx.Err(); err != nil {
			return v1alpha1.WeeklyPlan{}, nil, err
		}
		s.strategy = st.Kind()
		changes := st.Apply(ctx, s)
		report.Strategies = append(report.Strategies, st.Kind().String())
		report.Changes += changes
		logger.V(logging.DEBUG).Info("Applied creativity strategy", "strategy", st.Kind().String(), "changes", changes)
	}

	if params.MaintainNutrition {
		if factor, ok := reconcileFactor(report.OriginalCalories, s.plan.TotalCalories()); ok {
			s.rescale(factor)
			report.Rescaled = true
			report.ScaleFactor = factor
			logger.V(logging.DEBUG).Info("Rescaled refined plan", "factor", factor)
		}
	}

	report.Operations = s.Operations()
	report.RefinedCalories = s.plan.TotalCalories()
	return s.plan, report, nil
}

// selectStrategies samples max(1, round(len * creativity)) strategies
// without replacement, in sampled order.
func (r *Refiner) selectStrategies(creativity float64) []Strategy {
	if len(r.strategies) == 0 {
		return nil
	}
	n := min(max(1, scaled(len(r.strategies), creativity)), len(r.strategies))
	out := make([]Strategy, 0, n)
	for _, i := range r.rng.Perm(len(r.strategies))[:n] {
		out = append(out, r.strategies[i])
	}
	return out
}

// reconcileFactor returns original/current when both are positive and the
// relative deviation exceeds NutritionTolerance.
func reconcileFactor(original, current float64) (float64, bool) {
	if original <= 0 || current <= 0 {
		return 0, false
	}
	if math.Abs(current-original)/original <= NutritionTolerance {
		return 0, false
	}
	return original / current, true
}
