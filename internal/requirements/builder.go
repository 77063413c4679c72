package requirements

import (
	"context"
	"fmt"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/utils/foodgroup"
)

// Attribute keys of the default objectives.
const (
	ObjectiveDiversity  = "diversity"
	ObjectiveCreativity = "creativity"
	ObjectiveProtein    = "proteins"

	// AttributePrice is the extension attribute the budget constraint sums.
	AttributePrice = "price"
)

// Default builds the standard requirement set for t: a daily calorie range,
// per-group serving minimums, meal balance, daily vegetable and protein
// categories, and the diversity and creativity objectives. The budget
// constraint is added only when the catalog carries prices.
func Default(ctx context.Context, t Targets, cat catalog.FoodCatalog) (v1alpha1.RequirementSet, error) {
	logger := logging.FromContext(ctx)

	if err := t.Validate(); err != nil {
		return v1alpha1.RequirementSet{}, fmt.Errorf("invalid targets: %w", err)
	}

	var reqs v1alpha1.RequirementSet
	reqs.AddConstraint(v1alpha1.Constraint{
		Name:      "Daily Calories",
		Scope:     v1alpha1.ScopeDaily,
		Attribute: v1alpha1.NutrientCalories,
		Operator:  v1alpha1.OpRange,
		Value: v1alpha1.Range(
			t.DailyCalories*(1-t.CalorieTolerancePct),
			t.DailyCalories*(1+t.CalorieTolerancePct)),
	})

	for _, g := range t.groupAmounts() {
		if g.amount <= 0 {
			continue
		}
		reqs.AddConstraint(v1alpha1.Constraint{
			Name:      string(g.group),
			Scope:     g.scope,
			Attribute: v1alpha1.AttributeDietGuideGroup,
			Operator:  v1alpha1.OpGreaterEqual,
			Value:     v1alpha1.Scalar(g.amount),
			Weight:    1,
		})
	}

	reqs.AddConstraint(v1alpha1.Constraint{
		Name:      "Meal Calorie Balance",
		Scope:     v1alpha1.ScopeDaily,
		Attribute: v1alpha1.AttributeMealBalance,
		Operator:  v1alpha1.OpRange,
		Value:     v1alpha1.Range(t.MealBalanceMin, t.MealBalanceMax),
		Weight:    1,
	})

	for _, c := range []struct {
		name     string
		category foodgroup.Category
		amount   float64
	}{
		{"Daily Vegetables", foodgroup.CategoryVegetable, t.DailyVegetables},
		{"Daily Protein Foods", foodgroup.CategoryProtein, t.DailyProteinFoods},
	} {
		if c.amount <= 0 {
			continue
		}
		reqs.AddConstraint(v1alpha1.Constraint{
			Name:      c.name,
			Scope:     v1alpha1.ScopeDaily,
			Attribute: v1alpha1.AttributeFoodGroupCategory,
			Operator:  v1alpha1.OpGreaterEqual,
			Value:     v1alpha1.CategoryAmount(string(c.category), c.amount),
			Weight:    1,
		})
	}

	if t.Budget > 0 {
		if cat != nil && cat.HasAttribute(AttributePrice) {
			reqs.AddConstraint(Budget(t.Budget))
		} else {
			logger.Info("Budget requested but the catalog has no prices, skipping", "budget", t.Budget)
		}
	}

	for _, o := range DefaultObjectives() {
		reqs.AddObjective(o)
	}

	logger.V(logging.DEBUG).Info("Built default requirements",
		"constraints", len(reqs.Constraints),
		"objectives", len(reqs.Objectives))
	return reqs, nil
}

// DefaultObjectives returns maximize-diversity (weight 1) and creativity (weight 0.5).
func DefaultObjectives() []v1alpha1.Objective {
	return []v1alpha1.Objective{
		{Name: "Maximize Diversity", Attribute: ObjectiveDiversity, Maximize: true, Weight: 1.0},
		{Name: "Enhance Creativity", Attribute: ObjectiveCreativity, Maximize: true, Weight: 0.5},
	}
}

// Budget caps the weekly total price.
func Budget(limit float64) v1alpha1.Constraint {
	return v1alpha1.Constraint{
		Name:      "Weekly Budget",
		Scope:     v1alpha1.ScopeWeekly,
		Attribute: AttributePrice,
		Operator:  v1alpha1.OpLessEqual,
		Value:     v1alpha1.Scalar(limit),
		Weight:    1,
	}
}
