// Package plan converts solver output into WeeklyPlan trees and checks plans
// against the catalog.
package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
)

// RawAssignment is one extracted (day, meal, food) quantity.
type RawAssignment struct {
	Day             int                `json:"day"`
	Meal            v1alpha1.MealType  `json:"meal"`
	FoodID          int                `json:"foodID"`
	Name            string             `json:"name"`
	Quantity        float64            `json:"quantity"`
	ServingCalories float64            `json:"servingCalories"`
	ServingProteins float64            `json:"servingProteins"`
	Group           v1alpha1.FoodGroup `json:"group"`
}

// RawSolution is the flat table produced by solution extraction.
type RawSolution []RawAssignment

// Assemble builds a fresh WeeklyPlan from raw. Records are placed in day,
// meal and food id order; meals without records are left out.
func Assemble(raw RawSolution) (v1alpha1.WeeklyPlan, error) {
	rows := append(RawSolution(nil), raw...)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Meal != b.Meal {
			return a.Meal.Index() < b.Meal.Index()
		}
		return a.FoodID < b.FoodID
	})

	p := v1alpha1.NewWeeklyPlan()
	for _, r := range rows {
		if r.Day < 1 || r.Day > v1alpha1.DaysPerWeek {
			return v1alpha1.WeeklyPlan{}, fmt.Errorf("food %d: day %d out of range", r.FoodID, r.Day)
		}
		if !r.Meal.IsValid() {
			return v1alpha1.WeeklyPlan{}, fmt.Errorf("food %d: unknown meal type %q", r.FoodID, r.Meal)
		}
		if r.Quantity < 0 {
			return v1alpha1.WeeklyPlan{}, fmt.Errorf("food %d: negative quantity %v", r.FoodID, r.Quantity)
		}
		a := v1alpha1.MealAssignment{
			FoodID:          r.FoodID,
			Name:            r.Name,
			Group:           r.Group,
			ServingCalories: r.ServingCalories,
			ServingProteins: r.ServingProteins,
		}
		a.SetQuantity(r.Quantity)

		m := p.Days[r.Day-1].EnsureMeal(r.Meal)
		m.Assignments = append(m.Assignments, a)
	}
	return p, nil
}

// Flatten is the inverse of Assemble.
func Flatten(p v1alpha1.WeeklyPlan) RawSolution {
	var out RawSolution
	for _, d := range p.Days {
		for _, m := range d.Meals {
			for _, a := range m.Assignments {
				out = append(out, RawAssignment{
					Day:             d.Day,
					Meal:            m.Type,
					FoodID:          a.FoodID,
					Name:            a.Name,
					Quantity:        a.Quantity,
					ServingCalories: a.ServingCalories,
					ServingProteins: a.ServingProteins,
					Group:           a.Group,
				})
			}
		}
	}
	return out
}

// CheckSuitability verifies that every assignment names a catalog food served
// at a meal it is suitable for, and that the group copy matches the catalog.
// All violations are joined into the returned error.
func CheckSuitability(p v1alpha1.WeeklyPlan, cat catalog.FoodCatalog) error {
	var errs []error
	if err := p.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, d := range p.Days {
		for _, m := range d.Meals {
			for _, a := range m.Assignments {
				food, ok := cat.ByID(a.FoodID)
				switch {
				case !ok:
					errs = append(errs, fmt.Errorf("day %d %s: unknown food %d", d.Day, m.Type, a.FoodID))
				case !food.SuitableFor(m.Type):
					errs = append(errs, fmt.Errorf("day %d %s: %s is not suitable for %s", d.Day, m.Type, food.Name, m.Type))
				case food.Group != a.Group:
					errs = append(errs, fmt.Errorf("day %d %s: %s group %q does not match catalog group %q",
						d.Day, m.Type, food.Name, a.Group, food.Group))
				}
			}
		}
	}
	return errors.Join(errs...)
}
