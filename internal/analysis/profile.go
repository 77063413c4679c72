package analysis

import (
	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// DayProfile holds the nutrition totals of one day.
type DayProfile struct {
	Day      int                            `json:"day"`
	Theme    string                         `json:"theme,omitempty"`
	Calories float64                        `json:"calories"`
	Proteins float64                        `json:"proteins"`
	Meals    map[v1alpha1.MealType]float64  `json:"meals"`
	Groups   map[v1alpha1.FoodGroup]float64 `json:"groups"`
}

// NutritionProfile holds the nutrition totals of a weekly plan.
type NutritionProfile struct {
	TotalCalories float64                        `json:"totalCalories"`
	TotalProteins float64                        `json:"totalProteins"`
	AvgCalories   float64                        `json:"avgCalories"`
	Groups        map[v1alpha1.FoodGroup]float64 `json:"groups"`
	Days          []DayProfile                   `json:"days"`
}

// Profile summarizes the calories, proteins and group servings of p.
// Meals maps each populated meal type to its calories.
func Profile(p v1alpha1.WeeklyPlan) NutritionProfile {
	out := NutritionProfile{
		TotalCalories: p.TotalCalories(),
		TotalProteins: p.TotalProteins(),
		Groups:        p.FoodGroupCounts(),
		Days:          make([]DayProfile, 0, len(p.Days)),
	}
	for _, d := range p.Days {
		dp := DayProfile{
			Day:      d.Day,
			Theme:    d.Theme,
			Calories: d.TotalCalories(),
			Proteins: d.TotalProteins(),
			Meals:    make(map[v1alpha1.MealType]float64, len(d.Meals)),
			Groups:   make(map[v1alpha1.FoodGroup]float64),
		}
		for _, m := range d.Meals {
			dp.Meals[m.Type] = m.TotalCalories()
			for _, a := range m.Assignments {
				dp.Groups[a.Group] += a.Quantity
			}
		}
		out.Days = append(out.Days, dp)
	}
	if len(p.Days) > 0 {
		out.AvgCalories = out.TotalCalories / float64(len(p.Days))
	}
	return out
}
