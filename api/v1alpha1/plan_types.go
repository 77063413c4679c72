package v1alpha1

import (
	"fmt"
	"sort"
)

// SurprisePrefix marks the display name of surprise additions.
const SurprisePrefix = "Surprise "

// MealAssignment places a quantity of one food in a meal.
// Calories and Proteins are derived: Quantity times the per-serving values.
type MealAssignment struct {
	FoodID   int       `json:"foodID" yaml:"foodID"`
	Name     string    `json:"name" yaml:"name"`
	Quantity float64   `json:"quantity" yaml:"quantity"`
	Group    FoodGroup `json:"group" yaml:"group"`

	ServingCalories float64 `json:"servingCalories" yaml:"servingCalories"`
	ServingProteins float64 `json:"servingProteins" yaml:"servingProteins"`
	Calories        float64 `json:"calories" yaml:"calories"`
	Proteins        float64 `json:"proteins" yaml:"proteins"`

	// Surprise marks additions made by surprise injection.
	Surprise bool `json:"surprise,omitempty" yaml:"surprise,omitempty"`
}

// NewMealAssignment builds an assignment of qty servings of food.
func NewMealAssignment(food FoodItem, qty float64) MealAssignment {
	a := MealAssignment{
		FoodID:          food.ID,
		Name:            food.Name,
		Group:           food.Group,
		ServingCalories: food.Calories,
		ServingProteins: food.Proteins,
	}
	a.SetQuantity(qty)
	return a
}

// SetQuantity updates the quantity and the derived nutrients.
func (a *MealAssignment) SetQuantity(qty float64) {
	a.Quantity = qty
	a.Calories = qty * a.ServingCalories
	a.Proteins = qty * a.ServingProteins
}

// Meal is the set of assignments served at one meal type.
type Meal struct {
	Type        MealType         `json:"type" yaml:"type"`
	Assignments []MealAssignment `json:"assignments" yaml:"assignments"`
}

// TotalCalories sums the meal's assignments.
func (m Meal) TotalCalories() float64 {
	var total float64
	for _, a := range m.Assignments {
		total += a.Calories
	}
	return total
}

// TotalProteins sums the meal's assignments.
func (m Meal) TotalProteins() float64 {
	var total float64
	for _, a := range m.Assignments {
		total += a.Proteins
	}
	return total
}

// Contains reports whether the meal already holds foodID.
func (m Meal) Contains(foodID int) bool {
	for _, a := range m.Assignments {
		if a.FoodID == foodID {
			return true
		}
	}
	return false
}

// DailyPlan holds at most one Meal per meal type, kept in MealTypes order.
type DailyPlan struct {
	// Day is the 1-based day index.
	Day int `json:"day" yaml:"day"`

	// Theme names the culinary theme applied to the day, if any.
	Theme string `json:"theme,omitempty" yaml:"theme,omitempty"`

	Meals []Meal `json:"meals" yaml:"meals"`
}

// Meal returns the meal of type t, or nil.
func (d *DailyPlan) Meal(t MealType) *Meal {
	for i := range d.Meals {
		if d.Meals[i].Type == t {
			return &d.Meals[i]
		}
	}
	return nil
}

// EnsureMeal returns the meal of type t, inserting an empty one in order when missing.
func (d *DailyPlan) EnsureMeal(t MealType) *Meal {
	if m := d.Meal(t); m != nil {
		return m
	}
	d.Meals = append(d.Meals, Meal{Type: t})
	sort.SliceStable(d.Meals, func(i, j int) bool {
		return d.Meals[i].Type.Index() < d.Meals[j].Type.Index()
	})
	return d.Meal(t)
}

// TotalCalories sums the day's meals.
func (d DailyPlan) TotalCalories() float64 {
	var total float64
	for _, m := range d.Meals {
		total += m.TotalCalories()
	}
	return total
}

// TotalProteins sums the day's meals.
func (d DailyPlan) TotalProteins() float64 {
	var total float64
	for _, m := range d.Meals {
		total += m.TotalProteins()
	}
	return total
}

// WeeklyPlan is exactly DaysPerWeek daily plans in day order.
type WeeklyPlan struct {
	Days []DailyPlan `json:"days" yaml:"days"`
}

// NewWeeklyPlan returns a plan with seven empty days.
func NewWeeklyPlan() WeeklyPlan {
	days := make([]DailyPlan, DaysPerWeek)
	for i := range days {
		days[i].Day = i + 1
	}
	return WeeklyPlan{Days: days}
}

// TotalCalories sums all days.
func (p WeeklyPlan) TotalCalories() float64 {
	var total float64
	for _, d := range p.Days {
		total += d.TotalCalories()
	}
	return total
}

// TotalProteins sums all days.
func (p WeeklyPlan) TotalProteins() float64 {
	var total float64
	for _, d := range p.Days {
		total += d.TotalProteins()
	}
	return total
}

// FoodGroupCounts aggregates servings per food group across the week.
func (p WeeklyPlan) FoodGroupCounts() map[FoodGroup]float64 {
	counts := make(map[FoodGroup]float64)
	for _, d := range p.Days {
		for _, m := range d.Meals {
			for _, a := range m.Assignments {
				counts[a.Group] += a.Quantity
			}
		}
	}
	return counts
}

// AssignmentCount returns the number of assignments in the plan.
func (p WeeklyPlan) AssignmentCount() int {
	n := 0
	for _, d := range p.Days {
		for _, m := range d.Meals {
			n += len(m.Assignments)
		}
	}
	return n
}

// MealCount returns the number of populated meals in the plan.
func (p WeeklyPlan) MealCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Meals)
	}
	return n
}

// DeepCopy returns an independent copy of the plan.
func (p WeeklyPlan) DeepCopy() WeeklyPlan {
	out := WeeklyPlan{Days: make([]DailyPlan, len(p.Days))}
	for i, d := range p.Days {
		nd := DailyPlan{Day: d.Day, Theme: d.Theme}
		if d.Meals != nil {
			nd.Meals = make([]Meal, len(d.Meals))
			for j, m := range d.Meals {
				nm := Meal{Type: m.Type}
				if m.Assignments != nil {
					nm.Assignments = make([]MealAssignment, len(m.Assignments))
					copy(nm.Assignments, m.Assignments)
				}
				nd.Meals[j] = nm
			}
		}
		out.Days[i] = nd
	}
	return out
}

// Validate checks the structural invariants: seven days in order, at most
// one meal per type and non-negative quantities.
func (p WeeklyPlan) Validate() error {
	if len(p.Days) != DaysPerWeek {
		return fmt.Errorf("weekly plan must have %d days, got %d", DaysPerWeek, len(p.Days))
	}
	for i, d := range p.Days {
		if d.Day != i+1 {
			return fmt.Errorf("day at position %d has index %d", i+1, d.Day)
		}
		if len(d.Meals) > len(MealTypes) {
			return fmt.Errorf("day %d has %d meals, at most %d allowed", d.Day, len(d.Meals), len(MealTypes))
		}
		seen := make(map[MealType]bool, len(d.Meals))
		for _, m := range d.Meals {
			if !m.Type.IsValid() {
				return fmt.Errorf("day %d: unknown meal type %q", d.Day, m.Type)
			}
			if seen[m.Type] {
				return fmt.Errorf("day %d: duplicate meal %q", d.Day, m.Type)
			}
			seen[m.Type] = true
			for _, a := range m.Assignments {
				if a.Quantity < 0 {
					return fmt.Errorf("day %d %s: food %d has negative quantity %v", d.Day, m.Type, a.FoodID, a.Quantity)
				}
			}
		}
	}
	return nil
}

// Run outcome reasons recorded with persisted plans.
const (
	// ReasonOptimizationSucceeded indicates the solver proved optimality
	ReasonOptimizationSucceeded = "OptimizationSucceeded"
	// ReasonOptimizationFailed indicates the solver ended without an optimal solution
	ReasonOptimizationFailed = "OptimizationFailed"
	// ReasonInvalidConfiguration indicates the requirements could not be modeled
	ReasonInvalidConfiguration = "InvalidConfiguration"
)
