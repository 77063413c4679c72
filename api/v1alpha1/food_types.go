package v1alpha1

import (
	"fmt"
	"math"
	"strings"
)

// FoodGroup is the diet guide classification of a food.
type FoodGroup string

const (
	GroupDarkGreenVegetables FoodGroup = "Dark-Green Vegetables"
	GroupRedOrangeVegetables FoodGroup = "Red and Orange Vegetables"
	GroupStarchyVegetables   FoodGroup = "Starchy Vegetables"
	GroupOtherVegetables     FoodGroup = "Other Vegetables"
	GroupBeansPeasLentils    FoodGroup = "Beans, Peas, Lentils"
	GroupNutsSeedsSoy        FoodGroup = "Nuts, Seeds, Soy Products"
	GroupWholeGrains         FoodGroup = "Whole Grains"
	GroupRefinedGrains       FoodGroup = "Refined Grains"
	GroupMeatsPoultryEggs    FoodGroup = "Meats, Poultry, Eggs"
	GroupSeafood             FoodGroup = "Seafood"
	GroupFruits              FoodGroup = "Fruits"
	GroupDairy               FoodGroup = "Dairy"
	GroupOil                 FoodGroup = "Oil"
)

// FoodGroups lists every group in declaration order.
var FoodGroups = []FoodGroup{
	GroupDarkGreenVegetables,
	GroupRedOrangeVegetables,
	GroupStarchyVegetables,
	GroupOtherVegetables,
	GroupBeansPeasLentils,
	GroupNutsSeedsSoy,
	GroupWholeGrains,
	GroupRefinedGrains,
	GroupMeatsPoultryEggs,
	GroupSeafood,
	GroupFruits,
	GroupDairy,
	GroupOil,
}

// IsValid reports whether g is one of the enumerated groups.
func (g FoodGroup) IsValid() bool {
	for _, known := range FoodGroups {
		if g == known {
			return true
		}
	}
	return false
}

// MealType identifies one of the three daily meals.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the meals of a day in serving order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// DaysPerWeek is the planning horizon.
const DaysPerWeek = 7

// IsValid reports whether m is a known meal type.
func (m MealType) IsValid() bool {
	return m == Breakfast || m == Lunch || m == Dinner
}

// Index returns the position of m in MealTypes, or -1.
func (m MealType) Index() int {
	for i, t := range MealTypes {
		if t == m {
			return i
		}
	}
	return -1
}

// Nutrient keys resolved directly from FoodItem fields.
const (
	NutrientCalories = "calories"
	NutrientProteins = "proteins"
	NutrientProtein  = "protein"
)

// FoodItem is one catalog entry. Calories and proteins are per serving.
type FoodItem struct {
	// ID is the catalog identity of the food.
	ID int `json:"id" yaml:"id"`

	// Name is the display name; creativity keywords match against it.
	Name string `json:"name" yaml:"name"`

	// Group is the diet guide classification.
	Group FoodGroup `json:"group" yaml:"group"`

	// Calories per serving (kcal).
	Calories float64 `json:"calories" yaml:"calories"`

	// Proteins per serving (g).
	Proteins float64 `json:"proteins" yaml:"proteins"`

	// Meals lists the meal types the food is suitable for.
	Meals []MealType `json:"meals" yaml:"meals"`

	// Attributes is an open extension map for numeric attributes such as price.
	Attributes map[string]float64 `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// SuitableFor reports whether the food may be served at meal m.
func (f FoodItem) SuitableFor(m MealType) bool {
	for _, t := range f.Meals {
		if t == m {
			return true
		}
	}
	return false
}

// Nutrient resolves a per-serving numeric attribute by key.
// The second result is false when the food does not carry the attribute.
func (f FoodItem) Nutrient(key string) (float64, bool) {
	switch key {
	case NutrientCalories:
		return f.Calories, true
	case NutrientProteins, NutrientProtein:
		return f.Proteins, true
	}
	v, ok := f.Attributes[key]
	return v, ok
}

// Validate checks the food for structural errors.
func (f FoodItem) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("food %d: name must not be empty", f.ID)
	}
	if !f.Group.IsValid() {
		return fmt.Errorf("food %d (%s): unknown food group %q", f.ID, f.Name, f.Group)
	}
	if f.Calories < 0 || math.IsNaN(f.Calories) || math.IsInf(f.Calories, 0) {
		return fmt.Errorf("food %d (%s): calories must be a finite value >= 0, got %v", f.ID, f.Name, f.Calories)
	}
	if f.Proteins < 0 || math.IsNaN(f.Proteins) || math.IsInf(f.Proteins, 0) {
		return fmt.Errorf("food %d (%s): proteins must be a finite value >= 0, got %v", f.ID, f.Name, f.Proteins)
	}
	for _, m := range f.Meals {
		if !m.IsValid() {
			return fmt.Errorf("food %d (%s): unknown meal type %q", f.ID, f.Name, m)
		}
	}
	for k, v := range f.Attributes {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("food %d (%s): attribute %q must be finite", f.ID, f.Name, k)
		}
	}
	return nil
}
