// Package foodgroup provides utilities for resolving food groups and the
// aggregated categories built on top of them. Groups parse from their display
// names ("Whole Grains") or slugs ("whole_grains"); categories expand to a fixed
// union of groups.
package foodgroup

import (
	"errors"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

var (
	errEmptyGroup      = errors.New("food group must not be empty")
	errUnknownGroup    = errors.New("unknown food group")
	errUnknownCategory = errors.New("unknown food group category")
)

// Category is an aggregated set of food groups used by category constraints.
type Category string

const (
	// CategoryProtein covers meats, seafood, legumes and nuts/seeds/soy.
	CategoryProtein Category = "protein"
	// CategoryVegetable covers the four vegetable groups.
	CategoryVegetable Category = "vegetable"
)

var categories = map[Category][]v1alpha1.FoodGroup{
	CategoryProtein: {
		v1alpha1.GroupMeatsPoultryEggs,
		v1alpha1.GroupSeafood,
		v1alpha1.GroupBeansPeasLentils,
		v1alpha1.GroupNutsSeedsSoy,
	},
	CategoryVegetable: {
		v1alpha1.GroupDarkGreenVegetables,
		v1alpha1.GroupRedOrangeVegetables,
		v1alpha1.GroupStarchyVegetables,
		v1alpha1.GroupOtherVegetables,
	},
}

// lessCommon are the groups surprise additions favour when exploring.
var lessCommon = []v1alpha1.FoodGroup{
	v1alpha1.GroupNutsSeedsSoy,
	v1alpha1.GroupDarkGreenVegetables,
	v1alpha1.GroupSeafood,
}
