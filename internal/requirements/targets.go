package requirements

import (
	"fmt"
	"sort"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// Targets are the per-user nutrition amounts the default requirements are built from.
// Daily amounts apply to each day, weekly amounts to the whole week. Amounts are servings.
type Targets struct {
	DailyCalories float64 `mapstructure:"dailyCalories" yaml:"dailyCalories" json:"dailyCalories"`

	DailyVegetables     float64 `mapstructure:"dailyVegetables" yaml:"dailyVegetables" json:"dailyVegetables"`
	DailyFruits         float64 `mapstructure:"dailyFruits" yaml:"dailyFruits" json:"dailyFruits"`
	DailyWholeGrains    float64 `mapstructure:"dailyWholeGrains" yaml:"dailyWholeGrains" json:"dailyWholeGrains"`
	DailyRefinedGrains  float64 `mapstructure:"dailyRefinedGrains" yaml:"dailyRefinedGrains" json:"dailyRefinedGrains"`
	DailyDairy          float64 `mapstructure:"dailyDairy" yaml:"dailyDairy" json:"dailyDairy"`
	DailyProteinFoods   float64 `mapstructure:"dailyProteinFoods" yaml:"dailyProteinFoods" json:"dailyProteinFoods"`
	WeeklyDarkGreen     float64 `mapstructure:"weeklyDarkGreen" yaml:"weeklyDarkGreen" json:"weeklyDarkGreen"`
	WeeklyRedOrange     float64 `mapstructure:"weeklyRedOrange" yaml:"weeklyRedOrange" json:"weeklyRedOrange"`
	WeeklyStarchy       float64 `mapstructure:"weeklyStarchy" yaml:"weeklyStarchy" json:"weeklyStarchy"`
	WeeklyOtherVeg      float64 `mapstructure:"weeklyOtherVeg" yaml:"weeklyOtherVeg" json:"weeklyOtherVeg"`
	WeeklyBeans         float64 `mapstructure:"weeklyBeans" yaml:"weeklyBeans" json:"weeklyBeans"`
	WeeklyMeat          float64 `mapstructure:"weeklyMeat" yaml:"weeklyMeat" json:"weeklyMeat"`
	WeeklySeafood       float64 `mapstructure:"weeklySeafood" yaml:"weeklySeafood" json:"weeklySeafood"`
	WeeklyNutsSeedsSoy  float64 `mapstructure:"weeklyNutsSeedsSoy" yaml:"weeklyNutsSeedsSoy" json:"weeklyNutsSeedsSoy"`
	MealBalanceMin      float64 `mapstructure:"mealBalanceMin" yaml:"mealBalanceMin" json:"mealBalanceMin"`
	MealBalanceMax      float64 `mapstructure:"mealBalanceMax" yaml:"mealBalanceMax" json:"mealBalanceMax"`
	CalorieTolerancePct float64 `mapstructure:"calorieTolerancePct" yaml:"calorieTolerancePct" json:"calorieTolerancePct"`

	// Budget caps the weekly sum of the "price" attribute. Zero disables it.
	Budget float64 `mapstructure:"budget" yaml:"budget" json:"budget"`
}

const (
	// DefaultDailyCalories is used when no calorie target is given.
	DefaultDailyCalories = 2000.0
	// DefaultCalorieTolerance is the half-width of the daily calorie range.
	DefaultCalorieTolerance = 0.10
	DefaultMealBalanceMin   = 0.20
	DefaultMealBalanceMax   = 0.45
)

// DefaultTargets returns one serving of every tracked group at 2000 kcal/day.
func DefaultTargets() Targets {
	return Targets{
		DailyCalories:       DefaultDailyCalories,
		DailyVegetables:     1,
		DailyFruits:         1,
		DailyWholeGrains:    1,
		DailyRefinedGrains:  1,
		DailyDairy:          1,
		DailyProteinFoods:   1,
		WeeklyDarkGreen:     1,
		WeeklyRedOrange:     1,
		WeeklyStarchy:       1,
		WeeklyOtherVeg:      1,
		WeeklyBeans:         1,
		WeeklyMeat:          1,
		WeeklySeafood:       1,
		WeeklyNutsSeedsSoy:  1,
		MealBalanceMin:      DefaultMealBalanceMin,
		MealBalanceMax:      DefaultMealBalanceMax,
		CalorieTolerancePct: DefaultCalorieTolerance,
	}
}

// Validate checks for invalid target values.
func (t Targets) Validate() error {
	if t.DailyCalories <= 0 {
		return fmt.Errorf("dailyCalories must be > 0, got %.1f", t.DailyCalories)
	}
	if t.CalorieTolerancePct < 0 || t.CalorieTolerancePct >= 1 {
		return fmt.Errorf("calorieTolerancePct must be in [0, 1), got %.2f", t.CalorieTolerancePct)
	}
	if t.MealBalanceMin < 0 || t.MealBalanceMax > 1 || t.MealBalanceMin > t.MealBalanceMax {
		return fmt.Errorf("meal balance range [%.2f, %.2f] must lie within [0, 1] with min <= max",
			t.MealBalanceMin, t.MealBalanceMax)
	}
	for _, g := range t.groupAmounts() {
		if g.amount < 0 {
			return fmt.Errorf("%s target must be >= 0, got %.1f", g.group, g.amount)
		}
	}
	if t.Budget < 0 {
		return fmt.Errorf("budget must be >= 0, got %.2f", t.Budget)
	}
	return nil
}

type groupAmount struct {
	group  v1alpha1.FoodGroup
	scope  v1alpha1.Scope
	amount float64
}

func (t Targets) groupAmounts() []groupAmount {
	return []groupAmount{
		{v1alpha1.GroupWholeGrains, v1alpha1.ScopeDaily, t.DailyWholeGrains},
		{v1alpha1.GroupRefinedGrains, v1alpha1.ScopeDaily, t.DailyRefinedGrains},
		{v1alpha1.GroupFruits, v1alpha1.ScopeDaily, t.DailyFruits},
		{v1alpha1.GroupDairy, v1alpha1.ScopeDaily, t.DailyDairy},
		{v1alpha1.GroupDarkGreenVegetables, v1alpha1.ScopeWeekly, t.WeeklyDarkGreen},
		{v1alpha1.GroupRedOrangeVegetables, v1alpha1.ScopeWeekly, t.WeeklyRedOrange},
		{v1alpha1.GroupStarchyVegetables, v1alpha1.ScopeWeekly, t.WeeklyStarchy},
		{v1alpha1.GroupOtherVegetables, v1alpha1.ScopeWeekly, t.WeeklyOtherVeg},
		{v1alpha1.GroupBeansPeasLentils, v1alpha1.ScopeWeekly, t.WeeklyBeans},
		{v1alpha1.GroupMeatsPoultryEggs, v1alpha1.ScopeWeekly, t.WeeklyMeat},
		{v1alpha1.GroupSeafood, v1alpha1.ScopeWeekly, t.WeeklySeafood},
		{v1alpha1.GroupNutsSeedsSoy, v1alpha1.ScopeWeekly, t.WeeklyNutsSeedsSoy},
	}
}

// calorieLevels holds the USDA healthy pattern amounts per calorie level.
// Columns: vegetables, fruits, whole grains, refined grains, dairy, protein
// foods, then weekly dark green, red/orange, beans, starchy, other veg,
// meat, seafood, nuts.
var calorieLevels = map[int][14]float64{
	1000: {1.0, 1.0, 1.5, 1.5, 2.0, 2.0, 0.5, 2.5, 0.5, 2.0, 1.5, 10.0, 2.5, 2.0},
	1200: {1.5, 1.0, 2.0, 2.0, 2.5, 3.0, 1.0, 3.0, 0.5, 3.5, 2.5, 14.0, 4.0, 2.0},
	1400: {1.5, 1.5, 2.5, 2.5, 2.5, 4.0, 1.0, 3.0, 0.5, 3.5, 2.5, 19.0, 6.0, 3.0},
	1600: {2.0, 1.5, 3.0, 2.0, 3.0, 5.0, 1.5, 4.0, 1.0, 4.0, 3.5, 23.0, 8.0, 4.0},
	1800: {2.5, 1.5, 3.0, 3.0, 3.0, 5.0, 1.5, 5.5, 1.5, 5.0, 4.0, 23.0, 8.0, 4.0},
	2000: {2.5, 2.0, 3.0, 3.0, 3.0, 5.5, 1.5, 5.5, 1.5, 5.0, 4.0, 26.0, 8.0, 5.0},
	2200: {3.0, 2.0, 3.5, 3.5, 3.0, 6.0, 2.0, 6.0, 2.0, 6.0, 5.0, 28.0, 9.0, 5.0},
	2400: {3.0, 2.0, 4.0, 4.0, 3.0, 6.5, 2.0, 6.0, 2.0, 6.0, 5.0, 31.0, 10.0, 5.0},
	2600: {3.5, 2.0, 4.5, 4.5, 3.0, 6.5, 2.5, 7.0, 2.5, 7.0, 5.5, 31.0, 10.0, 5.0},
	2800: {3.5, 2.5, 5.0, 5.0, 3.0, 7.0, 2.5, 7.0, 2.5, 7.0, 5.5, 33.0, 10.0, 6.0},
	3000: {4.0, 2.5, 5.0, 5.0, 3.0, 7.0, 2.5, 7.5, 3.0, 8.0, 7.0, 33.0, 10.0, 6.0},
	3200: {4.0, 2.5, 5.0, 5.0, 3.0, 7.0, 2.5, 7.5, 3.0, 8.0, 7.0, 33.0, 10.0, 6.0},
}

// CalorieLevels returns the tabulated calorie levels in ascending order.
func CalorieLevels() []int {
	levels := make([]int, 0, len(calorieLevels))
	for l := range calorieLevels {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// TargetsForCalories returns the targets of the smallest tabulated level at
// or above dailyCalories, or of the highest level when none is. The calorie
// target itself is kept as given.
func TargetsForCalories(dailyCalories float64) Targets {
	levels := CalorieLevels()
	level := levels[len(levels)-1]
	for _, l := range levels {
		if float64(l) >= dailyCalories {
			level = l
			break
		}
	}
	row := calorieLevels[level]

	t := DefaultTargets()
	t.DailyCalories = dailyCalories
	t.DailyVegetables = row[0]
	t.DailyFruits = row[1]
	t.DailyWholeGrains = row[2]
	t.DailyRefinedGrains = row[3]
	t.DailyDairy = row[4]
	t.DailyProteinFoods = row[5]
	t.WeeklyDarkGreen = row[6]
	t.WeeklyRedOrange = row[7]
	t.WeeklyBeans = row[8]
	t.WeeklyStarchy = row[9]
	t.WeeklyOtherVeg = row[10]
	t.WeeklyMeat = row[11]
	t.WeeklySeafood = row[12]
	t.WeeklyNutsSeedsSoy = row[13]
	return t
}
