package optimizer

import (
	"fmt"
	"strings"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/utils/foodgroup"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

// ConstraintKind is the handler a constraint dispatches to.
type ConstraintKind int

const (
	UnknownConstraint ConstraintKind = iota
	CaloriesConstraint
	FoodGroupConstraint
	NutrientConstraint
	MealBalanceConstraint
	FoodGroupCategoryConstraint
)

func (k ConstraintKind) String() string {
	switch k {
	case CaloriesConstraint:
		return "calories"
	case FoodGroupConstraint:
		return "food-group"
	case NutrientConstraint:
		return "nutrient"
	case MealBalanceConstraint:
		return "meal-balance"
	case FoodGroupCategoryConstraint:
		return "food-group-category"
	default:
		return "unknown"
	}
}

// ClassifyConstraint resolves the handler kind of c. For food-group
// constraints the group is returned as well. Attributes matching no kind
// wrap ErrUnhandledConstraintKind.
func ClassifyConstraint(c v1alpha1.Constraint, cat catalog.FoodCatalog) (ConstraintKind, v1alpha1.FoodGroup, error) {
	attr := strings.TrimSpace(c.Attribute)
	switch strings.ToLower(attr) {
	case v1alpha1.NutrientCalories:
		return CaloriesConstraint, "", nil
	case v1alpha1.AttributeMealBalance:
		return MealBalanceConstraint, "", nil
	case v1alpha1.AttributeFoodGroupCategory:
		return FoodGroupCategoryConstraint, "", nil
	case v1alpha1.AttributeDietGuideGroup:
		g, err := foodgroup.Parse(c.Name)
		if err != nil {
			return UnknownConstraint, "", fmt.Errorf("%w: constraint %q: %v", ErrInvalidConstraint, c.Name, err)
		}
		return FoodGroupConstraint, g, nil
	}
	if g, err := foodgroup.Parse(attr); err == nil {
		return FoodGroupConstraint, g, nil
	}
	if cat != nil && cat.HasAttribute(attr) {
		return NutrientConstraint, "", nil
	}
	return UnknownConstraint, "", fmt.Errorf("%w: constraint %q has attribute %q",
		ErrUnhandledConstraintKind, c.Name, c.Attribute)
}

func (m *Model) applyConstraints(constraints []v1alpha1.Constraint) error {
	for _, c := range constraints {
		if err := m.applyConstraint(c); err != nil {
			if m.opts.ConstraintPolicy == PolicyFailFast {
				return err
			}
			m.warn("constraint %q dropped: %v", c.Name, err)
		}
	}
	return nil
}

func (m *Model) applyConstraint(c v1alpha1.Constraint) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConstraint, err)
	}
	kind, group, err := ClassifyConstraint(c, m.cat)
	if err != nil {
		return err
	}
	m.logger.V(logging.TRACE).Info("Applying constraint", "name", c.Name, "kind", kind.String())

	switch kind {
	case CaloriesConstraint:
		return m.addScoped(c, func(f v1alpha1.FoodItem) (float64, bool) { return f.Calories, true })
	case NutrientConstraint:
		attr := strings.TrimSpace(c.Attribute)
		return m.addScoped(c, func(f v1alpha1.FoodItem) (float64, bool) {
			v, ok := f.Nutrient(attr)
			return v, ok && v != 0
		})
	case FoodGroupConstraint:
		if len(m.cat.ByGroup(group)) == 0 {
			m.warn("no foods found in group %q, constraint %q skipped", group, c.Name)
			return nil
		}
		return m.addScoped(c, func(f v1alpha1.FoodItem) (float64, bool) { return 1, f.Group == group })
	case FoodGroupCategoryConstraint:
		return m.addCategory(c)
	case MealBalanceConstraint:
		return m.addMealBalance(c)
	}
	return fmt.Errorf("%w: constraint %q", ErrUnhandledConstraintKind, c.Name)
}

// addScoped adds the rows lo <= Σ coef*qty <= hi for every day set of the scope.
func (m *Model) addScoped(c v1alpha1.Constraint, coef func(v1alpha1.FoodItem) (float64, bool)) error {
	lo, hi, err := c.Bounds()
	if err != nil {
		return fmt.Errorf("%w: constraint %q: %v", ErrInvalidConstraint, c.Name, err)
	}
	for _, days := range scopeDays(c.Scope) {
		name := c.Name
		if len(days) == 1 {
			name = fmt.Sprintf("%s_d%d", c.Name, days[0])
		}
		m.program.AddRange(name, m.sum(days, allMeals(), coef), lo, hi)
	}
	return nil
}

func (m *Model) addCategory(c v1alpha1.Constraint) error {
	if c.Value.Kind != v1alpha1.CategoryValue {
		return fmt.Errorf("%w: constraint %q needs a {category, amount} value", ErrInvalidConstraint, c.Name)
	}
	if c.Operator == v1alpha1.OpRange {
		return fmt.Errorf("%w: constraint %q: category constraints take >=, <= or ==", ErrInvalidConstraint, c.Name)
	}
	groups, err := foodgroup.ExpandCategory(c.Value.Category)
	if err != nil {
		return fmt.Errorf("%w: constraint %q: %v", ErrUnhandledConstraintKind, c.Name, err)
	}
	member := make(map[v1alpha1.FoodGroup]bool, len(groups))
	for _, g := range groups {
		member[g] = true
	}
	return m.addScoped(c, func(f v1alpha1.FoodItem) (float64, bool) { return 1, member[f.Group] })
}

// addMealBalance keeps every meal's calories within [min, max] of its day's
// calories: two rows per (day, meal).
func (m *Model) addMealBalance(c v1alpha1.Constraint) error {
	if c.Value.Kind != v1alpha1.RangeValue {
		return fmt.Errorf("%w: constraint %q needs a [min, max] value", ErrInvalidConstraint, c.Name)
	}
	lo, hi := c.Value.Min, c.Value.Max
	if lo < 0 || hi > 1 {
		return fmt.Errorf("%w: constraint %q: shares must lie within [0, 1], got [%v, %v]",
			ErrInvalidConstraint, c.Name, lo, hi)
	}
	calories := func(f v1alpha1.FoodItem) (float64, bool) { return f.Calories, true }

	for day := 1; day <= v1alpha1.DaysPerWeek; day++ {
		daily := m.sum([]int{day}, allMeals(), calories)
		for mi, mt := range v1alpha1.MealTypes {
			meal := m.sum([]int{day}, []int{mi}, calories)
			name := fmt.Sprintf("%s_d%d_%s", c.Name, day, mt)

			m.program.AddRow(name+"_min", meal.Clone().AddExpr(daily, -lo), core.GreaterEqual, 0)
			m.program.AddRow(name+"_max", meal.AddExpr(daily, -hi), core.LessEqual, 0)
		}
	}
	return nil
}
