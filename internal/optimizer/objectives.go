package optimizer

import (
	"fmt"
	"strings"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

// ObjectiveKind is the handler an objective dispatches to.
type ObjectiveKind int

const (
	UnknownObjective ObjectiveKind = iota
	ProteinObjective
	DiversityObjective
	CreativityObjective
	CaloriesObjective
	NutrientObjective
)

func (k ObjectiveKind) String() string {
	switch k {
	case ProteinObjective:
		return "protein"
	case DiversityObjective:
		return "diversity"
	case CreativityObjective:
		return "creativity"
	case CaloriesObjective:
		return "calories"
	case NutrientObjective:
		return "nutrient"
	default:
		return "unknown"
	}
}

// Objective attribute keys with dedicated handlers.
const (
	AttributeDiversity  = "diversity"
	AttributeCreativity = "creativity"
)

// ClassifyObjective resolves the handler kind of o. Attributes matching no
// kind wrap ErrUnhandledObjectiveKind.
func ClassifyObjective(o v1alpha1.Objective, cat catalog.FoodCatalog) (ObjectiveKind, error) {
	attr := strings.TrimSpace(o.Attribute)
	switch strings.ToLower(attr) {
	case v1alpha1.NutrientProteins, v1alpha1.NutrientProtein:
		return ProteinObjective, nil
	case AttributeDiversity:
		return DiversityObjective, nil
	case AttributeCreativity:
		return CreativityObjective, nil
	case v1alpha1.NutrientCalories:
		return CaloriesObjective, nil
	}
	if cat != nil && cat.HasAttribute(attr) {
		return NutrientObjective, nil
	}
	return UnknownObjective, fmt.Errorf("%w: objective %q has attribute %q",
		ErrUnhandledObjectiveKind, o.Name, o.Attribute)
}

// applyObjectives sums the weighted objective terms. Maximized terms are
// negated since the program minimizes. With no usable objective, total
// weekly calories are minimized.
func (m *Model) applyObjectives(objectives []v1alpha1.Objective) error {
	total := core.NewExpr()
	applied := 0
	for _, o := range objectives {
		term, err := m.objectiveTerm(o)
		if err != nil {
			if m.opts.ObjectivePolicy == PolicyFailFast {
				return err
			}
			m.warn("objective %q dropped: %v", o.Name, err)
			continue
		}
		total.AddExpr(term, 1)
		applied++
	}
	if applied == 0 {
		total = m.sum(allDays(), allMeals(), func(f v1alpha1.FoodItem) (float64, bool) { return f.Calories, true })
	}
	m.program.SetObjective(total)
	return nil
}

func (m *Model) objectiveTerm(o v1alpha1.Objective) (*core.LinExpr, error) {
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnhandledObjectiveKind, err)
	}
	kind, err := ClassifyObjective(o, m.cat)
	if err != nil {
		return nil, err
	}

	sign := 1.0
	if o.Maximize {
		sign = -1
	}
	switch kind {
	case ProteinObjective:
		return m.sum(allDays(), allMeals(), func(f v1alpha1.FoodItem) (float64, bool) {
			return sign * o.Weight * f.Proteins, true
		}), nil
	case CaloriesObjective:
		return m.sum(allDays(), allMeals(), func(f v1alpha1.FoodItem) (float64, bool) {
			return sign * o.Weight * f.Calories, true
		}), nil
	case NutrientObjective:
		attr := strings.TrimSpace(o.Attribute)
		return m.sum(allDays(), allMeals(), func(f v1alpha1.FoodItem) (float64, bool) {
			v, ok := f.Nutrient(attr)
			return sign * o.Weight * v, ok
		}), nil
	case DiversityObjective:
		e := core.NewExpr()
		for _, u := range m.used {
			e.Add(u, sign*o.Weight)
		}
		return e, nil
	case CreativityObjective:
		// Consecutive-day reuse is always minimized, whatever the flag says.
		m.addCreativityVars()
		e := core.NewExpr()
		for _, c := range m.consec {
			e.Add(c, o.Weight)
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: objective %q", ErrUnhandledObjectiveKind, o.Name)
}

func (m *Model) dayIndex(foodIdx, day int) int {
	return foodIdx*v1alpha1.DaysPerWeek + day - 1
}

// pairIndex indexes the pair (day, day+1) for day in 1..6.
func (m *Model) pairIndex(foodIdx, day int) int {
	return foodIdx*(v1alpha1.DaysPerWeek-1) + day - 1
}

// addCreativityVars adds a per-(food, day) usage binary tied to the meal
// selection binaries and a per-(food, adjacent day pair) binary that is 1
// exactly when the food is used on both days.
func (m *Model) addCreativityVars() {
	if m.dayUsed != nil {
		return
	}
	m.dayUsed = make([]core.Var, len(m.foods)*v1alpha1.DaysPerWeek)
	m.consec = make([]core.Var, len(m.foods)*(v1alpha1.DaysPerWeek-1))

	for fi, food := range m.foods {
		for day := 1; day <= v1alpha1.DaysPerWeek; day++ {
			suffix := fmt.Sprintf("%d_%d", food.ID, day)
			du := m.program.AddVar("day_used_"+suffix, core.Binary, 0, 1)
			m.dayUsed[m.dayIndex(fi, day)] = du

			upper := core.NewExpr().Add(du, 1)
			for mi := range v1alpha1.MealTypes {
				u := m.used[m.slot(fi, mi, day)]
				upper.Add(u, -1)
				m.program.AddRow(fmt.Sprintf("day_used_%s_%d", suffix, mi),
					core.NewExpr().Add(du, 1).Add(u, -1), core.GreaterEqual, 0)
			}
			m.program.AddRow("day_used_"+suffix, upper, core.LessEqual, 0)
		}
		for day := 1; day < v1alpha1.DaysPerWeek; day++ {
			suffix := fmt.Sprintf("%d_%d", food.ID, day)
			c := m.program.AddVar("consec_"+suffix, core.Binary, 0, 1)
			m.consec[m.pairIndex(fi, day)] = c

			today := m.dayUsed[m.dayIndex(fi, day)]
			tomorrow := m.dayUsed[m.dayIndex(fi, day+1)]
			m.program.AddRow("consec_both_"+suffix,
				core.NewExpr().Add(c, 1).Add(today, -1).Add(tomorrow, -1), core.GreaterEqual, -1)
			m.program.AddRow("consec_today_"+suffix,
				core.NewExpr().Add(c, 1).Add(today, -1), core.LessEqual, 0)
			m.program.AddRow("consec_tomorrow_"+suffix,
				core.NewExpr().Add(c, 1).Add(tomorrow, -1), core.LessEqual, 0)
		}
	}
}
