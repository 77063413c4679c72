package creativity

import (
	"math/rand/v2"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
)

// OpKind is the type of a recorded plan edit.
type OpKind string

const (
	OpSubstitute OpKind = "substitute"
	OpAdd        OpKind = "add"
	OpTheme      OpKind = "theme"
	OpRescale    OpKind = "rescale"
)

// Operation records one edit applied to the working plan.
type Operation struct {
	Kind     OpKind            `json:"kind"`
	Strategy string            `json:"strategy,omitempty"`
	Day      int               `json:"day,omitempty"`
	Meal     v1alpha1.MealType `json:"meal,omitempty"`
	FoodID   int               `json:"foodID,omitempty"`
	// ReplacedID is the food removed by a substitution.
	ReplacedID int     `json:"replacedID,omitempty"`
	Quantity   float64 `json:"quantity,omitempty"`
	// Detail holds the theme name or the rescale factor description.
	Detail string `json:"detail,omitempty"`
}

// Session is the mutable working state of one refinement: a private copy of
// the base plan plus the log of operations applied to it.
type Session struct {
	Catalog catalog.FoodCatalog
	Rand    *rand.Rand
	Params  Params

	plan     v1alpha1.WeeklyPlan
	ops      []Operation
	strategy StrategyKind
}

func newSession(cat catalog.FoodCatalog, rng *rand.Rand, params Params, base v1alpha1.WeeklyPlan) *Session {
	return &Session{
		Catalog: cat,
		Rand:    rng,
		Params:  params,
		plan:    base.DeepCopy(),
	}
}

// Plan returns the working plan. Strategies read it to build candidate pools;
// edits go through Substitute, Add and SetTheme.
func (s *Session) Plan() *v1alpha1.WeeklyPlan {
	return &s.plan
}

// Operations returns the edits recorded so far.
func (s *Session) Operations() []Operation {
	return append([]Operation(nil), s.ops...)
}

func (s *Session) record(op Operation) {
	op.Strategy = s.strategy.String()
	s.ops = append(s.ops, op)
}

// Substitute replaces assignment idx of the meal with qty servings of food.
func (s *Session) Substitute(day int, meal v1alpha1.MealType, idx int, food v1alpha1.FoodItem, qty float64) {
	m := s.plan.Days[day-1].Meal(meal)
	if m == nil || idx < 0 || idx >= len(m.Assignments) {
		return
	}
	replaced := m.Assignments[idx].FoodID
	m.Assignments[idx] = v1alpha1.NewMealAssignment(food, qty)
	s.record(Operation{Kind: OpSubstitute, Day: day, Meal: meal, FoodID: food.ID, ReplacedID: replaced, Quantity: qty})
}

// Add appends qty servings of food to the meal, creating the meal when
// needed. It reports false without changes when the meal already holds food.
func (s *Session) Add(day int, meal v1alpha1.MealType, food v1alpha1.FoodItem, qty float64, surprise bool) bool {
	m := s.plan.Days[day-1].EnsureMeal(meal)
	if m.Contains(food.ID) {
		return false
	}
	a := v1alpha1.NewMealAssignment(food, qty)
	if surprise {
		a.Name = v1alpha1.SurprisePrefix + food.Name
		a.Surprise = true
	}
	m.Assignments = append(m.Assignments, a)
	s.record(Operation{Kind: OpAdd, Day: day, Meal: meal, FoodID: food.ID, Quantity: qty})
	return true
}

// SetTheme labels a day with a theme.
func (s *Session) SetTheme(day int, theme string) {
	s.plan.Days[day-1].Theme = theme
	s.record(Operation{Kind: OpTheme, Day: day, Detail: theme})
}

// rescale multiplies every quantity by factor, updating derived nutrients.
func (s *Session) rescale(factor float64) {
	for d := range s.plan.Days {
		for mi := range s.plan.Days[d].Meals {
			as := s.plan.Days[d].Meals[mi].Assignments
			for i := range as {
				as[i].SetQuantity(as[i].Quantity * factor)
			}
		}
	}
	s.ops = append(s.ops, Operation{Kind: OpRescale, Quantity: factor})
}

// suitableAbsent returns the catalog foods suitable for meal that the meal
// does not hold yet, optionally filtered by keep.
func (s *Session) suitableAbsent(day int, meal v1alpha1.MealType, keep func(v1alpha1.FoodItem) bool) []v1alpha1.FoodItem {
	current := s.plan.Days[day-1].Meal(meal)
	var out []v1alpha1.FoodItem
	for _, f := range s.Catalog.ByMealType(meal) {
		if current != nil && current.Contains(f.ID) {
			continue
		}
		if keep != nil && !keep(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// explore rolls the flavor-exploration die.
func (s *Session) explore() bool {
	return s.Rand.Float64() < s.Params.FlavorExploration
}

func (s *Session) pick(foods []v1alpha1.FoodItem) v1alpha1.FoodItem {
	return foods[s.Rand.IntN(len(foods))]
}
