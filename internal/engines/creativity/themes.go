package creativity

import (
	"context"
	"strings"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
)

// Theme is a culinary theme: emphasized groups plus name keywords.
type Theme struct {
	Name     string
	Emphasis []v1alpha1.FoodGroup
	Keywords []string
}

// DefaultThemes returns the built-in themes.
func DefaultThemes() []Theme {
	return []Theme{
		{
			Name:     "mediterranean",
			Emphasis: []v1alpha1.FoodGroup{v1alpha1.GroupOil, v1alpha1.GroupSeafood},
			Keywords: []string{"olive", "feta", "cucumber", "tomato", "fish"},
		},
		{
			Name:     "asian",
			Emphasis: []v1alpha1.FoodGroup{v1alpha1.GroupSeafood, v1alpha1.GroupOtherVegetables},
			Keywords: []string{"rice", "soy", "ginger", "tofu", "noodle"},
		},
		{
			Name:     "mexican",
			Emphasis: []v1alpha1.FoodGroup{v1alpha1.GroupBeansPeasLentils, v1alpha1.GroupRedOrangeVegetables},
			Keywords: []string{"bean", "corn", "avocado", "tomato", "pepper"},
		},
		{
			Name:     "comfort",
			Emphasis: []v1alpha1.FoodGroup{v1alpha1.GroupWholeGrains, v1alpha1.GroupDairy},
			Keywords: []string{"cheese", "potato", "pasta", "soup", "bread"},
		},
	}
}

// FlavorCategory is one side of a flavor principle.
type FlavorCategory struct {
	Name     string
	Keywords []string
}

// FlavorPrinciple pairs two or more flavor categories.
type FlavorPrinciple struct {
	Name       string
	Categories []FlavorCategory
}

// DefaultFlavorPrinciples returns the built-in flavor principles.
func DefaultFlavorPrinciples() []FlavorPrinciple {
	acid := FlavorCategory{Name: "acid", Keywords: []string{"lemon", "vinegar", "tomato"}}
	return []FlavorPrinciple{
		{Name: "sweet_salty", Categories: []FlavorCategory{
			{Name: "sweet", Keywords: []string{"fruit", "honey", "sweet potato"}},
			{Name: "salty", Keywords: []string{"cheese", "ham", "soy sauce"}},
		}},
		{Name: "acid_fat", Categories: []FlavorCategory{
			acid,
			{Name: "fatty", Keywords: []string{"olive oil", "avocado", "cheese"}},
		}},
		{Name: "umami_acid", Categories: []FlavorCategory{
			{Name: "umami", Keywords: []string{"mushroom", "tomato", "meat"}},
			acid,
		}},
	}
}

// matchesAny reports whether the lowercase food name contains a keyword.
func matchesAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Theming labels round(7 * creativity) random days with a theme and adds
// keyword-matching foods to their meals.
type Theming struct {
	Themes []Theme
}

var _ Strategy = (*Theming)(nil)

// Kind returns ThemingStrategy.
func (*Theming) Kind() StrategyKind { return ThemingStrategy }

// Apply themes the selected days. With theme consistency above 0.7 and more
// than one day selected, all of them share one theme.
func (st *Theming) Apply(ctx context.Context, s *Session) int {
	logger := logging.FromContext(ctx)
	if len(st.Themes) == 0 {
		return 0
	}

	count := min(scaled(len(s.plan.Days), s.Params.CreativityLevel), len(s.plan.Days))
	if count == 0 {
		return 0
	}
	days := s.Rand.Perm(len(s.plan.Days))[:count]

	themes := make([]Theme, count)
	if s.Params.ThemeConsistency > SharedThemeThreshold && count > 1 {
		shared := st.Themes[s.Rand.IntN(len(st.Themes))]
		for i := range themes {
			themes[i] = shared
		}
	} else {
		for i := range themes {
			themes[i] = st.Themes[s.Rand.IntN(len(st.Themes))]
		}
	}

	changes := 0
	for i, di := range days {
		day := s.plan.Days[di].Day
		theme := themes[i]
		s.SetTheme(day, theme.Name)
		changes++

		for _, meal := range mealTypesOf(s.plan.Days[di]) {
			compatible := s.suitableAbsent(day, meal, func(f v1alpha1.FoodItem) bool {
				return matchesAny(f.Name, theme.Keywords)
			})
			if len(compatible) == 0 || !s.explore() {
				continue
			}
			if s.Add(day, meal, s.pick(compatible), themePortion, false) {
				changes++
			}
		}
		logger.V(logging.TRACE).Info("Themed day", "day", day, "theme", theme.Name)
	}
	return changes
}

// mealTypesOf returns the populated meal types of a day in order.
func mealTypesOf(d v1alpha1.DailyPlan) []v1alpha1.MealType {
	out := make([]v1alpha1.MealType, 0, len(d.Meals))
	for _, m := range d.Meals {
		out = append(out, m.Type)
	}
	return out
}

// FlavorPairing adds one food per category of a random flavor principle to
// a random meal of each day selected with probability creativity.
type FlavorPairing struct {
	Principles []FlavorPrinciple
}

var _ Strategy = (*FlavorPairing)(nil)

// Kind returns FlavorPairingStrategy.
func (*FlavorPairing) Kind() StrategyKind { return FlavorPairingStrategy }

// Apply pairs flavors day by day. A principle is applied only when every
// category has a suitable food not yet in the meal.
func (st *FlavorPairing) Apply(_ context.Context, s *Session) int {
	if len(st.Principles) == 0 {
		return 0
	}
	changes := 0
	for di := range s.plan.Days {
		if s.Rand.Float64() >= s.Params.CreativityLevel {
			continue
		}
		meals := mealTypesOf(s.plan.Days[di])
		if len(meals) == 0 {
			continue
		}
		day := s.plan.Days[di].Day
		meal := meals[s.Rand.IntN(len(meals))]
		principle := st.Principles[s.Rand.IntN(len(st.Principles))]

		options := make([][]v1alpha1.FoodItem, 0, len(principle.Categories))
		for _, c := range principle.Categories {
			foods := s.suitableAbsent(day, meal, func(f v1alpha1.FoodItem) bool {
				return matchesAny(f.Name, c.Keywords)
			})
			if len(foods) == 0 {
				break
			}
			options = append(options, foods)
		}
		if len(options) < len(principle.Categories) || !s.explore() {
			continue
		}
		for _, foods := range options {
			if s.Add(day, meal, s.pick(foods), pairingPortion, false) {
				changes++
			}
		}
	}
	return changes
}
