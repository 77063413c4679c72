package creativity

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
)

var allMeals = []v1alpha1.MealType{v1alpha1.Breakfast, v1alpha1.Lunch, v1alpha1.Dinner}

func testFoods() []v1alpha1.FoodItem {
	return []v1alpha1.FoodItem{
		{ID: 1, Name: "Oatmeal", Group: v1alpha1.GroupWholeGrains, Calories: 150, Proteins: 5, Meals: allMeals},
		{ID: 2, Name: "Brown Rice", Group: v1alpha1.GroupWholeGrains, Calories: 200, Proteins: 4, Meals: allMeals},
		{ID: 3, Name: "Apple", Group: v1alpha1.GroupFruits, Calories: 95, Proteins: 0.5, Meals: allMeals},
		{ID: 4, Name: "Banana", Group: v1alpha1.GroupFruits, Calories: 105, Proteins: 1.3, Meals: allMeals},
		{ID: 5, Name: "Greek Yogurt", Group: v1alpha1.GroupDairy, Calories: 120, Proteins: 10, Meals: allMeals},
		{ID: 6, Name: "Cheddar Cheese", Group: v1alpha1.GroupDairy, Calories: 110, Proteins: 7, Meals: allMeals},
		{ID: 7, Name: "Tomato Soup", Group: v1alpha1.GroupRedOrangeVegetables, Calories: 90, Proteins: 2, Meals: []v1alpha1.MealType{v1alpha1.Lunch, v1alpha1.Dinner}},
		{ID: 8, Name: "Lemon Chicken", Group: v1alpha1.GroupMeatsPoultryEggs, Calories: 250, Proteins: 30, Meals: []v1alpha1.MealType{v1alpha1.Lunch, v1alpha1.Dinner}},
	}
}

func mustCatalog(foods []v1alpha1.FoodItem) *catalog.Catalog {
	cat, err := catalog.New(foods)
	Expect(err).NotTo(HaveOccurred())
	return cat
}

// breakfastPlan serves two portions of the first food at every breakfast.
func breakfastPlan(food v1alpha1.FoodItem) v1alpha1.WeeklyPlan {
	p := v1alpha1.NewWeeklyPlan()
	for i := range p.Days {
		m := p.Days[i].EnsureMeal(v1alpha1.Breakfast)
		m.Assignments = append(m.Assignments, v1alpha1.NewMealAssignment(food, 2))
	}
	return p
}

// fullPlan serves one food per meal on every day.
func fullPlan(cat *catalog.Catalog) v1alpha1.WeeklyPlan {
	p := v1alpha1.NewWeeklyPlan()
	for i := range p.Days {
		for _, mt := range allMeals {
			foods := cat.ByMealType(mt)
			food := foods[(i+mt.Index())%len(foods)]
			m := p.Days[i].EnsureMeal(mt)
			m.Assignments = append(m.Assignments, v1alpha1.NewMealAssignment(food, 1))
		}
	}
	return p
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var _ = Describe("Refiner", func() {
	var (
		ctx context.Context
		cat *catalog.Catalog
	)

	BeforeEach(func() {
		ctx = context.Background()
		cat = mustCatalog(testFoods())
	})

	Context("with surprise injection only", func() {
		It("adds exactly 14 surprise portions at full creativity", func() {
			base := breakfastPlan(testFoods()[0])
			r := NewRefinerWithStrategies(cat, seeded(7), &Surprise{})

			refined, report, err := r.Refine(ctx, base, Params{CreativityLevel: 1, FlavorExploration: 0})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Strategies).To(Equal([]string{"surprise"}))
			Expect(report.Count(OpAdd)).To(Equal(14))

			surprises := 0
			for _, d := range refined.Days {
				for _, m := range d.Meals {
					for _, a := range m.Assignments {
						if !a.Surprise {
							continue
						}
						surprises++
						Expect(a.Quantity).To(Equal(0.25))
						Expect(strings.HasPrefix(a.Name, v1alpha1.SurprisePrefix)).To(BeTrue())
						food, ok := cat.ByID(a.FoodID)
						Expect(ok).To(BeTrue())
						Expect(food.SuitableFor(m.Type)).To(BeTrue())
					}
				}
			}
			Expect(surprises).To(Equal(14))
			Expect(refined.AssignmentCount()).To(Equal(base.AssignmentCount() + 14))
		})

		It("never adds a food already in the meal", func() {
			base := breakfastPlan(testFoods()[0])
			r := NewRefinerWithStrategies(cat, seeded(11), &Surprise{})

			refined, _, err := r.Refine(ctx, base, Params{CreativityLevel: 1, FlavorExploration: 1})
			Expect(err).NotTo(HaveOccurred())
			for _, d := range refined.Days {
				for _, m := range d.Meals {
					seen := map[int]bool{}
					for _, a := range m.Assignments {
						Expect(seen[a.FoodID]).To(BeFalse())
						seen[a.FoodID] = true
					}
				}
			}
		})
	})

	Context("with substitution only", func() {
		It("keeps the food group of every substituted assignment", func() {
			base := fullPlan(cat)
			r := NewRefinerWithStrategies(cat, seeded(3), &Substitution{})

			_, report, err := r.Refine(ctx, base, Params{CreativityLevel: 0.5, FlavorExploration: 0.5})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Count(OpSubstitute)).To(BeNumerically(">", 0))

			for _, op := range report.Operations {
				if op.Kind != OpSubstitute {
					continue
				}
				replacement, ok := cat.ByID(op.FoodID)
				Expect(ok).To(BeTrue())
				original, ok := cat.ByID(op.ReplacedID)
				Expect(ok).To(BeTrue())
				Expect(replacement.Group).To(Equal(original.Group))
				Expect(replacement.ID).NotTo(Equal(original.ID))
				Expect(replacement.SuitableFor(op.Meal)).To(BeTrue())
			}
		})

		It("preserves slot calories on conservative swaps", func() {
			base := breakfastPlan(testFoods()[0])
			r := NewRefinerWithStrategies(cat, seeded(5), &Substitution{})

			refined, _, err := r.Refine(ctx, base, Params{CreativityLevel: 1, FlavorExploration: 0})
			Expect(err).NotTo(HaveOccurred())
			for i, d := range refined.Days {
				Expect(d.TotalCalories()).To(BeNumerically("~", base.Days[i].TotalCalories(), 1e-9))
				Expect(d.Meal(v1alpha1.Breakfast).Assignments[0].FoodID).To(Equal(2))
			}
		})
	})

	Context("with theming only", func() {
		It("shares one theme across all days when consistency is high", func() {
			base := fullPlan(cat)
			r := NewRefinerWithStrategies(cat, seeded(9), &Theming{Themes: DefaultThemes()})

			refined, report, err := r.Refine(ctx, base, Params{CreativityLevel: 1, ThemeConsistency: 0.9})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Count(OpTheme)).To(Equal(7))
			theme := refined.Days[0].Theme
			Expect(theme).NotTo(BeEmpty())
			for _, d := range refined.Days {
				Expect(d.Theme).To(Equal(theme))
			}
		})
	})

	It("keeps weekly calories within tolerance when maintaining nutrition", func() {
		base := fullPlan(cat)
		for seed := uint64(1); seed <= 20; seed++ {
			r := NewRefiner(cat, seeded(seed))
			refined, report, err := r.Refine(ctx, base, DefaultParams(1))
			Expect(err).NotTo(HaveOccurred())

			orig := base.TotalCalories()
			Expect(report.OriginalCalories).To(Equal(orig))
			Expect(refined.TotalCalories()).To(BeNumerically("~", orig, orig*NutritionTolerance+1e-6))
			if report.Rescaled {
				Expect(refined.TotalCalories()).To(BeNumerically("~", orig, 1e-6))
				Expect(report.Count(OpRescale)).To(Equal(1))
			}
		}
	})

	It("never mutates the base plan", func() {
		base := fullPlan(cat)
		snapshot := base.DeepCopy()

		_, _, err := NewRefiner(cat, seeded(42)).Refine(ctx, base, DefaultParams(1))
		Expect(err).NotTo(HaveOccurred())
		Expect(cmp.Diff(snapshot, base)).To(BeEmpty())
	})

	It("is deterministic for a given seed", func() {
		base := fullPlan(cat)

		first, r1, err := NewRefiner(cat, seeded(99)).Refine(ctx, base, DefaultParams(0.8))
		Expect(err).NotTo(HaveOccurred())
		second, r2, err := NewRefiner(cat, seeded(99)).Refine(ctx, base, DefaultParams(0.8))
		Expect(err).NotTo(HaveOccurred())

		Expect(cmp.Diff(first, second)).To(BeEmpty())
		Expect(cmp.Diff(r1, r2)).To(BeEmpty())
	})

	It("leaves the plan unchanged at zero creativity", func() {
		base := fullPlan(cat)

		refined, report, err := NewRefiner(cat, seeded(1)).Refine(ctx, base, DefaultParams(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Strategies).To(HaveLen(1))
		Expect(report.Changes).To(BeZero())
		Expect(cmp.Diff(base, refined)).To(BeEmpty())
	})

	DescribeTable("rejects invalid parameters",
		func(p Params) {
			_, _, err := NewRefiner(cat, seeded(1)).Refine(ctx, fullPlan(cat), p)
			Expect(err).To(HaveOccurred())
		},
		Entry("creativity above one", Params{CreativityLevel: 1.5}),
		Entry("negative exploration", Params{CreativityLevel: 0.5, FlavorExploration: -0.1}),
		Entry("theme consistency above one", Params{ThemeConsistency: 2}),
	)

	It("rejects a malformed base plan", func() {
		_, _, err := NewRefiner(cat, seeded(1)).Refine(ctx, v1alpha1.WeeklyPlan{}, DefaultParams(0.5))
		Expect(err).To(MatchError(ContainSubstring("invalid base plan")))
	})
})

var _ = Describe("NewStrategy", func() {
	It("builds every registered kind", func() {
		for _, k := range StrategyKinds {
			st, err := NewStrategy(k)
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Kind()).To(Equal(k))
		}
	})

	It("rejects unknown kinds", func() {
		_, err := NewStrategy(StrategyKind(42))
		Expect(err).To(HaveOccurred())
		Expect(StrategyKind(42).String()).To(Equal("StrategyKind(42)"))
	})
})

var _ = Describe("matchesAny", func() {
	It("matches keywords case-insensitively", func() {
		Expect(matchesAny("Tomato Soup", []string{"tomato"})).To(BeTrue())
		Expect(matchesAny("Greek Yogurt", []string{"tomato", "cheese"})).To(BeFalse())
	})
})
