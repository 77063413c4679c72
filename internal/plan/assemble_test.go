package plan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
)

func rawFixture() RawSolution {
	return RawSolution{
		{Day: 2, Meal: v1alpha1.Dinner, FoodID: 3, Name: "Salmon", Quantity: 1,
			ServingCalories: 200, ServingProteins: 22, Group: v1alpha1.GroupSeafood},
		{Day: 1, Meal: v1alpha1.Breakfast, FoodID: 2, Name: "Banana", Quantity: 1,
			ServingCalories: 100, ServingProteins: 1, Group: v1alpha1.GroupFruits},
		{Day: 1, Meal: v1alpha1.Breakfast, FoodID: 1, Name: "Oatmeal", Quantity: 2,
			ServingCalories: 150, ServingProteins: 5, Group: v1alpha1.GroupWholeGrains},
		{Day: 1, Meal: v1alpha1.Lunch, FoodID: 2, Name: "Banana", Quantity: 3,
			ServingCalories: 100, ServingProteins: 1, Group: v1alpha1.GroupFruits},
	}
}

func fixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]v1alpha1.FoodItem{
		{ID: 1, Name: "Oatmeal", Group: v1alpha1.GroupWholeGrains, Calories: 150, Proteins: 5,
			Meals: []v1alpha1.MealType{v1alpha1.Breakfast}},
		{ID: 2, Name: "Banana", Group: v1alpha1.GroupFruits, Calories: 100, Proteins: 1,
			Meals: []v1alpha1.MealType{v1alpha1.Breakfast, v1alpha1.Lunch}},
		{ID: 3, Name: "Salmon", Group: v1alpha1.GroupSeafood, Calories: 200, Proteins: 22,
			Meals: []v1alpha1.MealType{v1alpha1.Lunch, v1alpha1.Dinner}},
	})
	require.NoError(t, err)
	return c
}

func TestAssemble(t *testing.T) {
	p, err := Assemble(rawFixture())
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	require.Len(t, p.Days, v1alpha1.DaysPerWeek)
	assert.Len(t, p.Days[0].Meals, 2)
	assert.Len(t, p.Days[1].Meals, 1)
	assert.Empty(t, p.Days[2].Meals)

	breakfast := p.Days[0].Meal(v1alpha1.Breakfast)
	require.NotNil(t, breakfast)
	require.Len(t, breakfast.Assignments, 2)
	assert.Equal(t, 1, breakfast.Assignments[0].FoodID, "assignments are ordered by food id")
	assert.Equal(t, 300.0, breakfast.Assignments[0].Calories)
	assert.Equal(t, 400.0, breakfast.TotalCalories())

	assert.Equal(t, 900.0, p.TotalCalories())
	assert.Equal(t, 36.0, p.TotalProteins())
	assert.Equal(t, 4, p.AssignmentCount())
	assert.Equal(t, 4.0, p.FoodGroupCounts()[v1alpha1.GroupFruits])
}

func TestAssembleIsIdempotent(t *testing.T) {
	raw := rawFixture()
	first, err := Assemble(raw)
	require.NoError(t, err)
	second, err := Assemble(raw)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Assemble() not idempotent (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.TotalCalories(), second.TotalCalories())
	assert.Equal(t, first.AssignmentCount(), second.AssignmentCount())

	// The input table is not reordered.
	assert.Equal(t, 2, raw[0].Day)
}

func TestFlattenRoundTrip(t *testing.T) {
	p, err := Assemble(rawFixture())
	require.NoError(t, err)

	again, err := Assemble(Flatten(p))
	require.NoError(t, err)
	if diff := cmp.Diff(p, again); diff != "" {
		t.Errorf("Assemble(Flatten()) mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  RawAssignment
	}{
		{"day zero", RawAssignment{Day: 0, Meal: v1alpha1.Lunch, FoodID: 1, Quantity: 1}},
		{"day eight", RawAssignment{Day: 8, Meal: v1alpha1.Lunch, FoodID: 1, Quantity: 1}},
		{"unknown meal", RawAssignment{Day: 1, Meal: "supper", FoodID: 1, Quantity: 1}},
		{"negative quantity", RawAssignment{Day: 1, Meal: v1alpha1.Lunch, FoodID: 1, Quantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assemble(RawSolution{tt.rec})
			assert.Error(t, err)
		})
	}
}

func TestCheckSuitability(t *testing.T) {
	cat := fixtureCatalog(t)

	p, err := Assemble(rawFixture())
	require.NoError(t, err)
	assert.NoError(t, CheckSuitability(p, cat))

	bad := p.DeepCopy()
	m := bad.Days[3].EnsureMeal(v1alpha1.Breakfast)
	salmon, _ := cat.ByID(3)
	m.Assignments = append(m.Assignments, v1alpha1.NewMealAssignment(salmon, 1))

	err = CheckSuitability(bad, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Salmon is not suitable for breakfast")

	unknown := p.DeepCopy()
	unknown.Days[0].Meals[0].Assignments[0].FoodID = 42
	err = CheckSuitability(unknown, cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown food 42")
}
