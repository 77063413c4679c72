package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

func food(id int, group v1alpha1.FoodGroup, cal float64) v1alpha1.FoodItem {
	return v1alpha1.FoodItem{ID: id, Name: "food", Group: group, Calories: cal, Proteins: cal / 10}
}

// repeatedPlan serves the same food at breakfast every day.
func repeatedPlan() v1alpha1.WeeklyPlan {
	p := v1alpha1.NewWeeklyPlan()
	oats := food(1, v1alpha1.GroupWholeGrains, 150)
	for i := range p.Days {
		m := p.Days[i].EnsureMeal(v1alpha1.Breakfast)
		m.Assignments = append(m.Assignments, v1alpha1.NewMealAssignment(oats, 2))
	}
	return p
}

func TestMeasureCreativity(t *testing.T) {
	tests := []struct {
		name   string
		plan   func() v1alpha1.WeeklyPlan
		expect CreativityMetrics
	}{
		{
			name: "empty plan",
			plan: v1alpha1.NewWeeklyPlan,
			expect: CreativityMetrics{
				Score: 0.25,
			},
		},
		{
			name: "one food every day",
			plan: repeatedPlan,
			expect: CreativityMetrics{
				UniqueFoods:    1,
				AvgDailyUnique: 1,
				MaxRepetition:  7,
				AvgRepetition:  7,
				Score:          (1.0 / 30) / 4,
			},
		},
		{
			name: "themes and surprises",
			plan: func() v1alpha1.WeeklyPlan {
				p := repeatedPlan()
				p.Days[0].Theme = "asian"
				m := p.Days[0].EnsureMeal(v1alpha1.Lunch)
				for id := 2; id <= 6; id++ {
					a := v1alpha1.NewMealAssignment(food(id, v1alpha1.GroupSeafood, 100), 0.25)
					a.Surprise = true
					m.Assignments = append(m.Assignments, a)
				}
				return p
			},
			expect: CreativityMetrics{
				UniqueFoods:    6,
				AvgDailyUnique: 12.0 / 7,
				MaxRepetition:  7,
				AvgRepetition:  12.0 / 6,
				HasThemes:      true,
				SurpriseCount:  5,
				Score:          (6.0/30 + 0 + 1 + 1) / 4,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeasureCreativity(tt.plan())
			assert.Equal(t, tt.expect.UniqueFoods, got.UniqueFoods)
			assert.InDelta(t, tt.expect.AvgDailyUnique, got.AvgDailyUnique, 1e-9)
			assert.Equal(t, tt.expect.MaxRepetition, got.MaxRepetition)
			assert.InDelta(t, tt.expect.AvgRepetition, got.AvgRepetition, 1e-9)
			assert.Equal(t, tt.expect.HasThemes, got.HasThemes)
			assert.Equal(t, tt.expect.SurpriseCount, got.SurpriseCount)
			assert.InDelta(t, tt.expect.Score, got.Score, 1e-9)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func TestProfile(t *testing.T) {
	p := repeatedPlan()
	m := p.Days[2].EnsureMeal(v1alpha1.Dinner)
	m.Assignments = append(m.Assignments, v1alpha1.NewMealAssignment(food(9, v1alpha1.GroupSeafood, 200), 1))

	prof := Profile(p)
	require.Len(t, prof.Days, v1alpha1.DaysPerWeek)
	assert.InDelta(t, 7*300+200, prof.TotalCalories, 1e-9)
	assert.InDelta(t, 7*30+20, prof.TotalProteins, 1e-9)
	assert.InDelta(t, (7*300+200)/7.0, prof.AvgCalories, 1e-9)
	assert.Equal(t, 14.0, prof.Groups[v1alpha1.GroupWholeGrains])
	assert.Equal(t, 1.0, prof.Groups[v1alpha1.GroupSeafood])

	day3 := prof.Days[2]
	assert.Equal(t, 3, day3.Day)
	assert.InDelta(t, 500, day3.Calories, 1e-9)
	assert.InDelta(t, 300, day3.Meals[v1alpha1.Breakfast], 1e-9)
	assert.InDelta(t, 200, day3.Meals[v1alpha1.Dinner], 1e-9)
	assert.NotContains(t, day3.Meals, v1alpha1.Lunch)
}
