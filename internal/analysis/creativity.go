package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

const (
	// UniqueFoodsTarget is the number of distinct foods that earns a full variety component.
	UniqueFoodsTarget = 30
	// SurpriseTarget is the number of surprise additions that earns a full surprise component.
	SurpriseTarget = 5
)

// CreativityMetrics describes the variety of a weekly plan.
type CreativityMetrics struct {
	UniqueFoods    int     `json:"uniqueFoods"`
	AvgDailyUnique float64 `json:"avgDailyUnique"`
	MaxRepetition  int     `json:"maxRepetition"`
	AvgRepetition  float64 `json:"avgRepetition"`
	HasThemes      bool    `json:"hasThemes"`
	SurpriseCount  int     `json:"surpriseCount"`
	Score          float64 `json:"score"`
}

// MeasureCreativity computes the creativity metrics of p. Repetition counts
// the number of assignments of each food across the week.
func MeasureCreativity(p v1alpha1.WeeklyPlan) CreativityMetrics {
	var (
		m       CreativityMetrics
		counts  = make(map[int]int)
		daily   = make([]float64, 0, len(p.Days))
		ordered []int
	)
	for _, d := range p.Days {
		seen := make(map[int]bool)
		for _, meal := range d.Meals {
			for _, a := range meal.Assignments {
				if counts[a.FoodID] == 0 {
					ordered = append(ordered, a.FoodID)
				}
				counts[a.FoodID]++
				seen[a.FoodID] = true
				if a.Surprise {
					m.SurpriseCount++
				}
			}
		}
		daily = append(daily, float64(len(seen)))
		if d.Theme != "" {
			m.HasThemes = true
		}
	}

	m.UniqueFoods = len(counts)
	if len(daily) > 0 {
		m.AvgDailyUnique = stat.Mean(daily, nil)
	}
	if len(ordered) > 0 {
		reps := make([]float64, len(ordered))
		for i, id := range ordered {
			reps[i] = float64(counts[id])
		}
		m.MaxRepetition = int(floats.Max(reps))
		m.AvgRepetition = stat.Mean(reps, nil)
	}
	m.Score = score(m)
	return m
}

func score(m CreativityMetrics) float64 {
	themes := 0.0
	if m.HasThemes {
		themes = 1
	}
	components := []float64{
		clamp(float64(m.UniqueFoods) / UniqueFoodsTarget),
		clamp(float64(v1alpha1.DaysPerWeek-m.MaxRepetition) / v1alpha1.DaysPerWeek),
		themes,
		clamp(float64(m.SurpriseCount) / SurpriseTarget),
	}
	return clamp(stat.Mean(components, nil))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
