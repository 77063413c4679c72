package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/plan"
	"github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/core"
)

// CheckTolerance is the feasibility tolerance of Model.Check.
const CheckTolerance = 1e-6

// Options tune how requirements become a program.
type Options struct {
	// BigM is the linking constant of qty <= BigM*used. It caps every
	// (food, meal, day) slot at BigM servings regardless of nutritional need.
	BigM float64

	// ConstraintPolicy applies to constraints that cannot be modeled.
	ConstraintPolicy ErrorPolicy

	// ObjectivePolicy applies to objectives that cannot be modeled.
	ObjectivePolicy ErrorPolicy

	// StrictLinking adds used <= qty so a selection binary cannot be set
	// for an empty slot.
	StrictLinking bool
}

// DefaultOptions returns fail-fast constraints, best-effort objectives and
// the default serving cap.
func DefaultOptions() Options {
	return Options{
		BigM:             config.DefaultBigM,
		ConstraintPolicy: PolicyFailFast,
		ObjectivePolicy:  PolicyBestEffort,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.BigM == 0 {
		o.BigM = d.BigM
	}
	if o.ConstraintPolicy == "" {
		o.ConstraintPolicy = d.ConstraintPolicy
	}
	if o.ObjectivePolicy == "" {
		o.ObjectivePolicy = d.ObjectivePolicy
	}
	return o
}

// Validate checks for invalid option values.
func (o Options) Validate() error {
	if o.BigM <= 0 || math.IsInf(o.BigM, 0) || math.IsNaN(o.BigM) {
		return fmt.Errorf("bigM must be a finite value > 0, got %v", o.BigM)
	}
	if !o.ConstraintPolicy.IsValid() {
		return fmt.Errorf("unknown constraint policy %q", o.ConstraintPolicy)
	}
	if !o.ObjectivePolicy.IsValid() {
		return fmt.Errorf("unknown objective policy %q", o.ObjectivePolicy)
	}
	return nil
}

// Model is the mixed-integer program built for one catalog and requirement set.
// A Model is owned by a single run and is not safe for concurrent use.
type Model struct {
	program *core.Program
	cat     catalog.FoodCatalog
	foods   []v1alpha1.FoodItem
	foodIdx map[int]int
	opts    Options
	logger  logr.Logger

	qty  []core.Var
	used []core.Var

	// Created on first use by the creativity objective.
	dayUsed []core.Var
	consec  []core.Var

	warnings []string
}

// Build translates reqs into a program over cat. Unusable declarations are
// handled according to the policies in opts.
func Build(ctx context.Context, cat catalog.FoodCatalog, reqs v1alpha1.RequirementSet, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model options: %w", err)
	}
	if cat == nil || cat.Len() == 0 {
		return nil, errors.New("catalog is empty")
	}

	m := &Model{
		program: core.NewProgram(),
		cat:     cat,
		foods:   cat.All(),
		opts:    opts,
		logger:  logging.FromContext(ctx),
	}
	m.foodIdx = make(map[int]int, len(m.foods))
	for i, f := range m.foods {
		m.foodIdx[f.ID] = i
	}

	m.addDecisionVars()
	if err := m.applyConstraints(reqs.Constraints); err != nil {
		return nil, err
	}
	if err := m.applyObjectives(reqs.Objectives); err != nil {
		return nil, err
	}

	m.logger.V(logging.DEBUG).Info("Built optimization model",
		"foods", len(m.foods),
		"vars", m.program.NumVars(),
		"rows", m.program.NumRows(),
		"warnings", len(m.warnings))
	return m, nil
}

// slot returns the flat index of (food, meal, day); day is 1-based.
func (m *Model) slot(foodIdx, mealIdx, day int) int {
	return ((day-1)*len(v1alpha1.MealTypes)+mealIdx)*len(m.foods) + foodIdx
}

func (m *Model) addDecisionVars() {
	n := v1alpha1.DaysPerWeek * len(v1alpha1.MealTypes) * len(m.foods)
	m.qty = make([]core.Var, n)
	m.used = make([]core.Var, n)

	for day := 1; day <= v1alpha1.DaysPerWeek; day++ {
		for mi, meal := range v1alpha1.MealTypes {
			for fi, food := range m.foods {
				s := m.slot(fi, mi, day)
				suffix := fmt.Sprintf("%d_%s_%d", food.ID, meal, day)
				m.qty[s] = m.program.AddVar("qty_"+suffix, core.Integer, 0, math.Inf(1))
				m.used[s] = m.program.AddVar("used_"+suffix, core.Binary, 0, 1)

				m.program.AddRow("link_"+suffix,
					core.NewExpr().Add(m.qty[s], 1).Add(m.used[s], -m.opts.BigM),
					core.LessEqual, 0)
				if m.opts.StrictLinking {
					m.program.AddRow("strict_"+suffix,
						core.NewExpr().Add(m.used[s], 1).Add(m.qty[s], -1),
						core.LessEqual, 0)
				}
				if !food.SuitableFor(meal) {
					m.program.AddRow("suit_"+suffix, core.NewExpr().Add(m.qty[s], 1), core.Equal, 0)
				}
			}
		}
	}
}

// sum builds Σ coef(food)*qty over the given days and meal indexes. Foods for
// which coef reports false are left out.
func (m *Model) sum(days []int, meals []int, coef func(v1alpha1.FoodItem) (float64, bool)) *core.LinExpr {
	e := core.NewExpr()
	for _, day := range days {
		for _, mi := range meals {
			for fi, food := range m.foods {
				c, ok := coef(food)
				if !ok {
					continue
				}
				e.Add(m.qty[m.slot(fi, mi, day)], c)
			}
		}
	}
	return e
}

func allMeals() []int {
	out := make([]int, len(v1alpha1.MealTypes))
	for i := range out {
		out[i] = i
	}
	return out
}

func allDays() []int {
	out := make([]int, v1alpha1.DaysPerWeek)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// scopeDays returns the day sets a scope sums over: one set per day for
// daily constraints, a single seven-day set otherwise.
func scopeDays(scope v1alpha1.Scope) [][]int {
	if scope == v1alpha1.ScopeDaily {
		out := make([][]int, v1alpha1.DaysPerWeek)
		for i := range out {
			out[i] = []int{i + 1}
		}
		return out
	}
	return [][]int{allDays()}
}

func (m *Model) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	m.warnings = append(m.warnings, msg)
	m.logger.Info("Skipping declaration", "reason", msg)
}

// Program returns the built program.
func (m *Model) Program() *core.Program { return m.program }

// Warnings returns the declarations dropped or skipped during the build.
func (m *Model) Warnings() []string {
	return append([]string(nil), m.warnings...)
}

// Foods returns the foods the model ranges over, ordered by id.
func (m *Model) Foods() []v1alpha1.FoodItem {
	return append([]v1alpha1.FoodItem(nil), m.foods...)
}

// Values maps a candidate solution table onto the program's variables.
// Selection binaries are set for every positive quantity and the auxiliary
// creativity variables are derived from them.
func (m *Model) Values(raw plan.RawSolution) ([]float64, error) {
	values := make([]float64, m.program.NumVars())
	for _, r := range raw {
		fi, ok := m.foodIdx[r.FoodID]
		if !ok {
			return nil, fmt.Errorf("food %d is not in the model", r.FoodID)
		}
		mi := r.Meal.Index()
		if mi < 0 || r.Day < 1 || r.Day > v1alpha1.DaysPerWeek {
			return nil, fmt.Errorf("food %d: invalid slot day %d meal %q", r.FoodID, r.Day, r.Meal)
		}
		s := m.slot(fi, mi, r.Day)
		values[m.qty[s]] += r.Quantity
		if values[m.qty[s]] > 0 {
			values[m.used[s]] = 1
		}
	}

	if m.dayUsed != nil {
		for fi := range m.foods {
			for day := 1; day <= v1alpha1.DaysPerWeek; day++ {
				for mi := range v1alpha1.MealTypes {
					if values[m.used[m.slot(fi, mi, day)]] > 0 {
						values[m.dayUsed[m.dayIndex(fi, day)]] = 1
					}
				}
			}
			for day := 1; day < v1alpha1.DaysPerWeek; day++ {
				if values[m.dayUsed[m.dayIndex(fi, day)]] > 0 && values[m.dayUsed[m.dayIndex(fi, day+1)]] > 0 {
					values[m.consec[m.pairIndex(fi, day)]] = 1
				}
			}
		}
	}
	return values, nil
}

// Check reports the rows, bounds and integrality requirements raw violates.
func (m *Model) Check(raw plan.RawSolution) ([]core.Violation, error) {
	values, err := m.Values(raw)
	if err != nil {
		return nil, err
	}
	return m.program.Check(values, CheckTolerance), nil
}
