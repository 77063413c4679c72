package optimizer

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/analysis"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/engines/creativity"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/plan"
	"github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/solver"
)

// seedStream is the second PCG word; runs are keyed by their seed alone.
const seedStream = 0x6d65616c706c616e

// RunParams tune one run.
type RunParams struct {
	Refinement creativity.Params `mapstructure:"refinement" yaml:"refinement" json:"refinement"`
	// Seed drives every random choice of the refinement.
	Seed uint64 `mapstructure:"seed" yaml:"seed" json:"seed"`
}

// Outcome is the result of one run. Base is the solved plan and Refined its
// refined copy; with zero creativity both are equal.
type Outcome struct {
	Base           v1alpha1.WeeklyPlan          `json:"base"`
	Refined        v1alpha1.WeeklyPlan          `json:"refined"`
	BaseMetrics    analysis.CreativityMetrics   `json:"baseMetrics"`
	RefinedMetrics analysis.CreativityMetrics   `json:"refinedMetrics"`
	Profile        analysis.NutritionProfile    `json:"profile"`
	Report         *creativity.RefinementReport `json:"report,omitempty"`
	Result         *solver.Result               `json:"-"`
	Status         string                       `json:"status"`
	Warnings       []string                     `json:"warnings,omitempty"`
}

// Optimizer runs the build, solve, extract, assemble and refine pipeline.
// Every run builds its own model and solver, so one Optimizer may serve
// concurrent runs.
type Optimizer struct {
	Spec    *config.SolverSpec
	Options Options

	// NewSolver creates the solver of each run; defaults to solver.NewSolverFromSpec.
	NewSolver func(*config.SolverSpec) (solver.Solver, error)
}

// NewOptimizer returns an optimizer for spec. The model serving cap follows
// spec.BigM unless opts sets one.
func NewOptimizer(spec *config.SolverSpec, opts Options) *Optimizer {
	if spec == nil {
		spec = config.DefaultSolverSpec()
	} else {
		spec = spec.WithDefaults()
	}
	if opts.BigM == 0 {
		opts.BigM = spec.BigM
	}
	return &Optimizer{
		Spec:      spec,
		Options:   opts,
		NewSolver: solver.NewSolverFromSpec,
	}
}

// Run plans one week. Solver failures surface as *NoOptimalSolutionError;
// the caller's catalog and requirements are left untouched.
func (o *Optimizer) Run(ctx context.Context, cat catalog.FoodCatalog, reqs v1alpha1.RequirementSet, params RunParams) (*Outcome, error) {
	logger := logging.FromContext(ctx)

	if err := params.Refinement.Validate(); err != nil {
		return nil, fmt.Errorf("invalid refinement parameters: %w", err)
	}

	model, err := Build(ctx, cat, reqs, o.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	s, err := o.NewSolver(o.Spec)
	if err != nil {
		return nil, err
	}
	raw, res, err := model.Solve(ctx, s)
	if err != nil {
		return nil, err
	}

	base, err := plan.Assemble(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble plan: %w", err)
	}
	if err := plan.CheckSuitability(base, cat); err != nil {
		return nil, fmt.Errorf("solved plan is inconsistent with the catalog: %w", err)
	}

	out := &Outcome{
		Base:        base,
		BaseMetrics: analysis.MeasureCreativity(base),
		Result:      res,
		Status:      res.Status.String(),
		Warnings:    model.Warnings(),
	}

	if params.Refinement.CreativityLevel > 0 {
		rng := rand.New(rand.NewPCG(params.Seed, seedStream))
		refined, report, err := creativity.NewRefiner(cat, rng).Refine(ctx, base, params.Refinement)
		if err != nil {
			return nil, fmt.Errorf("failed to refine plan: %w", err)
		}
		out.Refined = refined
		out.Report = report
	} else {
		out.Refined = base.DeepCopy()
	}
	out.RefinedMetrics = analysis.MeasureCreativity(out.Refined)
	out.Profile = analysis.Profile(out.Refined)

	logger.Info("Planned week",
		"status", out.Status,
		"objective", res.Objective,
		"baseCalories", base.TotalCalories(),
		"refinedCalories", out.Refined.TotalCalories(),
		"creativityScore", out.RefinedMetrics.Score,
		"warnings", len(out.Warnings))
	return out, nil
}
