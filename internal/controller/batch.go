package controller

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/actuator"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/internal/requirements"
)

// Planner plans one week. *optimizer.Optimizer implements it.
type Planner interface {
	Run(ctx context.Context, cat catalog.FoodCatalog, reqs v1alpha1.RequirementSet, params optimizer.RunParams) (*optimizer.Outcome, error)
}

// Publisher records finished runs. *actuator.Actuator implements it.
type Publisher interface {
	Publish(ctx context.Context, rec actuator.Record) (string, error)
}

// PlanRequest is one run of a batch.
type PlanRequest struct {
	Profile      string
	Requirements v1alpha1.RequirementSet
	Params       optimizer.RunParams
}

// RunResult is the result of one request. Err is the planning error; a
// failure to publish is reported by Run instead.
type RunResult struct {
	Profile string
	RunID   string
	Outcome *optimizer.Outcome
	Err     error
}

// BatchController runs plan requests concurrently.
type BatchController struct {
	Planner   Planner
	Publisher Publisher
	Catalog   catalog.FoodCatalog

	// Backend labels solve-time metrics.
	Backend string
	// Concurrency bounds the runs executing at once; values below 1 mean 1.
	Concurrency int
}

// Run executes reqs and returns their results in request order. The error
// joins every publication failure; planning failures are carried by the
// results.
func (c *BatchController) Run(ctx context.Context, reqs []PlanRequest) ([]RunResult, error) {
	logger := logging.FromContext(ctx)
	if c.Planner == nil || c.Catalog == nil {
		return nil, errors.New("batch controller requires a planner and a catalog")
	}

	results := make([]RunResult, len(reqs))
	publishErrs := make([]error, len(reqs))

	var g errgroup.Group
	g.SetLimit(max(1, c.Concurrency))
	for i, req := range reqs {
		g.Go(func() error {
			results[i], publishErrs[i] = c.runOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info("Batch finished",
		"runs", len(reqs),
		"failed", failed)
	return results, errors.Join(publishErrs...)
}

func (c *BatchController) runOne(ctx context.Context, req PlanRequest) (RunResult, error) {
	logger := logging.FromContext(ctx).WithValues("profile", req.Profile)
	ctx = logging.IntoContext(ctx, logger)

	res := RunResult{Profile: req.Profile}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res, nil
	}

	res.Outcome, res.Err = c.Planner.Run(ctx, c.Catalog, req.Requirements, req.Params)
	if res.Err != nil {
		logger.Error(res.Err, "Planning run failed")
	}

	if c.Publisher == nil {
		return res, nil
	}
	id, err := c.Publisher.Publish(ctx, actuator.Record{
		Profile: req.Profile,
		Backend: c.Backend,
		Params:  req.Params,
		Outcome: res.Outcome,
		Err:     res.Err,
	})
	res.RunID = id
	if err != nil {
		return res, fmt.Errorf("profile %s: %w", req.Profile, err)
	}
	return res, nil
}

// ProfileRequests builds one request per name from the profile
// configuration. Unknown names fall back to the default profile. seed is
// used for profiles without one.
func ProfileRequests(ctx context.Context, profiles config.ProfileConfigData, names []string, cat catalog.FoodCatalog, seed uint64) ([]PlanRequest, error) {
	out := make([]PlanRequest, 0, len(names))
	for _, name := range names {
		pc := profiles.GetProfileConfig(name)

		var (
			reqs v1alpha1.RequirementSet
			err  error
		)
		if pc.RequirementsFile != "" {
			reqs, err = requirements.LoadFile(pc.RequirementsFile)
		} else {
			reqs, err = requirements.Default(ctx, pc.Targets(), cat)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to build requirements of profile %s: %w", name, err)
		}

		out = append(out, PlanRequest{
			Profile:      name,
			Requirements: reqs,
			Params: optimizer.RunParams{
				Refinement: pc.RefinementParams(),
				Seed:       pc.SeedOrDefault(seed),
			},
		})
	}
	return out, nil
}
