package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/llm-d/llm-d-meal-planner/internal/actuator"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/controller"
	"github.com/llm-d/llm-d-meal-planner/internal/engines/common"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/metrics"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/internal/store"
)

// runtime holds the components shared by the planning commands.
type runtime struct {
	cfg     *config.Config
	store   *store.Store
	catalog *catalog.Catalog
	emitter *metrics.Emitter
	cache   *common.PlanCache
}

// newRuntime opens the store and loads the catalog, from the catalog file
// when configured and from the store otherwise.
func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{
		cfg:     cfg,
		emitter: metrics.NewEmitter(cfg.Instance),
		cache:   common.NewPlanCache(),
	}

	if cfg.DatabasePath != "" {
		st, err := store.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		rt.store = st
	}

	var src catalog.Source
	switch {
	case cfg.CatalogFile != "":
		src = catalog.NewFileSource(cfg.CatalogFile)
	case rt.store != nil:
		src = rt.store
	}
	cat, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, errors.Join(err, rt.Close())
	}
	if cat.Len() == 0 {
		return nil, errors.Join(fmt.Errorf("catalog from %s has no foods", src.Name()), rt.Close())
	}
	rt.catalog = cat
	return rt, nil
}

func (rt *runtime) optimizer() *optimizer.Optimizer {
	return optimizer.NewOptimizer(&rt.cfg.Solver, rt.cfg.Model.Options(rt.cfg.Solver.BigM))
}

func (rt *runtime) controller() *controller.BatchController {
	var recorder actuator.RunRecorder
	if rt.store != nil {
		recorder = rt.store
	}
	return &controller.BatchController{
		Planner:     rt.optimizer(),
		Publisher:   actuator.NewActuator(recorder, rt.emitter, rt.cache),
		Catalog:     rt.catalog,
		Backend:     string(rt.cfg.Solver.Backend),
		Concurrency: rt.cfg.Concurrency,
	}
}

// flushMetrics writes the metrics textfile when one is configured.
func (rt *runtime) flushMetrics(ctx context.Context) error {
	if rt.cfg.MetricsTextfile == "" {
		return nil
	}
	if err := rt.emitter.WriteTextfile(rt.cfg.MetricsTextfile); err != nil {
		return err
	}
	logging.FromContext(ctx).V(logging.DEBUG).Info("Wrote metrics textfile", "path", rt.cfg.MetricsTextfile)
	return nil
}

func (rt *runtime) Close() error {
	if rt.store == nil {
		return nil
	}
	return rt.store.Close()
}
