package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/llm-d/llm-d-meal-planner/internal/engines/common"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/metrics"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/internal/store"
)

// StatusError is recorded for runs that failed before or outside the solver.
const StatusError = "Error"

// RunRecorder persists runs. *store.Store implements it.
type RunRecorder interface {
	SaveRun(ctx context.Context, r store.Run) (string, error)
}

// Record is one finished run. Exactly one of Outcome and Err is set.
type Record struct {
	Profile string
	Backend string
	Params  optimizer.RunParams
	Outcome *optimizer.Outcome
	Err     error
}

// Status returns the status recorded for r.
func (r Record) Status() string {
	if r.Err == nil && r.Outcome != nil {
		return r.Outcome.Status
	}
	var noOpt *optimizer.NoOptimalSolutionError
	if errors.As(r.Err, &noOpt) {
		return noOpt.Status.String()
	}
	return StatusError
}

// Actuator fans run records out to the store, the metrics emitter and the
// plan cache.
type Actuator struct {
	Recorder RunRecorder
	Metrics  *metrics.Emitter
	Cache    *common.PlanCache

	now func() time.Time
}

// NewActuator returns an actuator publishing to the given sinks.
func NewActuator(recorder RunRecorder, emitter *metrics.Emitter, cache *common.PlanCache) *Actuator {
	return &Actuator{
		Recorder: recorder,
		Metrics:  emitter,
		Cache:    cache,
		now:      time.Now,
	}
}

// Publish records rec and returns the persisted run id, which is empty when
// no recorder is configured. Metrics and the cache are updated even when
// persisting fails.
func (a *Actuator) Publish(ctx context.Context, rec Record) (string, error) {
	logger := logging.FromContext(ctx)
	if rec.Outcome == nil && rec.Err == nil {
		return "", fmt.Errorf("run record for profile %q has neither outcome nor error", rec.Profile)
	}

	now := a.now()
	status := rec.Status()

	run := store.Run{
		Profile:         rec.Profile,
		Status:          status,
		Seed:            rec.Params.Seed,
		CreativityLevel: rec.Params.Refinement.CreativityLevel,
		CreatedAt:       now.UTC(),
	}
	summary := common.RunSummary{
		Profile:   rec.Profile,
		Status:    status,
		UpdatedAt: now,
	}

	if rec.Err != nil {
		run.Err = rec.Err.Error()
		summary.Err = run.Err
	} else {
		out := rec.Outcome
		encoded, err := json.Marshal(out)
		if err != nil {
			return "", fmt.Errorf("failed to encode outcome of profile %q: %w", rec.Profile, err)
		}
		run.Outcome = encoded
		run.BaseCalories = out.Base.TotalCalories()
		run.RefinedCalories = out.Refined.TotalCalories()
		run.CreativityScore = out.RefinedMetrics.Score

		summary.BaseCalories = run.BaseCalories
		summary.RefinedCalories = run.RefinedCalories
		summary.CreativityScore = run.CreativityScore
		summary.Plan = out.Refined
		summary.Warnings = out.Warnings
	}

	a.emit(rec, status, now)

	var persistErr error
	if a.Recorder != nil {
		// Runs stopped by cancellation are still recorded.
		id, err := a.Recorder.SaveRun(context.WithoutCancel(ctx), run)
		if err != nil {
			persistErr = fmt.Errorf("failed to persist run of profile %q: %w", rec.Profile, err)
		} else {
			run.ID = id
		}
	}
	summary.RunID = run.ID

	if a.Cache != nil {
		a.Cache.Set(summary)
	}

	logger.V(logging.DEBUG).Info("Published run",
		"profile", rec.Profile,
		"status", status,
		"runID", run.ID)
	return run.ID, persistErr
}

func (a *Actuator) emit(rec Record, status string, now time.Time) {
	if a.Metrics == nil {
		return
	}
	a.Metrics.ObserveRun(rec.Profile, status)
	if rec.Err != nil {
		return
	}

	out := rec.Outcome
	if out.Result != nil {
		a.Metrics.ObserveSolve(rec.Backend, status, out.Result.Elapsed)
	}
	a.Metrics.AddWarnings(rec.Profile, len(out.Warnings))
	a.Metrics.SetPlan(rec.Profile, metrics.PlanBase,
		out.Base.TotalCalories(), out.Base.TotalProteins(), out.BaseMetrics.Score)
	a.Metrics.SetPlan(rec.Profile, metrics.PlanRefined,
		out.Refined.TotalCalories(), out.Refined.TotalProteins(), out.RefinedMetrics.Score)
	a.Metrics.SetSurprises(rec.Profile, out.RefinedMetrics.SurpriseCount)
	a.Metrics.MarkSuccess(rec.Profile, now)
}
