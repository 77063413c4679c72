/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics defines the Prometheus collectors of the planner and the
// ways they are exported: a text-format dump and a node-exporter textfile.
package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "mealplan"

// Plan label values.
const (
	PlanBase    = "base"
	PlanRefined = "refined"
)

// Emitter owns a private registry with the planner's collectors. Emitter
// methods are safe for concurrent use.
type Emitter struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	calories    *prometheus.GaugeVec
	proteins    *prometheus.GaugeVec
	score       *prometheus.GaugeVec
	surprises   *prometheus.GaugeVec
	solveTime   *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewEmitter registers the collectors on a fresh registry. A non-empty
// instance is attached to every series as the controller_instance label.
func NewEmitter(instance string) *Emitter {
	var constLabels prometheus.Labels
	if instance != "" {
		constLabels = prometheus.Labels{"controller_instance": instance}
	}
	e := &Emitter{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "runs_total",
			Help:        "Planning runs by profile and final status.",
			ConstLabels: constLabels,
		}, []string{"profile", "status"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "model_warnings_total",
			Help:        "Constraints and objectives dropped while building models.",
			ConstLabels: constLabels,
		}, []string{"profile"}),
		calories: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "weekly_calories",
			Help:        "Total weekly calories of the latest plan.",
			ConstLabels: constLabels,
		}, []string{"profile", "plan"}),
		proteins: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "weekly_proteins_grams",
			Help:        "Total weekly proteins of the latest plan.",
			ConstLabels: constLabels,
		}, []string{"profile", "plan"}),
		score: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "creativity_score",
			Help:        "Creativity score in [0, 1] of the latest plan.",
			ConstLabels: constLabels,
		}, []string{"profile", "plan"}),
		surprises: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "surprise_additions",
			Help:        "Surprise additions in the latest refined plan.",
			ConstLabels: constLabels,
		}, []string{"profile"}),
		solveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "solve_duration_seconds",
			Help:        "Wall-clock time of solver invocations.",
			Buckets:     prometheus.ExponentialBuckets(0.01, 4, 8),
			ConstLabels: constLabels,
		}, []string{"backend", "status"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_success_timestamp_seconds",
			Help:        "Unix time of the latest successful run.",
			ConstLabels: constLabels,
		}, []string{"profile"}),
	}
	e.registry.MustRegister(e.runs, e.warnings, e.calories, e.proteins, e.score, e.surprises, e.solveTime, e.lastSuccess)
	return e
}

// Registry returns the registry the collectors are registered on.
func (e *Emitter) Registry() *prometheus.Registry {
	return e.registry
}

// ObserveRun counts a finished run.
func (e *Emitter) ObserveRun(profile, status string) {
	e.runs.WithLabelValues(profile, status).Inc()
}

// ObserveSolve records one solver invocation.
func (e *Emitter) ObserveSolve(backend, status string, elapsed time.Duration) {
	e.solveTime.WithLabelValues(backend, status).Observe(elapsed.Seconds())
}

// AddWarnings counts dropped declarations.
func (e *Emitter) AddWarnings(profile string, n int) {
	if n > 0 {
		e.warnings.WithLabelValues(profile).Add(float64(n))
	}
}

// SetPlan publishes the totals and creativity score of one plan.
func (e *Emitter) SetPlan(profile, plan string, calories, proteins, score float64) {
	e.calories.WithLabelValues(profile, plan).Set(calories)
	e.proteins.WithLabelValues(profile, plan).Set(proteins)
	e.score.WithLabelValues(profile, plan).Set(score)
}

// SetSurprises publishes the surprise count of the refined plan.
func (e *Emitter) SetSurprises(profile string, n int) {
	e.surprises.WithLabelValues(profile).Set(float64(n))
}

// MarkSuccess stamps the latest successful run of profile.
func (e *Emitter) MarkSuccess(profile string, at time.Time) {
	e.lastSuccess.WithLabelValues(profile).Set(float64(at.Unix()))
}

// WriteText writes every gathered family in the Prometheus text format.
func (e *Emitter) WriteText(w io.Writer) error {
	families, err := e.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile atomically writes the metrics to path for the node exporter
// textfile collector.
func (e *Emitter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
