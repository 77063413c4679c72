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

package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterCounters(t *testing.T) {
	e := NewEmitter("")

	e.ObserveRun("default", "Optimal")
	e.ObserveRun("default", "Optimal")
	e.ObserveRun("default", "Infeasible")
	e.AddWarnings("default", 2)
	e.AddWarnings("default", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(e.runs.WithLabelValues("default", "Optimal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.runs.WithLabelValues("default", "Infeasible")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.warnings.WithLabelValues("default")))
}

func TestEmitterPlanGauges(t *testing.T) {
	e := NewEmitter("test-1")
	e.SetPlan("default", PlanBase, 14000, 700, 0.3)
	e.SetPlan("default", PlanRefined, 14100, 710, 0.6)
	e.SetSurprises("default", 4)
	e.ObserveSolve("branch-and-bound", "Optimal", 250*time.Millisecond)
	e.MarkSuccess("default", time.Unix(1700000000, 0))

	expected := `
# HELP mealplan_creativity_score Creativity score in [0, 1] of the latest plan.
# TYPE mealplan_creativity_score gauge
mealplan_creativity_score{controller_instance="test-1",plan="base",profile="default"} 0.3
mealplan_creativity_score{controller_instance="test-1",plan="refined",profile="default"} 0.6
`
	require.NoError(t, testutil.GatherAndCompare(e.Registry(), strings.NewReader(expected), "mealplan_creativity_score"))

	count, err := testutil.GatherAndCount(e.Registry(), "mealplan_weekly_calories")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 4.0, testutil.ToFloat64(e.surprises.WithLabelValues("default")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(e.lastSuccess.WithLabelValues("default")))
	assert.Equal(t, 1, testutil.CollectAndCount(e.solveTime))
}

func TestWriteText(t *testing.T) {
	e := NewEmitter("")
	e.ObserveRun("athlete", "Optimal")

	var buf bytes.Buffer
	require.NoError(t, e.WriteText(&buf))
	assert.Contains(t, buf.String(), `mealplan_runs_total{profile="athlete",status="Optimal"} 1`)
}

func TestWriteTextfile(t *testing.T) {
	e := NewEmitter("")
	e.SetSurprises("default", 3)

	path := filepath.Join(t.TempDir(), "mealplan.prom")
	require.NoError(t, e.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mealplan_surprise_additions{profile="default"} 3`)

	assert.Error(t, e.WriteTextfile(filepath.Join(t.TempDir(), "missing", "mealplan.prom")))
}
