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

package e2e

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/llm-d/llm-d-meal-planner/internal/actuator"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/controller"
	"github.com/llm-d/llm-d-meal-planner/internal/engines/common"
	"github.com/llm-d/llm-d-meal-planner/internal/engines/creativity"
	"github.com/llm-d/llm-d-meal-planner/internal/metrics"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/internal/store"
	pkgconfig "github.com/llm-d/llm-d-meal-planner/pkg/config"
)

var _ = Describe("Weekly planning pipeline", Ordered, func() {
	var (
		ctx     context.Context
		st      *store.Store
		cat     *catalog.Catalog
		emitter *metrics.Emitter
		cache   *common.PlanCache
		ctrl    *controller.BatchController
	)

	BeforeAll(func() {
		ctx = context.Background()

		By("opening the database")
		var err error
		st, err = store.Open(ctx, filepath.Join(workDir, "mealplan.db"))
		Expect(err).NotTo(HaveOccurred())

		By("importing the catalog file")
		fileCat, err := catalog.LoadFile(ctx, filepath.Join(workDir, "foods.yaml"))
		Expect(err).NotTo(HaveOccurred())
		n, err := st.ImportFoods(ctx, fileCat.All())
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		By("loading the catalog back from the database")
		cat, err = catalog.Load(ctx, st)
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.Len()).To(Equal(3))

		spec := pkgconfig.DefaultSolverSpec()
		spec.TimeLimit = 30 * time.Second
		emitter = metrics.NewEmitter("e2e")
		cache = common.NewPlanCache()
		ctrl = &controller.BatchController{
			Planner:     optimizer.NewOptimizer(spec, optimizer.DefaultOptions()),
			Publisher:   actuator.NewActuator(st, emitter, cache),
			Catalog:     cat,
			Backend:     string(spec.Backend),
			Concurrency: 2,
		}
	})

	AfterAll(func() {
		if st != nil {
			Expect(st.Close()).To(Succeed())
		}
	})

	It("should plan, refine and record every profile", func() {
		requirementsFile := filepath.Join(workDir, "requirements.yaml")
		profiles := config.NormalizeProfiles(map[string]config.ProfileConfig{
			config.GlobalDefaultsKey: {RequirementsFile: requirementsFile},
			"plain":                  {CreativityLevel: ptr.To(0.0)},
			"creative":               {CreativityLevel: ptr.To(0.8), Seed: ptr.To(uint64(7))},
		})

		reqs, err := controller.ProfileRequests(ctx, profiles, []string{"plain", "creative"}, cat, 1)
		Expect(err).NotTo(HaveOccurred())

		results, err := ctrl.Run(ctx, reqs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))

		for _, r := range results {
			Expect(r.Err).NotTo(HaveOccurred(), "profile %s", r.Profile)
			Expect(r.RunID).NotTo(BeEmpty())
			Expect(r.Outcome.Status).To(Equal("Optimal"))

			By("checking the base plan of " + r.Profile)
			Expect(r.Outcome.Base.Days).To(HaveLen(7))
			for _, d := range r.Outcome.Base.Days {
				Expect(d.TotalCalories()).To(BeNumerically(">=", 280-1e-6))
				Expect(d.TotalCalories()).To(BeNumerically("<=", 320+1e-6))
			}

			By("checking the refined plan keeps the weekly calories of " + r.Profile)
			base := r.Outcome.Base.TotalCalories()
			refined := r.Outcome.Refined.TotalCalories()
			Expect(math.Abs(refined-base) / base).To(BeNumerically("<=", creativity.NutritionTolerance+1e-9))
		}

		plain := results[0].Outcome
		Expect(plain.Report).To(BeNil())
		Expect(plain.Refined.TotalCalories()).To(BeNumerically("~", plain.Base.TotalCalories(), 1e-9))

		creative := results[1].Outcome
		Expect(creative.Report).NotTo(BeNil())
		Expect(creative.Report.Strategies).NotTo(BeEmpty())
	})

	It("should persist the outcomes", func() {
		runs, err := st.ListRuns(ctx, "", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(2))

		for _, run := range runs {
			Expect(run.Status).To(Equal("Optimal"))
			Expect(run.Err).To(BeEmpty())

			var out optimizer.Outcome
			Expect(json.Unmarshal(run.Outcome, &out)).To(Succeed())
			Expect(out.Refined.TotalCalories()).To(BeNumerically("~", run.RefinedCalories, 1e-6))
		}

		creative, err := st.ListRuns(ctx, "creative", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(creative).To(HaveLen(1))
		Expect(creative[0].Seed).To(Equal(uint64(7)))
		Expect(creative[0].CreativityLevel).To(Equal(0.8))
	})

	It("should cache the latest plan of each profile", func() {
		Expect(cache.Profiles()).To(Equal([]string{"creative", "plain"}))
		summary, ok := cache.Get("creative")
		Expect(ok).To(BeTrue())
		Expect(summary.Failed()).To(BeFalse())
		Expect(summary.Plan.Days).To(HaveLen(7))
	})

	It("should record infeasible requirements without a plan", func() {
		path := filepath.Join(workDir, "infeasible.yaml")
		Expect(os.WriteFile(path, []byte(infeasibleYAML), 0o600)).To(Succeed())
		profiles := config.NormalizeProfiles(map[string]config.ProfileConfig{
			"starving": {RequirementsFile: path},
		})
		reqs, err := controller.ProfileRequests(ctx, profiles, []string{"starving"}, cat, 1)
		Expect(err).NotTo(HaveOccurred())

		results, err := ctrl.Run(ctx, reqs)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Err).To(MatchError(optimizer.ErrNoOptimalSolution))

		runs, err := st.ListRuns(ctx, "starving", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].Outcome).To(BeEmpty())
		Expect(runs[0].Err).NotTo(BeEmpty())
	})

	It("should export the metrics textfile", func() {
		path := filepath.Join(workDir, "mealplan.prom")
		Expect(emitter.WriteTextfile(path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`mealplan_runs_total{controller_instance="e2e",profile="creative",status="Optimal"} 1`))
		Expect(string(data)).To(ContainSubstring(`mealplan_weekly_calories{controller_instance="e2e",plan="refined",profile="plain"}`))
		Expect(string(data)).To(ContainSubstring("mealplan_solve_duration_seconds_count"))
	})
})

// infeasibleYAML asks for more breakfast calories than ten servings of every
// food provide.
const infeasibleYAML = `
constraints:
  - name: Breakfast Calories
    scope: daily
    attribute: calories
    operator: range
    value: [5000, 6000]
`
