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
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/controller"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	pkgconfig "github.com/llm-d/llm-d-meal-planner/pkg/config"
	"github.com/llm-d/llm-d-meal-planner/pkg/solver"
)

// repoRoot is where the sample configuration paths are relative to.
var repoRoot = filepath.Join("..", "..")

var _ = Describe("Sample configuration", func() {
	const timeLimit = 30 * time.Second

	var (
		ctx context.Context
		cfg *config.Config
		cat *catalog.Catalog
	)

	BeforeEach(func() {
		ctx = context.Background()

		By("loading the sample configuration")
		var err error
		cfg, err = config.Load(filepath.Join(repoRoot, "config", "samples", "config.yaml"), "", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Solver.Backend).To(Equal(pkgconfig.BackendBranchAndBound))

		By("loading the sample catalog")
		cat, err = catalog.LoadFile(ctx, filepath.Join(repoRoot, cfg.CatalogFile))
		Expect(err).NotTo(HaveOccurred())
		Expect(cat.Len()).To(Equal(35))
	})

	It("should plan every sample profile on the embedded solver within the time limit", func() {
		for name, pc := range cfg.Profiles {
			if pc.RequirementsFile != "" {
				pc.RequirementsFile = filepath.Join(repoRoot, pc.RequirementsFile)
				cfg.Profiles[name] = pc
			}
		}
		profiles := cfg.ProfileData()
		names := profiles.Names()
		Expect(names).To(ConsistOf("adventurous", "athlete", "budget", "custom", "default"))

		reqs, err := controller.ProfileRequests(ctx, profiles, names, cat, 1)
		Expect(err).NotTo(HaveOccurred())

		spec := cfg.Solver.WithDefaults()
		spec.TimeLimit = timeLimit
		planner := optimizer.NewOptimizer(spec, cfg.Model.Options(spec.BigM))

		for _, r := range reqs {
			By("planning profile " + r.Profile)
			start := time.Now()
			out, err := planner.Run(ctx, cat, r.Requirements, r.Params)
			Expect(err).NotTo(HaveOccurred(), "profile %s", r.Profile)
			Expect(time.Since(start)).To(BeNumerically("<", timeLimit), "profile %s", r.Profile)

			Expect(out.Status).To(Equal(solver.Optimal.String()))
			Expect(out.Warnings).To(BeEmpty())
			Expect(out.Base.Days).To(HaveLen(v1alpha1.DaysPerWeek))
			for _, d := range out.Base.Days {
				Expect(d.TotalCalories()).To(BeNumerically(">", 0), "profile %s day %d", r.Profile, d.Day)
			}
		}
	})
})
