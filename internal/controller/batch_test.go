package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/utils/ptr"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/actuator"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/pkg/solver"
)

const failingSeed = 13

type stubPlanner struct {
	inflight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
	delay    time.Duration
}

func (p *stubPlanner) Run(ctx context.Context, _ catalog.FoodCatalog, _ v1alpha1.RequirementSet, params optimizer.RunParams) (*optimizer.Outcome, error) {
	p.calls.Add(1)
	n := p.inflight.Add(1)
	defer p.inflight.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(p.delay)

	if params.Seed == failingSeed {
		return nil, &optimizer.NoOptimalSolutionError{Status: solver.Infeasible}
	}
	return &optimizer.Outcome{Status: solver.Optimal.String()}, nil
}

type stubPublisher struct {
	mu      sync.Mutex
	records []actuator.Record
	failFor string
}

func (p *stubPublisher) Publish(_ context.Context, rec actuator.Record) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rec.Profile == p.failFor {
		return "", errors.New("store unavailable")
	}
	p.records = append(p.records, rec)
	return "run-" + rec.Profile, nil
}

func testCatalog() *catalog.Catalog {
	cat, err := catalog.New([]v1alpha1.FoodItem{{
		ID: 1, Name: "Oatmeal", Group: v1alpha1.GroupWholeGrains,
		Calories: 150, Proteins: 5, Meals: []v1alpha1.MealType{v1alpha1.Breakfast},
	}})
	Expect(err).NotTo(HaveOccurred())
	return cat
}

func requestsFor(profiles ...string) []PlanRequest {
	out := make([]PlanRequest, 0, len(profiles))
	for i, p := range profiles {
		out = append(out, PlanRequest{Profile: p, Params: optimizer.RunParams{Seed: uint64(i + 1)}})
	}
	return out
}

var _ = Describe("BatchController", func() {
	var (
		ctx       context.Context
		planner   *stubPlanner
		publisher *stubPublisher
		ctrl      *BatchController
	)

	BeforeEach(func() {
		ctx = context.Background()
		planner = &stubPlanner{delay: 10 * time.Millisecond}
		publisher = &stubPublisher{}
		ctrl = &BatchController{
			Planner:     planner,
			Publisher:   publisher,
			Catalog:     testCatalog(),
			Backend:     "branch-and-bound",
			Concurrency: 2,
		}
	})

	It("should run every request and keep request order", func() {
		results, err := ctrl.Run(ctx, requestsFor("a", "b", "c", "d", "e"))
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(5))
		for i, name := range []string{"a", "b", "c", "d", "e"} {
			Expect(results[i].Profile).To(Equal(name))
			Expect(results[i].RunID).To(Equal("run-" + name))
			Expect(results[i].Err).NotTo(HaveOccurred())
			Expect(results[i].Outcome).NotTo(BeNil())
		}
		Expect(publisher.records).To(HaveLen(5))
	})

	It("should bound the runs executing at once", func() {
		_, err := ctrl.Run(ctx, requestsFor("a", "b", "c", "d", "e", "f"))
		Expect(err).NotTo(HaveOccurred())
		Expect(planner.peak.Load()).To(BeNumerically("<=", 2))
		Expect(planner.calls.Load()).To(Equal(int32(6)))
	})

	It("should treat a concurrency below one as sequential", func() {
		ctrl.Concurrency = 0
		_, err := ctrl.Run(ctx, requestsFor("a", "b", "c"))
		Expect(err).NotTo(HaveOccurred())
		Expect(planner.peak.Load()).To(Equal(int32(1)))
	})

	It("should keep going when one run fails", func() {
		reqs := requestsFor("a", "b", "c")
		reqs[1].Params.Seed = failingSeed

		results, err := ctrl.Run(ctx, reqs)
		Expect(err).NotTo(HaveOccurred())
		Expect(errors.Is(results[1].Err, optimizer.ErrNoOptimalSolution)).To(BeTrue())
		Expect(results[0].Err).NotTo(HaveOccurred())
		Expect(results[2].Err).NotTo(HaveOccurred())

		Expect(publisher.records).To(HaveLen(3))
		for _, rec := range publisher.records {
			if rec.Profile == "b" {
				Expect(rec.Status()).To(Equal("Infeasible"))
			}
		}
	})

	It("should report publication failures", func() {
		publisher.failFor = "b"
		results, err := ctrl.Run(ctx, requestsFor("a", "b"))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("profile b"))
		Expect(results[1].Err).NotTo(HaveOccurred())
		Expect(results[1].RunID).To(BeEmpty())
	})

	It("should skip runs once the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		results, err := ctrl.Run(cctx, requestsFor("a", "b"))
		Expect(err).NotTo(HaveOccurred())
		for _, r := range results {
			Expect(r.Err).To(MatchError(context.Canceled))
		}
		Expect(planner.calls.Load()).To(BeZero())
	})

	It("should require a planner and a catalog", func() {
		ctrl.Catalog = nil
		_, err := ctrl.Run(ctx, requestsFor("a"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ProfileRequests", func() {
	It("should merge profiles over the defaults", func() {
		profiles := config.NormalizeProfiles(map[string]config.ProfileConfig{
			config.GlobalDefaultsKey: {CreativityLevel: ptr.To(0.5), Seed: ptr.To(uint64(9))},
			"athlete":                {DailyCalories: 2400, Seed: ptr.To(uint64(3))},
		})

		reqs, err := ProfileRequests(context.Background(), profiles, []string{"athlete", "guest"}, testCatalog(), 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(reqs).To(HaveLen(2))

		athlete := reqs[0]
		Expect(athlete.Profile).To(Equal("athlete"))
		Expect(athlete.Params.Seed).To(Equal(uint64(3)))
		Expect(athlete.Params.Refinement.CreativityLevel).To(Equal(0.5))
		Expect(athlete.Requirements.Constraints).NotTo(BeEmpty())
		Expect(athlete.Requirements.Constraints[0].Value.Min).To(BeNumerically("~", 2160, 1e-9))

		guest := reqs[1]
		Expect(guest.Params.Seed).To(Equal(uint64(9)))
	})

	It("should fall back to the given seed", func() {
		reqs, err := ProfileRequests(context.Background(), config.ProfileConfigData{}, []string{"x"}, testCatalog(), 42)
		Expect(err).NotTo(HaveOccurred())
		Expect(reqs[0].Params.Seed).To(Equal(uint64(42)))
		Expect(reqs[0].Params.Refinement.CreativityLevel).To(BeZero())
	})

	It("should load a requirements file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reqs.yaml")
		Expect(os.WriteFile(path, []byte(`
constraints:
  - name: Daily Calories
    scope: daily
    attribute: calories
    operator: range
    value: [1500, 1700]
`), 0o600)).To(Succeed())

		profiles := config.NormalizeProfiles(map[string]config.ProfileConfig{
			"custom": {RequirementsFile: path},
		})
		reqs, err := ProfileRequests(context.Background(), profiles, []string{"custom"}, testCatalog(), 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(reqs[0].Requirements.Constraints).To(HaveLen(1))
		Expect(reqs[0].Requirements.Constraints[0].Value.Max).To(BeNumerically("~", 1700, 1e-9))
	})

	It("should fail on a missing requirements file", func() {
		profiles := config.NormalizeProfiles(map[string]config.ProfileConfig{
			"custom": {RequirementsFile: "/does/not/exist.yaml"},
		})
		_, err := ProfileRequests(context.Background(), profiles, []string{"custom"}, testCatalog(), 0)
		Expect(err).To(HaveOccurred())
	})
})
