package common

import (
	"sort"
	"sync"
	"time"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
)

// RunSummary is the cached result of the latest run of a profile.
type RunSummary struct {
	RunID           string
	Profile         string
	Status          string
	BaseCalories    float64
	RefinedCalories float64
	CreativityScore float64
	Plan            v1alpha1.WeeklyPlan
	Warnings        []string
	Err             string
	UpdatedAt       time.Time
}

// Failed reports whether the run ended without a plan.
func (s RunSummary) Failed() bool {
	return s.Err != ""
}

// PlanCache keeps the latest RunSummary per profile. It is safe for
// concurrent use.
type PlanCache struct {
	mu    sync.RWMutex
	items map[string]RunSummary
}

// NewPlanCache returns an empty cache.
func NewPlanCache() *PlanCache {
	return &PlanCache{items: make(map[string]RunSummary)}
}

// Set stores s under its profile, replacing older entries. The plan is copied.
func (c *PlanCache) Set(s RunSummary) {
	s.Plan = s.Plan.DeepCopy()
	s.Warnings = append([]string(nil), s.Warnings...)
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[s.Profile] = s
}

// Get returns a copy of the latest summary of profile.
func (c *PlanCache) Get(profile string) (RunSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.items[profile]
	if !ok {
		return RunSummary{}, false
	}
	s.Plan = s.Plan.DeepCopy()
	return s, true
}

// Profiles returns the cached profile names in sorted order.
func (c *PlanCache) Profiles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of cached profiles.
func (c *PlanCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Delete drops profile from the cache.
func (c *PlanCache) Delete(profile string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, profile)
}
