package config

import (
	"fmt"
	"math"
	"sort"

	"gopkg.in/yaml.v3"
	"k8s.io/utils/ptr"

	"github.com/llm-d/llm-d-meal-planner/internal/engines/creativity"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/requirements"
)

// GlobalDefaultsKey names the profile entry every other profile inherits from.
const GlobalDefaultsKey = "default"

// ProfileConfig is the planning configuration of one user profile.
// Unset fields inherit from the default profile.
type ProfileConfig struct {
	// Profile is the profile name (only used in override entries)
	Profile string `mapstructure:"profile" yaml:"profile,omitempty" json:"profile,omitempty"`

	// DailyCalories selects the diet guide calorie level of the targets.
	DailyCalories float64 `mapstructure:"dailyCalories" yaml:"dailyCalories,omitempty" json:"dailyCalories,omitempty"`

	// Budget caps the weekly food price; 0 disables the budget constraint.
	Budget float64 `mapstructure:"budget" yaml:"budget,omitempty" json:"budget,omitempty"`

	// RequirementsFile replaces the generated requirements when set.
	RequirementsFile string `mapstructure:"requirementsFile" yaml:"requirementsFile,omitempty" json:"requirementsFile,omitempty"`

	// Refinement settings. Pointers let a profile set 0 or false explicitly.
	CreativityLevel   *float64 `mapstructure:"creativityLevel" yaml:"creativityLevel,omitempty" json:"creativityLevel,omitempty"`
	FlavorExploration *float64 `mapstructure:"flavorExploration" yaml:"flavorExploration,omitempty" json:"flavorExploration,omitempty"`
	ThemeConsistency  *float64 `mapstructure:"themeConsistency" yaml:"themeConsistency,omitempty" json:"themeConsistency,omitempty"`
	MaintainNutrition *bool    `mapstructure:"maintainNutrition" yaml:"maintainNutrition,omitempty" json:"maintainNutrition,omitempty"`

	// Seed drives the refinement's random choices.
	Seed *uint64 `mapstructure:"seed" yaml:"seed,omitempty" json:"seed,omitempty"`
}

// ProfileConfigData maps profile names to their configuration.
type ProfileConfigData map[string]ProfileConfig

// Validate checks for invalid configuration values.
func (c *ProfileConfig) Validate() error {
	if c.DailyCalories < 0 || math.IsNaN(c.DailyCalories) {
		return fmt.Errorf("dailyCalories must be >= 0, got %.1f", c.DailyCalories)
	}
	if c.Budget < 0 || math.IsNaN(c.Budget) {
		return fmt.Errorf("budget must be >= 0, got %.2f", c.Budget)
	}
	for _, l := range []struct {
		name  string
		value *float64
	}{
		{"creativityLevel", c.CreativityLevel},
		{"flavorExploration", c.FlavorExploration},
		{"themeConsistency", c.ThemeConsistency},
	} {
		if l.value == nil {
			continue
		}
		if v := *l.value; math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %.2f", l.name, v)
		}
	}
	return nil
}

// ParseProfiles parses profile entries holding YAML documents. The
// "default" entry holds the global defaults; other entries must name their
// profile. Invalid entries are logged and skipped.
func ParseProfiles(data map[string]string) ProfileConfigData {
	entries := make(map[string]ProfileConfig, len(data))
	for key, doc := range data {
		var cfg ProfileConfig
		if err := yaml.Unmarshal([]byte(doc), &cfg); err != nil {
			logging.Log.Info("Failed to parse profile config entry, skipping",
				"key", key,
				"error", err)
			continue
		}
		entries[key] = cfg
	}
	return NormalizeProfiles(entries)
}

// NormalizeProfiles validates entries and re-keys overrides by profile name.
// Keys are visited in sorted order; on duplicate profile names the first key wins.
func NormalizeProfiles(entries map[string]ProfileConfig) ProfileConfigData {
	out := make(ProfileConfigData)
	if len(entries) == 0 {
		return out
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	profileToKey := make(map[string]string)
	for _, key := range keys {
		cfg := entries[key]
		if err := cfg.Validate(); err != nil {
			logging.Log.Info("Invalid profile config entry, skipping",
				"key", key,
				"error", err)
			continue
		}

		if key == GlobalDefaultsKey {
			out[GlobalDefaultsKey] = cfg
			continue
		}

		name := cfg.Profile
		if name == "" {
			name = key
		}
		if winner, exists := profileToKey[name]; exists {
			logging.Log.Info("Duplicate profile found - first key wins",
				"profile", name,
				"winningKey", winner,
				"duplicateKey", key)
			continue
		}
		profileToKey[name] = key
		cfg.Profile = name
		out[name] = cfg
	}

	logging.Log.V(logging.DEBUG).Info("Parsed profile config",
		"profileCount", len(out))
	return out
}

// Names returns the configured profile names in sorted order, including the
// default profile when present.
func (data ProfileConfigData) Names() []string {
	out := make([]string, 0, len(data))
	for k := range data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// GetProfileConfig returns the effective configuration of a profile: the
// profile's values over the global defaults.
func (data ProfileConfigData) GetProfileConfig(name string) ProfileConfig {
	defaults := data[GlobalDefaultsKey]
	profileConfig, ok := data[name]
	if !ok {
		return defaults
	}

	result := defaults
	if profileConfig.Profile != "" {
		result.Profile = profileConfig.Profile
	}
	if profileConfig.DailyCalories != 0 {
		result.DailyCalories = profileConfig.DailyCalories
	}
	if profileConfig.Budget != 0 {
		result.Budget = profileConfig.Budget
	}
	if profileConfig.RequirementsFile != "" {
		result.RequirementsFile = profileConfig.RequirementsFile
	}
	if profileConfig.CreativityLevel != nil {
		result.CreativityLevel = profileConfig.CreativityLevel
	}
	if profileConfig.FlavorExploration != nil {
		result.FlavorExploration = profileConfig.FlavorExploration
	}
	if profileConfig.ThemeConsistency != nil {
		result.ThemeConsistency = profileConfig.ThemeConsistency
	}
	if profileConfig.MaintainNutrition != nil {
		result.MaintainNutrition = profileConfig.MaintainNutrition
	}
	if profileConfig.Seed != nil {
		result.Seed = profileConfig.Seed
	}
	return result
}

// RefinementParams returns the creativity parameters of the profile.
// Unset values follow creativity.DefaultParams.
func (c ProfileConfig) RefinementParams() creativity.Params {
	p := creativity.DefaultParams(ptr.Deref(c.CreativityLevel, 0))
	if c.FlavorExploration != nil {
		p.FlavorExploration = *c.FlavorExploration
	}
	if c.ThemeConsistency != nil {
		p.ThemeConsistency = *c.ThemeConsistency
	}
	p.MaintainNutrition = ptr.Deref(c.MaintainNutrition, p.MaintainNutrition)
	return p
}

// Targets returns the diet guide targets of the profile's calorie level.
func (c ProfileConfig) Targets() requirements.Targets {
	cal := c.DailyCalories
	if cal == 0 {
		cal = requirements.DefaultDailyCalories
	}
	t := requirements.TargetsForCalories(cal)
	t.Budget = c.Budget
	return t
}

// SeedOrDefault returns the profile seed, or fallback when unset.
func (c ProfileConfig) SeedOrDefault(fallback uint64) uint64 {
	return ptr.Deref(c.Seed, fallback)
}
