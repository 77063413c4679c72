package creativity

import (
	"fmt"
	"math"
)

const (
	// FlavorExplorationRatio derives the default flavor exploration from the creativity level.
	FlavorExplorationRatio = 0.8
	// DefaultThemeConsistency is the theme consistency used when none is configured.
	DefaultThemeConsistency = 0.5
	// NutritionTolerance is the relative weekly calorie drift tolerated before rescaling.
	NutritionTolerance = 0.05
	// SharedThemeThreshold is the theme consistency above which themed days share one theme.
	SharedThemeThreshold = 0.7

	themePortion    = 0.5
	pairingPortion  = 0.5
	surprisePortion = 0.25
	minCalories     = 1e-9
)

// Params tune one refinement. Levels lie in [0, 1].
type Params struct {
	CreativityLevel   float64 `mapstructure:"creativityLevel" yaml:"creativityLevel" json:"creativityLevel"`
	FlavorExploration float64 `mapstructure:"flavorExploration" yaml:"flavorExploration" json:"flavorExploration"`
	MaintainNutrition bool    `mapstructure:"maintainNutrition" yaml:"maintainNutrition" json:"maintainNutrition"`
	ThemeConsistency  float64 `mapstructure:"themeConsistency" yaml:"themeConsistency" json:"themeConsistency"`
}

// DefaultParams returns the parameters the planner uses for a creativity level:
// flavor exploration at 0.8x creativity, theme consistency 0.5, nutrition maintained.
func DefaultParams(creativity float64) Params {
	return Params{
		CreativityLevel:   creativity,
		FlavorExploration: creativity * FlavorExplorationRatio,
		MaintainNutrition: true,
		ThemeConsistency:  DefaultThemeConsistency,
	}
}

// Validate checks for invalid parameter values.
func (p Params) Validate() error {
	for _, l := range []struct {
		name  string
		value float64
	}{
		{"creativityLevel", p.CreativityLevel},
		{"flavorExploration", p.FlavorExploration},
		{"themeConsistency", p.ThemeConsistency},
	} {
		if math.IsNaN(l.value) || l.value < 0 || l.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %.2f", l.name, l.value)
		}
	}
	return nil
}

// scaled returns round(n * level), the number of items a level selects out of n.
func scaled(n int, level float64) int {
	return int(math.Round(float64(n) * level))
}
