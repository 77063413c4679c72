// Package analysis measures weekly plans.
//
// Two views are provided:
//   - Creativity metrics: how varied a plan is, condensed into a score in [0, 1].
//   - Nutrition profiles: weekly totals plus per-day calories, proteins and
//     group servings.
//
// Example usage:
//
//	base := analysis.MeasureCreativity(outcome.Base)
//	refined := analysis.MeasureCreativity(outcome.Refined)
//
//	log.Info("refinement complete",
//	    "baseScore", base.Score,
//	    "refinedScore", refined.Score,
//	    "surprises", refined.SurpriseCount)
//
// Creativity Score:
//
// The score averages four components, each clamped to [0, 1]:
//
//  1. Unique foods over the week, relative to 30.
//  2. Repetition: (7 - highest per-food repetition) / 7.
//  3. Themes: 1 when any day carries a theme.
//  4. Surprises: surprise additions relative to 5.
//
// The package is pure: it never mutates the plans it measures.
package analysis
