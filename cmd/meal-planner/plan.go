package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/controller"
	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func validateOutput(format string) error {
	if format != outputText && format != outputJSON {
		return fmt.Errorf("unknown output format %q", format)
	}
	return nil
}

func newPlanCommand(root *rootOptions) *cobra.Command {
	var (
		profile          string
		requirementsFile string
		seed             uint64
		creativityLevel  float64
		output           string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan one week for a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := newRuntime(ctx, root.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			profiles := root.cfg.ProfileData()
			if requirementsFile != "" || cmd.Flags().Changed("creativity") {
				pc := profiles.GetProfileConfig(profile)
				if requirementsFile != "" {
					pc.RequirementsFile = requirementsFile
				}
				if cmd.Flags().Changed("creativity") {
					pc.CreativityLevel = &creativityLevel
				}
				if err := pc.Validate(); err != nil {
					return err
				}
				profiles[profile] = pc
			}

			reqs, err := controller.ProfileRequests(ctx, profiles, []string{profile}, rt.catalog, seed)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				reqs[0].Params.Seed = seed
			}

			results, err := rt.controller().Run(ctx, reqs)
			if err != nil {
				return err
			}
			res := results[0]
			if res.Err != nil {
				return res.Err
			}
			if err := rt.flushMetrics(ctx); err != nil {
				return err
			}

			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), res.Outcome)
			}
			return writeOutcome(cmd.OutOrStdout(), res.RunID, res.Outcome)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&profile, "profile", "p", config.GlobalDefaultsKey, "profile to plan for")
	flags.StringVarP(&requirementsFile, "requirements", "r", "", "requirements file replacing the profile's requirements")
	flags.Uint64Var(&seed, "seed", 0, "refinement seed; overrides the profile seed when set")
	flags.Float64Var(&creativityLevel, "creativity", 0, "creativity level in [0, 1]; overrides the profile level when set")
	flags.StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutcome prints the refined plan day by day followed by its totals.
func writeOutcome(w io.Writer, runID string, out *optimizer.Outcome) error {
	if out == nil {
		return errors.New("no outcome to print")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if runID != "" {
		fmt.Fprintf(tw, "Run:\t%s\n", runID)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", out.Status)
	for _, warning := range out.Warnings {
		fmt.Fprintf(tw, "Warning:\t%s\n", warning)
	}

	for _, d := range out.Refined.Days {
		header := fmt.Sprintf("\nDay %d", d.Day)
		if d.Theme != "" {
			header += " (" + d.Theme + ")"
		}
		fmt.Fprintf(tw, "%s\t\t%.0f kcal\n", header, d.TotalCalories())
		for _, m := range d.Meals {
			names := make([]string, 0, len(m.Assignments))
			for _, a := range m.Assignments {
				names = append(names, fmt.Sprintf("%s x%.2f", a.Name, a.Quantity))
			}
			fmt.Fprintf(tw, "  %s\t%s\t%.0f kcal\n", m.Type, strings.Join(names, ", "), m.TotalCalories())
		}
	}

	fmt.Fprintf(tw, "\nWeekly calories:\t%.0f (base %.0f)\n", out.Refined.TotalCalories(), out.Base.TotalCalories())
	fmt.Fprintf(tw, "Weekly proteins:\t%.1f g\n", out.Refined.TotalProteins())
	fmt.Fprintf(tw, "Creativity score:\t%.2f (base %.2f)\n", out.RefinedMetrics.Score, out.BaseMetrics.Score)
	if out.Report != nil {
		fmt.Fprintf(tw, "Strategies:\t%s\n", strings.Join(out.Report.Strategies, ", "))
		fmt.Fprintf(tw, "Changes:\t%d\n", out.Report.Changes)
	}

	groups := make([]string, 0, len(out.Profile.Groups))
	for g := range out.Profile.Groups {
		groups = append(groups, string(g))
	}
	sort.Strings(groups)
	for _, g := range groups {
		fmt.Fprintf(tw, "  %s\t%.2f servings\n", g, out.Profile.Groups[v1alpha1.FoodGroup(g)])
	}
	return tw.Flush()
}
