package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/controller"
)

type batchEntry struct {
	Profile         string  `json:"profile"`
	RunID           string  `json:"runID,omitempty"`
	Status          string  `json:"status"`
	RefinedCalories float64 `json:"refinedCalories"`
	CreativityScore float64 `json:"creativityScore"`
	Error           string  `json:"error,omitempty"`
}

func newBatchCommand(root *rootOptions) *cobra.Command {
	var (
		seed   uint64
		output string
	)
	cmd := &cobra.Command{
		Use:   "batch [profile...]",
		Short: "Plan one week for several profiles concurrently",
		Long: "Plan one week for each named profile, or for every configured " +
			"profile when none is named. Failed runs are recorded and reported " +
			"without stopping the batch.",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			names := args
			if len(names) == 0 {
				names = profiles.Names()
			}
			if len(names) == 0 {
				names = []string{config.GlobalDefaultsKey}
			}

			reqs, err := controller.ProfileRequests(ctx, profiles, names, rt.catalog, seed)
			if err != nil {
				return err
			}
			results, runErr := rt.controller().Run(ctx, reqs)
			if err := rt.flushMetrics(ctx); err != nil {
				return err
			}

			entries := make([]batchEntry, 0, len(results))
			for _, r := range results {
				summary, _ := rt.cache.Get(r.Profile)
				entries = append(entries, batchEntry{
					Profile:         r.Profile,
					RunID:           r.RunID,
					Status:          summary.Status,
					RefinedCalories: summary.RefinedCalories,
					CreativityScore: summary.CreativityScore,
					Error:           summary.Err,
				})
			}
			if output == outputJSON {
				if err := writeJSON(cmd.OutOrStdout(), entries); err != nil {
					return err
				}
			} else {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PROFILE\tSTATUS\tCALORIES\tSCORE\tRUN")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.2f\t%s\n",
						e.Profile, e.Status, e.RefinedCalories, e.CreativityScore, e.RunID)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
				}
			}
			if runErr != nil {
				return runErr
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d runs failed", failed, len(results))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&seed, "seed", 0, "refinement seed for profiles without one")
	flags.Int("concurrency", config.DefaultConcurrency, "runs executing at once")
	flags.StringVarP(&output, "output", "o", outputText, "output format: text or json")
	return cmd
}
