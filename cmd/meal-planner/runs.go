package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/llm-d/llm-d-meal-planner/internal/optimizer"
	"github.com/llm-d/llm-d-meal-planner/internal/store"
)

func newRunsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded planning runs",
	}

	var (
		profile string
		limit   int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openExistingStore(cmd, root)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx, profile, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROFILE\tSTATUS\tSEED\tCREATIVITY\tCALORIES\tSCORE\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f\t%.0f\t%.2f\t%s\n",
					r.ID, r.Profile, r.Status, r.Seed, r.CreativityLevel,
					r.RefinedCalories, r.CreativityScore, r.CreatedAt.Local().Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVarP(&profile, "profile", "p", "", "only list runs of this profile")
	list.Flags().IntVar(&limit, "limit", 20, "maximum runs to list; 0 lists all")

	var output string
	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print the outcome of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := openExistingStore(cmd, root)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no run with id %s", args[0])
			}
			if err != nil {
				return err
			}
			if run.Err != "" {
				return fmt.Errorf("run %s failed with status %s: %s", run.ID, run.Status, run.Err)
			}

			var out optimizer.Outcome
			if err := json.Unmarshal(run.Outcome, &out); err != nil {
				return fmt.Errorf("failed to decode outcome of run %s: %w", run.ID, err)
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), &out)
			}
			return writeOutcome(cmd.OutOrStdout(), run.ID, &out)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", outputText, "output format: text or json")

	cmd.AddCommand(list, show)
	return cmd
}

func openExistingStore(cmd *cobra.Command, root *rootOptions) (*store.Store, error) {
	path := root.cfg.DatabasePath
	if path == "" {
		return nil, errors.New("no database configured")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s: %w", path, err)
	}
	return store.Open(cmd.Context(), path)
}
