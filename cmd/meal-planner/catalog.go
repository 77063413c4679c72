package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/llm-d/llm-d-meal-planner/api/v1alpha1"
	"github.com/llm-d/llm-d-meal-planner/internal/catalog"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
	"github.com/llm-d/llm-d-meal-planner/internal/store"
)

func newCatalogCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the food catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "validate FILE",
			Short: "Validate a YAML food catalog and summarize it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := catalog.LoadFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeCatalogSummary(cmd, cat)
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Import a YAML food catalog into the database",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				cat, err := catalog.LoadFile(ctx, args[0])
				if err != nil {
					return err
				}
				st, err := store.Open(ctx, root.cfg.DatabasePath)
				if err != nil {
					return err
				}
				defer st.Close()

				n, err := st.ImportFoods(ctx, cat.All())
				if err != nil {
					return err
				}
				total, err := st.CountFoods(ctx)
				if err != nil {
					return err
				}
				logging.FromContext(ctx).Info("Imported foods",
					"file", args[0],
					"imported", n,
					"total", total)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d foods into %s (%d total)\n", n, st.Path(), total)
				return nil
			},
		},
	)
	return cmd
}

// writeCatalogSummary prints the number of foods per group and meal type.
func writeCatalogSummary(cmd *cobra.Command, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Foods:\t%d\n", cat.Len())

	groups := make(map[v1alpha1.FoodGroup]int)
	for _, f := range cat.All() {
		groups[f.Group]++
	}
	names := make([]string, 0, len(groups))
	for g := range groups {
		names = append(names, string(g))
	}
	sort.Strings(names)
	for _, g := range names {
		fmt.Fprintf(tw, "  %s\t%d\n", g, groups[v1alpha1.FoodGroup(g)])
	}
	for _, m := range v1alpha1.MealTypes {
		fmt.Fprintf(tw, "  %s\t%d\n", m, len(cat.ByMealType(m)))
	}
	return tw.Flush()
}
