// Command meal-planner plans weekly menus: it solves a meal-plan program
// per profile, refines the result for variety and records every run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llm-d/llm-d-meal-planner/internal/config"
	"github.com/llm-d/llm-d-meal-planner/internal/logging"
)

type rootOptions struct {
	configFile string
	envFile    string

	cfg *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logging.Log.Error(err, "Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "meal-planner",
		Short:         "Plan weekly menus with a mixed-integer optimizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile, opts.envFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogJSON)
			if err != nil {
				return err
			}
			cmd.SetContext(logging.IntoContext(cmd.Context(), logger))
			opts.cfg = cfg
			logger.V(logging.DEBUG).Info("Loaded configuration",
				"configFile", opts.configFile,
				"backend", cfg.Solver.Backend,
				"profiles", len(cfg.Profiles))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to the YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded into the environment when present")
	flags.String("log-level", config.DefaultLogLevel, "log level: trace, debug, info, warn or error")
	flags.Bool("log-json", false, "log in JSON")
	flags.String("catalog", "", "YAML food catalog; the database catalog is used when empty")
	flags.String("db", config.DefaultDatabasePath, "SQLite database path")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file after the command")
	flags.String("instance", "", "controller_instance label of the metrics")
	flags.String("solver", "", "solver backend: branch-and-bound or cbc")
	flags.Duration("time-limit", 0, "solver time limit")
	flags.Float64("big-m", 0, "per-slot serving cap")

	cmd.AddCommand(
		newPlanCommand(opts),
		newBatchCommand(opts),
		newCatalogCommand(opts),
		newRunsCommand(opts),
	)
	return cmd
}
