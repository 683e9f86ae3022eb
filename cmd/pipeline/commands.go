package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/paces/backend/internal/pipeline"
)

var filterCmd = &cobra.Command{
	Use:   "filter [raw.tsv]",
	Short: "Keep significant, detected peptides of the raw export",
	Long: `Keeps rows with PEP < 0.05 and a nonzero Intensity. column. The raw
export defaults to paths.rawInput; a positional argument overrides it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.Paths.RawInput = args[0]
		}
		return runStage((*pipeline.Runner).Filter)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage in order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage((*pipeline.Runner).Run)
	},
}

var clearCacheCmd = &cobra.Command{
	Use:       "clear-cache [uniprot|kegg]...",
	Short:     "Drop cached remote lookups from Redis",
	Args:      cobra.OnlyValidArgs,
	ValidArgs: []string{"uniprot", "kegg"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Redis.Enabled {
			return fmt.Errorf("redis is not enabled")
		}
		if len(args) == 0 {
			args = []string{"uniprot", "kegg"}
		}

		client, err := newRedis()
		if err != nil {
			return err
		}
		defer client.Close()

		for _, service := range args {
			if err := client.Invalidate(cmd.Context(), service); err != nil {
				return err
			}
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <run-id>",
	Short: "List the recorded stages of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.SQLite.Enabled {
			return fmt.Errorf("sqlite is not enabled")
		}

		db, err := openSQLite()
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.GetStageRuns(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(out, "%-18s %-9s in=%-6d out=%-6d %s\n",
				r.Stage, r.Status, r.RowsIn, r.RowsOut, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
			if r.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", r.Error)
			}
		}
		return nil
	},
}

func stageCmd(use, short string, stage func(*pipeline.Runner, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(stage)
		},
	}
}

func runStage(stage func(*pipeline.Runner, context.Context) error) error {
	ctx, cancel := commandContext()
	defer cancel()

	r, cleanup, err := newRunner(ctx)
	defer cleanup()
	if err != nil {
		return err
	}
	return stage(r, ctx)
}
