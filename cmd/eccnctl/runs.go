package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/eccnrag/internal/repository/evalstore"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded evaluation runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			path, _ := cmd.Flags().GetString("store")
			if path == "" {
				path = cfg.Evaluation.StorePath
			}
			if path == "" {
				return fmt.Errorf("no run store configured (evaluation.store_path or --store)")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			store, err := evalstore.Open(path)
			if err != nil {
				return fmt.Errorf("open run store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tSAMPLES\tEXACT\tPARENT\tRECALL@K\tABSTAIN\tBUILD")
			for _, r := range runs {
				s := r.Summary
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04"), s.Samples,
					s.ExactMatch, s.ParentMatch, s.RecallAtK, s.AbstainRate, r.BuildID)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("store", "", "SQLite run store (default: evaluation.store_path)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs, newest first")
	return cmd
}
