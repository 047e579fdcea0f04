package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/repository/corpus"
	"github.com/kailas-cloud/eccnrag/internal/repository/dataset"
	datasetuc "github.com/kailas-cloud/eccnrag/internal/usecase/dataset"
)

func newGenDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen-dataset",
		Short: "Generate a labeled evaluation dataset from the corpus",
		Long: `Sample leaf entries with a seeded RNG and rewrite each description
into a short product listing through the generative model. The output CSV
has the columns query_text, true_ecn, source_ecn_description.

Rows the model fails on are logged and skipped. An interrupted run still
writes the rows produced so far.

Examples:
  eccnctl gen-dataset
  eccnctl gen-dataset --size 50 --seed 7 --output data/small.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			corpusPath, _ := cmd.Flags().GetString("corpus")
			if corpusPath == "" {
				corpusPath = cfg.Corpus.Path
			}
			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				output = cfg.Dataset.Output
			}
			opts := datasetuc.Options{
				SampleSize:     cfg.Dataset.SampleSize,
				Seed:           cfg.Dataset.Seed,
				RequestsPerSec: cfg.Dataset.RequestsPerSec,
			}
			if v, _ := cmd.Flags().GetInt("size"); v > 0 {
				opts.SampleSize = v
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed, _ = cmd.Flags().GetUint64("seed")
			}

			entries, err := corpus.Read(corpusPath)
			if err != nil {
				return fmt.Errorf("read corpus: %w", err)
			}

			generator := app.BuildGenerator(cfg.Generation, logger)
			svc := datasetuc.New(generator, cfg.Generation.Retry.Policy(), opts, logger)

			rows, genErr := svc.Generate(cmd.Context(), entries)
			if genErr != nil && len(rows) == 0 {
				return fmt.Errorf("generate dataset: %w", genErr)
			}

			if err = dataset.WriteGenerated(output, rows); err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			logger.Info("Dataset written", zap.String("path", output), zap.Int("rows", len(rows)))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples to %s\n", len(rows), output)

			if genErr != nil {
				return errors.Join(fmt.Errorf("generation stopped early after %d rows", len(rows)), genErr)
			}
			return nil
		},
	}

	cmd.Flags().String("corpus", "", "Corpus file, .csv or .parquet (default: corpus.path)")
	cmd.Flags().String("output", "", "Output CSV (default: dataset.output)")
	cmd.Flags().Int("size", 0, "Number of sampled leaf entries (default: dataset.sample_size)")
	cmd.Flags().Uint64("seed", 0, "Sampling seed (default: dataset.seed)")
	return cmd
}
