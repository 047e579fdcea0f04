package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/config"
	domeval "github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
	"github.com/kailas-cloud/eccnrag/internal/repository/artifact"
	"github.com/kailas-cloud/eccnrag/internal/repository/dataset"
	"github.com/kailas-cloud/eccnrag/internal/repository/evalstore"
	decisionuc "github.com/kailas-cloud/eccnrag/internal/usecase/decision"
	evaluationuc "github.com/kailas-cloud/eccnrag/internal/usecase/evaluation"
	retrievaluc "github.com/kailas-cloud/eccnrag/internal/usecase/retrieval"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the pipeline over a labeled dataset and score it",
		Long: `Classify every row of a labeled dataset (query_text, true_ecn),
write one scored row per sample to the results CSV and print the summary.
Runs are recorded in SQLite when evaluation.store_path is set.

Examples:
  eccnctl evaluate
  eccnctl evaluate --dataset data/eval_dataset.csv --workers 8 --rps 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			applyEvaluateFlags(cmd, &cfg.Evaluation)
			ctx := cmd.Context()

			samples, err := dataset.ReadSamples(cfg.Evaluation.Dataset)
			if err != nil {
				return fmt.Errorf("read dataset: %w", err)
			}

			cache, err := app.OpenCache(ctx, cfg.Cache, logger)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			if cache != nil {
				defer cache.Close()
			}

			embedder := app.BuildEmbedder(
				cfg.Embedding, cache, time.Duration(cfg.Cache.TTLSec)*time.Second,
				cfg.Embedding.QueryInstruction, logger,
			)
			retrieval := retrievaluc.New(
				embedder, artifact.NewStore(cfg.Index.Dir), app.EmbeddingModel(cfg.Embedding), logger,
			)
			if err = retrieval.Reload(ctx); err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			generator := app.BuildGenerator(cfg.Generation, logger)
			decider := decisionuc.New(generator, cfg.Generation.Retry.Policy(), logger)

			harness := evaluationuc.New(retrieval, decider, evaluationuc.Options{
				TopK:           cfg.Index.TopK,
				Workers:        cfg.Evaluation.Workers,
				RequestsPerSec: cfg.Evaluation.RequestsPerSec,
				Dataset:        cfg.Evaluation.Dataset,
				BuildID:        retrieval.Snapshot().Manifest().BuildID,
				Model:          cfg.Generation.Model,
			}, logger)

			if cfg.Evaluation.StorePath != "" {
				store, openErr := evalstore.Open(cfg.Evaluation.StorePath)
				if openErr != nil {
					return fmt.Errorf("open run store: %w", openErr)
				}
				defer store.Close()
				harness = harness.WithStore(store)
			}

			result, err := harness.Run(ctx, samples)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			if err = dataset.WriteResults(cfg.Evaluation.Output, result.Records); err != nil {
				return fmt.Errorf("write results: %w", err)
			}
			logger.Info("Evaluation finished",
				zap.String("run_id", result.Run.ID),
				zap.Int("samples", result.Run.Summary.Samples),
			)

			printSummary(cmd.OutOrStdout(), result.Run.Summary, cfg.Evaluation.Output)
			return nil
		},
	}

	cmd.Flags().String("dataset", "", "Labeled dataset CSV (default: evaluation.dataset)")
	cmd.Flags().String("output", "", "Results CSV (default: evaluation.output)")
	cmd.Flags().Int("workers", 0, "Rows evaluated in parallel (default: evaluation.workers)")
	cmd.Flags().Float64("rps", 0, "Row start rate limit per second, 0 keeps the configured value")
	cmd.Flags().String("store", "", "SQLite run store (default: evaluation.store_path)")
	return cmd
}

func applyEvaluateFlags(cmd *cobra.Command, cfg *config.EvaluationConfig) {
	if v, _ := cmd.Flags().GetString("dataset"); v != "" {
		cfg.Dataset = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Output = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	if v, _ := cmd.Flags().GetFloat64("rps"); v > 0 {
		cfg.RequestsPerSec = v
	}
	if v, _ := cmd.Flags().GetString("store"); v != "" {
		cfg.StorePath = v
	}
}

func printSummary(w io.Writer, s domeval.Summary, output string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "===== EVALUATION SUMMARY =====")
	fmt.Fprintf(w, "Samples evaluated        : %d\n", s.Samples)
	fmt.Fprintf(w, "Exact Match Accuracy     : %.3f\n", s.ExactMatch)
	fmt.Fprintf(w, "Parent Match Accuracy    : %.3f\n", s.ParentMatch)
	fmt.Fprintf(w, "Recall@%-17d : %.3f\n", s.K, s.RecallAtK)
	fmt.Fprintf(w, "Abstention Rate          : %.3f\n", s.AbstainRate)
	fmt.Fprintf(w, "Parse failures           : %d\n", s.ParseFailures)
	fmt.Fprintf(w, "Errors                   : %d\n", s.Errors)
	fmt.Fprintf(w, "Results saved to         : %s\n", output)
}
