package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/repository/artifact"
	classifyuc "github.com/kailas-cloud/eccnrag/internal/usecase/classify"
	decisionuc "github.com/kailas-cloud/eccnrag/internal/usecase/decision"
	retrievaluc "github.com/kailas-cloud/eccnrag/internal/usecase/retrieval"
)

type classifyOutput struct {
	PredictedECN        string   `json:"predicted_ecn"`
	Reason              string   `json:"reason"`
	RetrievedCandidates []string `json:"retrieved_candidates"`
	Outcome             string   `json:"outcome"`
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <product text>",
		Short: "Classify one product description against the local index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			embedder := app.BuildEmbedder(cfg.Embedding, nil, 0, cfg.Embedding.QueryInstruction, logger)
			retrieval := retrievaluc.New(
				embedder, artifact.NewStore(cfg.Index.Dir), app.EmbeddingModel(cfg.Embedding), logger,
			)
			if err = retrieval.Reload(ctx); err != nil {
				return fmt.Errorf("load index: %w", err)
			}

			generator := app.BuildGenerator(cfg.Generation, logger)
			decider := decisionuc.New(generator, cfg.Generation.Retry.Policy(), logger)
			svc := classifyuc.New(retrieval, decider, cfg.Index.TopK)

			start := time.Now()
			d, err := svc.Classify(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("classify: %w", err)
			}
			logger.Debug("Classified", zap.Duration("latency", time.Since(start)))

			candidates := d.Candidates()
			if candidates == nil {
				candidates = []string{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(classifyOutput{
				PredictedECN:        d.PredictedCode(),
				Reason:              d.Reason(),
				RetrievedCandidates: candidates,
				Outcome:             string(d.Outcome()),
			})
		},
	}
	return cmd
}
