package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/repository/artifact"
	"github.com/kailas-cloud/eccnrag/internal/repository/corpus"
	indexinguc "github.com/kailas-cloud/eccnrag/internal/usecase/indexing"
)

func newBuildIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Embed the taxonomy corpus and write the index artifacts",
		Long: `Read the corpus (CSV or parquet), embed every leaf entry with the
document instruction and write the index and metadata files atomically.

Examples:
  eccnctl build-index
  eccnctl build-index --corpus data/eccn.parquet --index-dir data`,
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
			indexDir, _ := cmd.Flags().GetString("index-dir")
			if indexDir == "" {
				indexDir = cfg.Index.Dir
			}

			ctx := cmd.Context()

			cache, err := app.OpenCache(ctx, cfg.Cache, logger)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			if cache != nil {
				defer cache.Close()
			}

			entries, err := corpus.Read(corpusPath)
			if err != nil {
				return fmt.Errorf("read corpus: %w", err)
			}
			logger.Info("Corpus loaded", zap.String("path", corpusPath), zap.Int("entries", len(entries)))

			embedder := app.BuildEmbedder(
				cfg.Embedding, cache, time.Duration(cfg.Cache.TTLSec)*time.Second,
				cfg.Embedding.DocumentInstruction, logger,
			)
			store := artifact.NewStore(indexDir)
			svc := indexinguc.New(embedder, store, app.EmbeddingModel(cfg.Embedding), logger).
				WithBatchSize(cfg.Embedding.BatchSize)

			snap, err := svc.BuildFromEntries(ctx, entries)
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			m := snap.Manifest()
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d documents (%d dims, build %s) into %s\n",
				m.Count, m.Dimensions, m.BuildID, store.Dir())
			return nil
		},
	}

	cmd.Flags().String("corpus", "", "Corpus file, .csv or .parquet (default: corpus.path)")
	cmd.Flags().String("index-dir", "", "Artifact directory (default: index.dir)")
	return cmd
}
