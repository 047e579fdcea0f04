package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/config"
	logpkg "github.com/kailas-cloud/eccnrag/internal/logger"
)

func main() {
	// A missing .env is fine; the shell environment still applies.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "eccnctl",
		Short: "Offline tooling for the ECCN classifier",
		Long: `eccnctl builds the retrieval index, generates evaluation datasets
and runs the evaluation harness against a built index.

Configuration is read from config/<ENV>.yaml (ENV defaults to "local")
unless --config points at a file.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: config/<ENV>.yaml)")

	rootCmd.AddCommand(
		newBuildIndexCmd(),
		newEvaluateCmd(),
		newGenDatasetCmd(),
		newClassifyCmd(),
		newRunsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loadConfig reads the configuration and builds a logger writing to stderr,
// leaving stdout to command output.
func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	env := config.GetEnv()
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, logpkg.ToStderr())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
