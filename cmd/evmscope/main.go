package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"evmscope/internal/config"
	"evmscope/internal/drain"
	"evmscope/internal/intake"
	"evmscope/internal/pipeline"
	"evmscope/internal/sigdb"
	"evmscope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "evmscope",
		Short:        "EVM transaction decoder and indexer",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the decode service",
		RunE:  runService,
	}

	runCmd.Flags().String("database-url", "", "Postgres connection string")
	runCmd.Flags().Int("poll-interval-ms", 5000, "batch drain poll interval in milliseconds")
	runCmd.Flags().Int("batch-size", 100, "pending items per batch")
	runCmd.Flags().String("channel", "pending_txs", "notification channel name")
	runCmd.Flags().Duration("reconnect-delay", 5*time.Second, "delay before reconnecting the notification channel")
	runCmd.Flags().String("sigdb-url", "", "signature database base URL (optional)")
	runCmd.Flags().Int("sig-cache-size", 4096, "signature cache capacity")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Re-derive contracts, tokens, and transfers from decoded rows",
		RunE:  runBackfill,
	}

	backfillCmd.Flags().String("database-url", "", "Postgres connection string")
	backfillCmd.Flags().String("rpc-url", "", "chain RPC URL for token metadata enrichment (optional)")
	backfillCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(backfillCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("database-url", "", "Postgres connection string")
	migrateCmd.Flags().String("migrations", "./migrations", "migrations directory")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runService(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	var sigs pipeline.SignatureLookup
	if cfg.SigDBURL != "" {
		sigs = sigdb.NewClient(cfg.SigDBURL, sigdb.NewCache(cfg.SigCacheSize), logger)
	}

	processor := pipeline.New(pipelineStore{store: store}, sigs, logger)

	listener := intake.NewListener(intake.Config{
		Channel:        cfg.Channel,
		ReconnectDelay: cfg.ReconnectDelay,
	}, intake.DialChannel(cfg.DatabaseURL, cfg.Channel), processor, logger)

	loop := drain.NewLoop(drain.Config{
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.BatchSize,
	}, processor, logger)

	logger.Info("decoder start",
		zap.String("channel", cfg.Channel),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Duration("reconnect_delay", cfg.ReconnectDelay),
		zap.Bool("sigdb_enabled", cfg.SigDBURL != ""),
	)

	listenerDone := make(chan struct{})
	go func() {
		defer close(listenerDone)
		if err := listener.Run(ctx); err != nil {
			logger.Error("listener stopped", zap.Error(err))
		}
	}()

	if err := loop.Run(ctx); err != nil {
		listener.Close()
		<-listenerDone
		return err
	}

	listener.Close()
	<-listenerDone

	logger.Info("shutdown complete")
	return nil
}

// pipelineStore adapts the Postgres store to the pipeline interfaces.
type pipelineStore struct {
	store *postgres.Store
}

func (s pipelineStore) WithTx(ctx context.Context, fn func(tx pipeline.Tx) error) error {
	return s.store.WithTx(ctx, func(tx *postgres.Tx) error {
		return fn(tx)
	})
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
