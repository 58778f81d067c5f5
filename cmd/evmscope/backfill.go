package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmscope/internal/backfill"
	"evmscope/internal/chain"
	"evmscope/internal/config"
	"evmscope/internal/storage/postgres"
	"evmscope/internal/tokenmeta"
)

func runBackfill(cmd *cobra.Command, _ []string) error {
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

	var fetcher tokenmeta.Fetcher
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		fetcher = tokenmeta.NewChainFetcher(chainClient, logger)
	}

	logger.Info("backfill start", zap.Bool("metadata_enrichment", fetcher != nil))

	reconciler := backfill.NewReconciler(store, fetcher, logger)
	return reconciler.Run(ctx)
}
