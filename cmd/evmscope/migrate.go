package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"evmscope/internal/config"
	"evmscope/internal/storage/postgres"
)

func runMigrate(cmd *cobra.Command, _ []string) error {
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

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return err
	}

	logger.Info("migrations applied", zap.String("path", cfg.MigrationsPath))
	return nil
}
