package cmd

import (
	"context"
	"fmt"

	"media-sync/core/config"
	"media-sync/core/database"
	"media-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheCmd is the parent command for the persisted state.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persisted resolution cache and operation log",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache and operation-log statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached resolutions and recorded outcomes",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	RootCmd.AddCommand(cacheCmd)
}

func openStores() (*database.CacheStore, *database.OpLog, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database.NewCacheStore(db), database.NewOpLog(db), l, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, oplog, l, err := openStores()
	if err != nil {
		return err
	}

	entries, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}
	outcomes, err := oplog.CountByOutcome(ctx)
	if err != nil {
		return fmt.Errorf("failed to count operation outcomes: %w", err)
	}

	l.Info("Resolution cache", zap.Int64("entries", entries))
	for outcome, n := range outcomes {
		l.Info("Operation log", zap.String("outcome", outcome), zap.Int64("count", n))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, oplog, l, err := openStores()
	if err != nil {
		return err
	}

	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear resolution cache: %w", err)
	}
	if err := oplog.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear operation log: %w", err)
	}
	l.Info("Persisted state cleared")
	return nil
}
