package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"media-sync/core/config"
	"media-sync/core/database"
	"media-sync/core/execute"
	"media-sync/core/logger"
	"media-sync/core/resolve"
	"media-sync/core/syncer"
	"media-sync/feature/imdb"
	"media-sync/feature/trakt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var (
	// Flags for sync command
	dryRunSync bool
	yesConfirm bool
)

// syncCmd performs one full reconciliation run.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile lists between Trakt and IMDb",
	Long: `Run one reconciliation pass over the enabled categories:
fetch both sides, resolve identifiers, diff, and apply the planned
operations to each destination.

Examples:
  # Plan and apply
  media-sync sync

  # Plan only, apply nothing
  media-sync sync --dry-run

  # Apply without the cleanup confirmation prompt
  media-sync sync --yes`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&dryRunSync, "dry-run", false, "Plan without executing any operation")
	syncCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive cleanup passes (non-interactive)")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if dryRunSync {
		cfg.Sync.DryRun = true
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Cleanup passes delete watchlist entries; make the user own that
	if cleanupEnabled(cfg.Sync) && !cfg.Sync.DryRun {
		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
	}

	runID := uuid.NewString()

	// Connect to the local database. A broken database costs persistence
	// and diagnostics, never the run.
	var cacheStore *database.CacheStore
	var recorder execute.Recorder
	if db, derr := database.Connect(cfg.Database); derr != nil {
		l.Warn("Database unavailable, continuing without persistence", zap.Error(derr))
	} else {
		if cfg.Sync.PersistCache {
			cacheStore = database.NewCacheStore(db)
		}
		recorder = syncer.NewOpLogRecorder(database.NewOpLog(db), l)
	}

	// Resolution cache, warmed from the persisted store
	cache := resolve.NewCache(cacheStore)
	maxAge := time.Duration(cfg.Sync.CacheMaxAgeDays) * 24 * time.Hour
	if n, werr := cache.Warm(ctx, maxAge); werr != nil {
		l.Warn("Failed to warm resolution cache", zap.Error(werr))
	} else if n > 0 {
		l.Info("Resolution cache warmed", zap.Int("entries", n))
	}

	// Service clients
	traktClient := trakt.NewClient(cfg.Trakt, l)
	imdbClient := imdb.NewClient(cfg.IMDB, l)
	imdbWriter := imdb.NewWriter(cfg.IMDB, imdbClient, nil, l)
	resolver := resolve.New(cache, imdbClient, imdbClient, l)

	// Per-destination executors
	traktExec := execute.New(execute.Config{
		RunID:       runID,
		MaxAttempts: cfg.Trakt.MaxRetries,
		Limit:       rate.Every(100 * time.Millisecond),
	}, traktClient, traktClient, recorder, l)
	imdbExec := execute.New(execute.Config{
		RunID: runID,
		Limit: rate.Every(300 * time.Millisecond),
	}, nil, imdbWriter, recorder, l)

	orch := syncer.New(cfg.Sync, syncer.Deps{
		RunID:        runID,
		Trakt:        traktClient,
		IMDB:         imdb.NewReader(imdb.NewExports(cfg.IMDB, l), imdbClient),
		Resolver:     resolver,
		TraktExec:    traktExec,
		IMDBExec:     imdbExec,
		IMDBCapacity: imdb.ListCapacity,
	}, l)

	summary, runErr := orch.Run(ctx)
	printSummary(l, summary)
	if runErr != nil {
		return fmt.Errorf("sync aborted: %w", runErr)
	}
	return nil
}

func cleanupEnabled(opts syncer.Options) bool {
	return opts.RemoveWatchedFromWatchlists || opts.RemoveWatchlistItemsOlderThanXDays
}

// printSummary reports the run outcome through the logger.
func printSummary(l *zap.Logger, s *syncer.Summary) {
	l.Info("Sync summary",
		zap.String("run_id", s.RunID),
		zap.String("status", string(s.Status)),
		zap.Duration("duration", s.Duration),
		zap.Duration("fetch", s.Phases.Fetch),
		zap.Duration("resolve", s.Phases.Resolve),
		zap.Duration("diff", s.Phases.Diff),
		zap.Duration("execute", s.Phases.Execute),
	)

	for _, c := range s.Categories {
		if c.Skipped {
			l.Warn("Category skipped",
				zap.String("category", string(c.Category)),
				zap.String("reason", c.SkipReason))
			continue
		}
		l.Info("Category result",
			zap.String("category", string(c.Category)),
			zap.Int("planned_to_trakt", c.PlannedToTrakt),
			zap.Int("planned_to_imdb", c.PlannedToIMDB),
			zap.Int("trakt_succeeded", c.Trakt.Succeeded),
			zap.Int("trakt_failed", c.Trakt.Failed),
			zap.Int("imdb_succeeded", c.IMDB.Succeeded),
			zap.Int("imdb_failed", c.IMDB.Failed),
		)
		for _, conflict := range c.Conflicts {
			l.Warn("Rating conflict needs manual resolution",
				zap.String("item", conflict.Item.Label()),
				zap.Int("trakt", conflict.TraktRating),
				zap.Int("imdb", conflict.IMDBRating),
				zap.String("reason", conflict.Reason))
		}
		for dir, n := range c.Overflow {
			if n > 0 {
				l.Warn("Adds dropped by capacity guard",
					zap.String("category", string(c.Category)),
					zap.String("direction", string(dir)),
					zap.Int("count", n))
			}
		}
		for _, it := range c.Unresolved {
			l.Warn("Item could not be resolved",
				zap.String("category", string(c.Category)),
				zap.String("item", it.Label()))
		}
		for _, f := range c.Flagged {
			l.Warn("Item flagged by validation",
				zap.String("category", string(c.Category)),
				zap.String("reason", string(f.Reason)),
				zap.String("item", f.Item.Label()))
		}
	}

	l.Info("Resolution stats",
		zap.Int64("cache_hits", s.Resolution.CacheHits),
		zap.Int64("fast", s.Resolution.Fast),
		zap.Int64("authoritative", s.Resolution.Authoritative),
		zap.Int64("refreshed", s.Resolution.Refreshed),
		zap.Int64("unresolved", s.Resolution.Unresolved),
	)
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Cleanup passes will remove watchlist items. Type 'yes' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
