package syncer

// Options are the user-facing sync toggles.
type Options struct {
	// SyncWatchlist enables watchlist reconciliation.
	SyncWatchlist bool `mapstructure:"watchlist" default:"true"`
	// SyncRatings enables rating reconciliation.
	SyncRatings bool `mapstructure:"ratings" default:"true"`
	// SyncReviews enables review cross-posting.
	SyncReviews bool `mapstructure:"reviews" default:"false"`
	// SyncWatchHistory enables watch history reconciliation.
	SyncWatchHistory bool `mapstructure:"watch_history" default:"true"`
	// RemoveWatchedFromWatchlists removes watched items from both
	// watchlists during the cleanup pass.
	RemoveWatchedFromWatchlists bool `mapstructure:"remove_watched_from_watchlists" default:"false"`
	// MarkRatedAsWatched generates history entries for rated movies absent
	// from both histories. Shows are never marked.
	MarkRatedAsWatched bool `mapstructure:"mark_rated_as_watched" default:"false"`
	// RemoveWatchlistItemsOlderThanXDays gates the age-based cleanup.
	RemoveWatchlistItemsOlderThanXDays bool `mapstructure:"remove_watchlist_items_older_than_x_days" default:"false"`
	// WatchlistDaysToRemove is the age cutoff for the pass above.
	WatchlistDaysToRemove int `mapstructure:"watchlist_days_to_remove" default:"30"`
	// PersistCache writes resolved identifiers through to the database.
	PersistCache bool `mapstructure:"persist_cache" default:"true"`
	// CacheMaxAgeDays bounds how old a persisted resolution may be and
	// still be trusted on warm-up.
	CacheMaxAgeDays int `mapstructure:"cache_max_age_days" default:"30"`
	// ResolverWorkers sizes the resolution worker pool.
	ResolverWorkers int `mapstructure:"resolver_workers" default:"4"`
	// DryRun plans without executing.
	DryRun bool `mapstructure:"dry_run" default:"false"`
}
