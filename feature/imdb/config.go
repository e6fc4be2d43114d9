package imdb

// ListCapacity is the hard per-list item limit IMDb enforces.
const ListCapacity = 10000

// Config holds configuration for the IMDb side.
type Config struct {
	// BaseURL is the site root.
	BaseURL string `mapstructure:"base_url" default:"https://www.imdb.com"`
	// SuggestionURL is the root of the title suggestion endpoint used by
	// the fast resolution path.
	SuggestionURL string `mapstructure:"suggestion_url" default:"https://v2.sg.media-imdb.com/suggestion"`
	// UserID is the ur-prefixed profile whose lists are synchronized.
	UserID string `mapstructure:"user_id" default:""`
	// ExportDir is where list exports are dropped as CSV files.
	ExportDir string `mapstructure:"export_dir" default:"exports"`
	// ExportTimeoutSeconds bounds the wait for an export file to appear.
	// A timeout aborts only that category, never the run.
	ExportTimeoutSeconds int `mapstructure:"export_timeout_seconds" default:"180"`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"20"`
	// APIFailureLimit is the consecutive-failure count that trips the AJAX
	// watchlist fast path over to the automation session.
	APIFailureLimit int `mapstructure:"api_failure_limit" default:"3"`
	// StaleRetries bounds re-tries of a stale locator before advancing to
	// the next strategy.
	StaleRetries int `mapstructure:"stale_retries" default:"2"`
}
