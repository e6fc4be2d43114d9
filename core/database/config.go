package database

// Config holds configuration for the local state database.
type Config struct {
	// Path is the SQLite file backing the resolution cache and operation log.
	Path string `mapstructure:"path" default:"media-sync.db"`
	// BusyTimeoutMS is the SQLite busy timeout in milliseconds.
	BusyTimeoutMS int `mapstructure:"busy_timeout_ms" default:"5000"`
}
