package trakt

// Config holds configuration for the Trakt API client.
type Config struct {
	// BaseURL is the API root.
	BaseURL string `mapstructure:"base_url" default:"https://api.trakt.tv"`
	// ClientID is the registered application's client ID.
	ClientID string `mapstructure:"client_id" default:""`
	// AccessToken is the user's OAuth bearer token.
	AccessToken string `mapstructure:"access_token" default:""`
	// Username is the profile whose lists are synchronized.
	Username string `mapstructure:"username" default:""`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"20"`
	// MaxRetries bounds retries of transient failures.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
}
