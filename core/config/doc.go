// Package config provides configuration management for the synchronizer.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Sync: user-facing sync toggles (categories, cleanup passes, dry run)
//   - Trakt: API credentials and client tuning
//   - IMDB: export directory, endpoints and automation settings
//   - Database: local cache/operation-log database
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Trakt.BaseURL)
package config
