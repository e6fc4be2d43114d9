// Package database handles the local SQLite state database.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) that opens
// and migrates the per-user state file holding two tables: the resolution
// cache (disambiguation key -> canonical ID) and the operation log (every
// executed operation outcome).
//
// The database is a convenience, not a requirement: a missing or corrupt
// file degrades the run to an in-memory cache with a warning.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("State database unavailable, cache will not persist", zap.Error(err))
//	}
//
//	cache := database.NewCacheStore(db)
//	oplog := database.NewOpLog(db)
package database
