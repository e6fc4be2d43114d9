package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the local SQLite state database and migrates its schema.
// The database is optional: callers should degrade to in-memory state if
// this fails, not abort the run.
func Connect(cfg Config) (*gorm.DB, error) {
	busyTimeout := cfg.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = 5000
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", cfg.Path, busyTimeout)

	// Suppress GORM logging; warnings go through the main logger instead
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	// SQLite tolerates exactly one writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&CacheEntry{}, &OperationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state schema: %w", err)
	}

	return db, nil
}
