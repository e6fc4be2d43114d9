package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheStore persists resolution-cache entries between runs.
type CacheStore struct {
	db *gorm.DB
}

// NewCacheStore creates a CacheStore on the given connection.
func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{db: db}
}

// Load returns all entries resolved within maxAge. A zero maxAge loads
// everything.
func (s *CacheStore) Load(ctx context.Context, maxAge time.Duration) ([]CacheEntry, error) {
	var entries []CacheEntry
	q := s.db.WithContext(ctx)
	if maxAge > 0 {
		q = q.Where("resolved_at > ?", time.Now().Add(-maxAge))
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Put upserts one entry by key.
func (s *CacheStore) Put(ctx context.Context, entry CacheEntry) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"imdb_id", "method", "resolved_at"}),
		}).
		Create(&entry).Error
}

// Count returns the number of persisted entries.
func (s *CacheStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&CacheEntry{}).Count(&n).Error
	return n, err
}

// Clear removes all persisted entries.
func (s *CacheStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&CacheEntry{}).Error
}
