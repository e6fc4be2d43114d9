package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(Config{Path: filepath.Join(t.TempDir(), "state.db")})
	require.NoError(t, err)
	return db
}

func TestConnect(t *testing.T) {
	t.Run("creates and migrates", func(t *testing.T) {
		db := testDB(t)
		assert.True(t, db.Migrator().HasTable(&CacheEntry{}))
		assert.True(t, db.Migrator().HasTable(&OperationRecord{}))
	})

	t.Run("invalid path", func(t *testing.T) {
		db, err := Connect(Config{Path: filepath.Join(t.TempDir(), "missing", "nested", "state.db")})
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestCacheStore(t *testing.T) {
	ctx := context.Background()
	store := NewCacheStore(testDB(t))

	now := time.Now()
	require.NoError(t, store.Put(ctx, CacheEntry{
		Key: "heat|1995|movie", IMDBID: "tt0113277", Method: "fast", ResolvedAt: now,
	}))
	require.NoError(t, store.Put(ctx, CacheEntry{
		Key: "old|1980|movie", IMDBID: "tt0000001", Method: "authoritative", ResolvedAt: now.AddDate(0, -2, 0),
	}))

	t.Run("load everything", func(t *testing.T) {
		entries, err := store.Load(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("load respects max age", func(t *testing.T) {
		entries, err := store.Load(ctx, 30*24*time.Hour)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "tt0113277", entries[0].IMDBID)
	})

	t.Run("put upserts by key", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, CacheEntry{
			Key: "heat|1995|movie", IMDBID: "tt9999999", Method: "authoritative", ResolvedAt: now,
		}))
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		entries, err := store.Load(ctx, 0)
		require.NoError(t, err)
		for _, e := range entries {
			if e.Key == "heat|1995|movie" {
				assert.Equal(t, "tt9999999", e.IMDBID)
			}
		}
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx))
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestOpLog(t *testing.T) {
	ctx := context.Background()
	oplog := NewOpLog(testDB(t))

	records := []OperationRecord{
		{RunID: "run-1", Category: "watchlist", Direction: "to_imdb", Action: "add", IMDBID: "tt0000001", Outcome: "succeeded", Attempts: 1, ExecutedAt: time.Now().Add(-time.Minute)},
		{RunID: "run-1", Category: "watchlist", Direction: "to_trakt", Action: "add", IMDBID: "tt0000002", Outcome: "failed", Attempts: 5, Error: "still broken", ExecutedAt: time.Now()},
		{RunID: "run-2", Category: "ratings", Direction: "to_imdb", Action: "update", IMDBID: "tt0000003", Outcome: "failed", Attempts: 1, ExecutedAt: time.Now()},
	}
	for _, rec := range records {
		require.NoError(t, oplog.Record(ctx, rec))
	}

	t.Run("failures scoped to run", func(t *testing.T) {
		failures, err := oplog.Failures(ctx, "run-1")
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Equal(t, "tt0000002", failures[0].IMDBID)
		assert.Equal(t, "still broken", failures[0].Error)
	})

	t.Run("count by outcome", func(t *testing.T) {
		counts, err := oplog.CountByOutcome(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts["succeeded"])
		assert.Equal(t, int64(2), counts["failed"])
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, oplog.Clear(ctx))
		counts, err := oplog.CountByOutcome(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)
	})
}

func TestOpLog_RecordError(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `operation_log`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	oplog := NewOpLog(db)
	err = oplog.Record(context.Background(), OperationRecord{RunID: "run-1", Outcome: "succeeded"})

	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
