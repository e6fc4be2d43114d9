package execute

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"media-sync/core/diff"
	"media-sync/core/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// fakeBatch implements BatchWriter with injectable behavior.
type fakeBatch struct {
	supports   func(category media.Category, action diff.Action) bool
	writeBatch func(ctx context.Context, category media.Category, action diff.Action, items []media.Item) ([]ItemResult, error)

	mu      sync.Mutex
	batches [][]media.Item
	actions []diff.Action
}

func (f *fakeBatch) SupportsBatch(category media.Category, action diff.Action) bool {
	if f.supports != nil {
		return f.supports(category, action)
	}
	return true
}

func (f *fakeBatch) WriteBatch(ctx context.Context, category media.Category, action diff.Action, items []media.Item) ([]ItemResult, error) {
	f.mu.Lock()
	f.batches = append(f.batches, items)
	f.actions = append(f.actions, action)
	f.mu.Unlock()
	if f.writeBatch != nil {
		return f.writeBatch(ctx, category, action, items)
	}
	return nil, nil
}

// fakeSingle implements SingleWriter with injectable behavior.
type fakeSingle struct {
	writeOne func(ctx context.Context, category media.Category, action diff.Action, item media.Item) error

	mu    sync.Mutex
	items []media.Item
}

func (f *fakeSingle) WriteOne(ctx context.Context, category media.Category, action diff.Action, item media.Item) error {
	f.mu.Lock()
	f.items = append(f.items, item)
	f.mu.Unlock()
	if f.writeOne != nil {
		return f.writeOne(ctx, category, action, item)
	}
	return nil
}

// captureRecorder collects recorded outcomes.
type captureRecorder struct {
	mu   sync.Mutex
	recs []Record
}

func (c *captureRecorder) Record(_ context.Context, rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
}

func makeOps(category media.Category, action diff.Action, n int) []diff.Operation {
	ops := make([]diff.Operation, n)
	for i := range ops {
		ops[i] = diff.Operation{
			Category: category,
			Action:   action,
			Item: media.Item{
				IMDBID: fmt.Sprintf("tt%07d", i+1),
				Title:  fmt.Sprintf("Item %d", i+1),
				Type:   media.TypeMovie,
			},
		}
	}
	return ops
}

func testExecutor(cfg Config, batch BatchWriter, single SingleWriter, rec Recorder) (*Executor, *[]time.Duration) {
	if cfg.Limit == 0 {
		cfg.Limit = rate.Inf
	}
	e := New(cfg, batch, single, rec, zap.NewNop())
	delays := &[]time.Duration{}
	e.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return e, delays
}

func TestExecuteAll_SingleFailureNeverAbortsTheRun(t *testing.T) {
	single := &fakeSingle{
		writeOne: func(_ context.Context, _ media.Category, _ diff.Action, item media.Item) error {
			if item.IMDBID == "tt0000003" {
				return errors.New("validation rejected")
			}
			return nil
		},
	}
	e, _ := testExecutor(Config{}, nil, single, nil)

	stats, tracked := e.ExecuteAll(context.Background(), makeOps(media.CategoryReviews, diff.ActionAdd, 10))

	assert.Equal(t, 9, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Skipped)
	// Every operation after the failure still executed
	assert.Len(t, single.items, 10)
	assert.Equal(t, StateFailed, tracked[2].State)
	assert.Equal(t, StateSucceeded, tracked[9].State)
}

func TestExecuteAll_BatchGrouping(t *testing.T) {
	batch := &fakeBatch{}
	e, _ := testExecutor(Config{BatchSize: 50}, batch, nil, nil)

	ops := makeOps(media.CategoryWatchlist, diff.ActionAdd, 120)
	ops = append(ops, makeOps(media.CategoryWatchlist, diff.ActionRemove, 10)...)

	stats, _ := e.ExecuteAll(context.Background(), ops)

	assert.Equal(t, 130, stats.Succeeded)
	// 120 adds split at the batch limit, the action change forces a flush
	require.Len(t, batch.batches, 4)
	assert.Len(t, batch.batches[0], 50)
	assert.Len(t, batch.batches[1], 50)
	assert.Len(t, batch.batches[2], 20)
	assert.Len(t, batch.batches[3], 10)
	assert.Equal(t,
		[]diff.Action{diff.ActionAdd, diff.ActionAdd, diff.ActionAdd, diff.ActionRemove},
		batch.actions)
	// Emission order preserved inside batches
	assert.Equal(t, "tt0000001", batch.batches[0][0].IMDBID)
	assert.Equal(t, "tt0000051", batch.batches[1][0].IMDBID)
}

func TestExecuteAll_MixedBatchAndSinglePreservesOrder(t *testing.T) {
	batch := &fakeBatch{
		supports: func(_ media.Category, action diff.Action) bool {
			return action != diff.ActionUpdate
		},
	}
	var order []string
	var mu sync.Mutex
	single := &fakeSingle{
		writeOne: func(_ context.Context, _ media.Category, _ diff.Action, item media.Item) error {
			mu.Lock()
			order = append(order, item.IMDBID)
			mu.Unlock()
			return nil
		},
	}
	e, _ := testExecutor(Config{}, batch, single, nil)

	ops := makeOps(media.CategoryRatings, diff.ActionAdd, 2)
	update := makeOps(media.CategoryRatings, diff.ActionUpdate, 1)
	update[0].Item.IMDBID = "tt0000099"
	ops = append(ops, update...)
	ops = append(ops, makeOps(media.CategoryRatings, diff.ActionAdd, 1)...)

	stats, _ := e.ExecuteAll(context.Background(), ops)

	assert.Equal(t, 4, stats.Succeeded)
	// The pending batch flushes before the non-batchable operation runs
	require.Len(t, batch.batches, 2)
	assert.Len(t, batch.batches[0], 2)
	assert.Equal(t, []string{"tt0000099"}, order)
}

func TestExecuteAll_PerItemBatchFailures(t *testing.T) {
	batch := &fakeBatch{
		writeBatch: func(_ context.Context, _ media.Category, _ diff.Action, items []media.Item) ([]ItemResult, error) {
			return []ItemResult{
				{Item: items[1], Err: errors.New("not known to the API")},
			}, nil
		},
	}
	rec := &captureRecorder{}
	e, _ := testExecutor(Config{}, batch, nil, rec)

	stats, tracked := e.ExecuteAll(context.Background(), makeOps(media.CategoryWatchlist, diff.ActionAdd, 3))

	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, StateSucceeded, tracked[0].State)
	assert.Equal(t, StateFailed, tracked[1].State)
	assert.Equal(t, StateSucceeded, tracked[2].State)
	assert.Len(t, rec.recs, 3)
}

func TestExecuteAll_TransientRetryWithBackoff(t *testing.T) {
	attempts := 0
	single := &fakeSingle{
		writeOne: func(context.Context, media.Category, diff.Action, media.Item) error {
			attempts++
			if attempts < 3 {
				return &TransientError{Err: errors.New("connection reset")}
			}
			return nil
		},
	}
	e, delays := testExecutor(Config{Backoff: time.Second}, nil, single, nil)

	stats, tracked := e.ExecuteAll(context.Background(), makeOps(media.CategoryReviews, diff.ActionAdd, 1))

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 3, tracked[0].Attempts)
	// Exponential: 1s after the first failure, 2s after the second
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestExecuteAll_RateLimitHonorsRetryAfterPlusCooldown(t *testing.T) {
	calls := 0
	batch := &fakeBatch{
		writeBatch: func(context.Context, media.Category, diff.Action, []media.Item) ([]ItemResult, error) {
			calls++
			if calls == 1 {
				return nil, &RateLimitedError{RetryAfter: 7 * time.Second}
			}
			return nil, nil
		},
	}
	e, delays := testExecutor(Config{Cooldown: 2 * time.Second}, batch, nil, nil)

	stats, _ := e.ExecuteAll(context.Background(), makeOps(media.CategoryWatchlist, diff.ActionAdd, 2))

	assert.Equal(t, 2, stats.Succeeded)
	require.Len(t, *delays, 1)
	assert.Equal(t, 9*time.Second, (*delays)[0])
}

func TestExecuteAll_MaxAttemptsExhausted(t *testing.T) {
	single := &fakeSingle{
		writeOne: func(context.Context, media.Category, diff.Action, media.Item) error {
			return &TransientError{Err: errors.New("still broken")}
		},
	}
	e, delays := testExecutor(Config{MaxAttempts: 5}, nil, single, nil)

	stats, tracked := e.ExecuteAll(context.Background(), makeOps(media.CategoryReviews, diff.ActionAdd, 1))

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 5, tracked[0].Attempts)
	assert.Len(t, *delays, 4)
}

func TestExecuteAll_AuthFailureIsTerminal(t *testing.T) {
	batch := &fakeBatch{
		writeBatch: func(context.Context, media.Category, diff.Action, []media.Item) ([]ItemResult, error) {
			return nil, fmt.Errorf("%w: token expired", ErrAuth)
		},
	}
	e, delays := testExecutor(Config{}, batch, nil, nil)

	stats, tracked := e.ExecuteAll(context.Background(), makeOps(media.CategoryWatchlist, diff.ActionAdd, 2))

	assert.Equal(t, 2, stats.Failed)
	assert.Empty(t, *delays, "auth failures never retry")
	assert.ErrorIs(t, tracked[0].Err, ErrAuth)
}

func TestExecuteAll_CancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	single := &fakeSingle{
		writeOne: func(_ context.Context, _ media.Category, _ diff.Action, item media.Item) error {
			if item.IMDBID == "tt0000002" {
				cancel()
			}
			return nil
		},
	}
	rec := &captureRecorder{}
	e, _ := testExecutor(Config{}, nil, single, rec)

	stats, tracked := e.ExecuteAll(ctx, makeOps(media.CategoryReviews, diff.ActionAdd, 5))

	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 3, stats.Skipped)
	assert.Equal(t, StateSkipped, tracked[4].State)
	// Skipped operations are still recorded
	assert.Len(t, rec.recs, 5)
}

func TestExecuteAll_RecordsEveryOutcome(t *testing.T) {
	rec := &captureRecorder{}
	e, _ := testExecutor(Config{RunID: "run-1"}, nil, &fakeSingle{}, rec)

	e.ExecuteAll(context.Background(), makeOps(media.CategoryReviews, diff.ActionAdd, 3))

	require.Len(t, rec.recs, 3)
	for _, r := range rec.recs {
		assert.Equal(t, "run-1", r.RunID)
		assert.Equal(t, OutcomeSucceeded, r.Outcome)
		assert.Equal(t, 1, r.Attempts)
		assert.False(t, r.At.IsZero())
	}
}
