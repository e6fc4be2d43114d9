package execute

import (
	"context"
	"errors"
	"time"

	"media-sync/core/diff"
	"media-sync/core/media"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config tunes one destination's executor.
type Config struct {
	// RunID tags recorded outcomes.
	RunID string
	// BatchSize caps the fast-path batch. Ignored without a BatchWriter.
	BatchSize int
	// MaxAttempts bounds retries per operation or batch.
	MaxAttempts int
	// Backoff is the base retry delay, doubled per attempt.
	Backoff time.Duration
	// Cooldown is the extra wait after a rate-limit response.
	Cooldown time.Duration
	// Limit is the destination's dispatch rate.
	Limit rate.Limit
}

// Executor applies planned operations against one destination, preferring
// the batched fast path and falling back to the single-item path. A failed
// operation never aborts the batch or the run; every outcome is recorded.
type Executor struct {
	cfg      Config
	batch    BatchWriter  // nil when the destination has no batch API
	single   SingleWriter // nil when the destination is batch-only
	limiter  *rate.Limiter
	recorder Recorder
	log      *zap.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an Executor. Either writer may be nil, not both.
func New(cfg Config, batch BatchWriter, single SingleWriter, recorder Recorder, log *zap.Logger) *Executor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Limit <= 0 {
		cfg.Limit = rate.Every(100 * time.Millisecond)
	}
	return &Executor{
		cfg:      cfg,
		batch:    batch,
		single:   single,
		limiter:  rate.NewLimiter(cfg.Limit, 1),
		recorder: recorder,
		log:      log,
		sleep:    sleepCtx,
	}
}

// ExecuteAll runs the operations in emitted order and returns aggregate
// stats. Batchable operations are grouped into same-action batches without
// reordering; everything else goes through the single-item path.
// Cancellation marks the remaining operations skipped and still records
// them.
func (e *Executor) ExecuteAll(ctx context.Context, ops []diff.Operation) (Stats, []*Tracked) {
	tracked := make([]*Tracked, len(ops))
	for i, op := range ops {
		tracked[i] = &Tracked{ID: uuid.New(), Op: op, State: StatePending}
	}

	var batch []*Tracked
	flush := func() {
		if len(batch) > 0 {
			e.dispatchBatch(ctx, batch)
			batch = nil
		}
	}

	for _, t := range tracked {
		if ctx.Err() != nil {
			break
		}
		if e.batchable(t.Op) {
			if len(batch) > 0 && (batch[0].Op.Action != t.Op.Action || len(batch) >= e.cfg.BatchSize) {
				flush()
			}
			batch = append(batch, t)
			continue
		}
		flush()
		if e.single == nil {
			t.State = StateFailed
			t.Err = ErrNotFound
			continue
		}
		e.dispatchSingle(ctx, t)
	}
	flush()
	e.skipRemaining(tracked)

	var stats Stats
	for _, t := range tracked {
		stats.count(t.Outcome())
		e.record(ctx, t)
	}
	return stats, tracked
}

func (e *Executor) batchable(op diff.Operation) bool {
	return e.batch != nil && e.batch.SupportsBatch(op.Category, op.Action)
}

func (e *Executor) dispatchBatch(ctx context.Context, batch []*Tracked) {
	items := make([]media.Item, len(batch))
	for i, t := range batch {
		items[i] = t.Op.Item
		t.State = StateInFlight
	}
	op := batch[0].Op

	for {
		if err := e.limiter.Wait(ctx); err != nil {
			e.markAll(batch, StateSkipped, err)
			return
		}

		for _, t := range batch {
			t.State = StateInFlight
			t.Attempts++
		}
		results, err := e.batch.WriteBatch(ctx, op.Category, op.Action, items)
		if err == nil {
			e.applyResults(batch, results)
			return
		}
		if errors.Is(err, ErrAuth) || !Transient(err) || ctx.Err() != nil {
			e.markAll(batch, StateFailed, err)
			return
		}
		if batch[0].Attempts >= e.cfg.MaxAttempts {
			e.markAll(batch, StateFailed, err)
			return
		}
		if !e.waitRetry(ctx, batch, err) {
			e.markAll(batch, StateSkipped, ctx.Err())
			return
		}
	}
}

// applyResults maps per-item batch results onto the tracked operations.
// A missing result counts as success: the batch as a whole went through.
func (e *Executor) applyResults(batch []*Tracked, results []ItemResult) {
	failed := make(map[string]error)
	for _, res := range results {
		if res.Err != nil {
			failed[res.Item.IMDBID] = res.Err
		}
	}
	for _, t := range batch {
		if err, ok := failed[t.Op.Item.IMDBID]; ok {
			t.State = StateFailed
			t.Err = err
			e.log.Warn("Operation failed",
				zap.String("action", string(t.Op.Action)),
				zap.String("category", string(t.Op.Category)),
				zap.String("item", t.Op.Item.Label()),
				zap.Error(err))
			continue
		}
		t.State = StateSucceeded
		e.log.Debug("Operation applied",
			zap.String("action", string(t.Op.Action)),
			zap.String("category", string(t.Op.Category)),
			zap.String("item", t.Op.Item.Label()))
	}
}

// dispatchSingle drives the fallback path for one operation. The session
// behind the SingleWriter is exclusive, so this never runs concurrently
// for one destination.
func (e *Executor) dispatchSingle(ctx context.Context, t *Tracked) {
	for {
		if err := e.limiter.Wait(ctx); err != nil {
			t.State = StateSkipped
			t.Err = err
			return
		}

		t.State = StateInFlight
		t.Attempts++
		err := e.single.WriteOne(ctx, t.Op.Category, t.Op.Action, t.Op.Item)
		if err == nil {
			t.State = StateSucceeded
			e.log.Debug("Operation applied",
				zap.String("action", string(t.Op.Action)),
				zap.String("category", string(t.Op.Category)),
				zap.String("item", t.Op.Item.Label()))
			return
		}
		if errors.Is(err, ErrAuth) || !Transient(err) || ctx.Err() != nil {
			t.State = StateFailed
			t.Err = err
			e.log.Warn("Operation failed",
				zap.String("action", string(t.Op.Action)),
				zap.String("category", string(t.Op.Category)),
				zap.String("item", t.Op.Item.Label()),
				zap.Error(err))
			return
		}
		if t.Attempts >= e.cfg.MaxAttempts {
			t.State = StateFailed
			t.Err = err
			return
		}
		if !e.waitRetry(ctx, []*Tracked{t}, err) {
			t.State = StateSkipped
			t.Err = ctx.Err()
			return
		}
	}
}

// waitRetry parks the operations in retry_wait for the computed delay.
// Returns false when the context was canceled while waiting.
func (e *Executor) waitRetry(ctx context.Context, batch []*Tracked, cause error) bool {
	delay := e.cfg.Backoff * (1 << (batch[0].Attempts - 1))
	if after, limited := retryAfterOf(cause); limited {
		if after > 0 {
			delay = after
		}
		delay += e.cfg.Cooldown
	}

	eligible := time.Now().Add(delay)
	for _, t := range batch {
		t.State = StateRetryWait
		t.NextAttempt = eligible
	}
	e.log.Warn("Retrying after failure",
		zap.Duration("delay", delay),
		zap.Int("attempt", batch[0].Attempts),
		zap.Error(cause))

	return e.sleep(ctx, delay) == nil
}

func (e *Executor) markAll(batch []*Tracked, state State, err error) {
	for _, t := range batch {
		t.State = state
		t.Err = err
	}
}

func (e *Executor) skipRemaining(ops []*Tracked) {
	for _, t := range ops {
		if t.State == StatePending {
			t.State = StateSkipped
			t.Err = context.Canceled
		}
	}
}

func (e *Executor) record(ctx context.Context, t *Tracked) {
	if e.recorder == nil {
		return
	}
	var errStr string
	if t.Err != nil {
		errStr = t.Err.Error()
	}
	e.recorder.Record(ctx, Record{
		RunID:    e.cfg.RunID,
		Op:       t.Op,
		Outcome:  t.Outcome(),
		Attempts: t.Attempts,
		Err:      errStr,
		At:       time.Now(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
