package execute

import (
	"context"
	"time"

	"media-sync/core/diff"
	"media-sync/core/media"

	"github.com/google/uuid"
)

// Outcome is the terminal result of one operation.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// State is the execution state of one operation. Transitions:
// pending -> in_flight -> {succeeded | retry_wait -> in_flight | failed |
// skipped}.
type State string

const (
	StatePending   State = "pending"
	StateInFlight  State = "in_flight"
	StateRetryWait State = "retry_wait"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
)

// Tracked wraps one planned operation with its mutable execution state.
// The executor owns this state; the underlying item record is never
// mutated.
type Tracked struct {
	// ID uniquely identifies the operation within the run.
	ID uuid.UUID
	// Op is the planned operation, immutable after creation.
	Op diff.Operation
	// State is the current state-machine state.
	State State
	// Attempts counts tries so far.
	Attempts int
	// NextAttempt is when a retry_wait operation becomes eligible again.
	NextAttempt time.Time
	// Err holds the last failure, nil on success.
	Err error
}

// Outcome maps the terminal state to an outcome.
func (t *Tracked) Outcome() Outcome {
	switch t.State {
	case StateSucceeded:
		return OutcomeSucceeded
	case StateSkipped:
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// ItemResult is the per-item result of a batch write.
type ItemResult struct {
	Item media.Item
	Err  error
}

// BatchWriter is the fast execution path: one network round trip applies a
// whole batch of same-action operations.
type BatchWriter interface {
	// SupportsBatch reports whether the destination can batch this
	// category/action combination.
	SupportsBatch(category media.Category, action diff.Action) bool
	WriteBatch(ctx context.Context, category media.Category, action diff.Action, items []media.Item) ([]ItemResult, error)
}

// SingleWriter is the fallback execution path: one operation at a time,
// for destinations or actions without batch support.
type SingleWriter interface {
	WriteOne(ctx context.Context, category media.Category, action diff.Action, item media.Item) error
}

// Record is one recorded operation outcome.
type Record struct {
	RunID    string
	Op       diff.Operation
	Outcome  Outcome
	Attempts int
	Err      string
	At       time.Time
}

// Recorder persists operation outcomes. Implementations must tolerate
// being called for every operation, including failures.
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// Stats aggregates the outcomes of one ExecuteAll call.
type Stats struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Total returns the number of operations accounted for.
func (s Stats) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

func (s *Stats) count(o Outcome) {
	switch o {
	case OutcomeSucceeded:
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
}
