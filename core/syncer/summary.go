package syncer

import (
	"time"

	"media-sync/core/diff"
	"media-sync/core/execute"
	"media-sync/core/media"
	"media-sync/core/resolve"
	"media-sync/core/snapshot"
)

// Status is the final verdict of one run.
type Status string

const (
	// StatusComplete means every planned operation succeeded and nothing
	// needed reporting.
	StatusComplete Status = "complete"
	// StatusPartial means the run finished but left reportables behind:
	// failures, conflicts, unresolved items, overflow or skipped categories.
	StatusPartial Status = "partial"
	// StatusAborted means the run stopped early (auth failure or
	// cancellation).
	StatusAborted Status = "aborted"
)

// PhaseTimings breaks the run duration down by phase.
type PhaseTimings struct {
	Fetch   time.Duration
	Resolve time.Duration
	Diff    time.Duration
	Execute time.Duration
}

// CategoryResult is everything one category contributed to the run.
type CategoryResult struct {
	Category media.Category

	// Skipped marks a category whose inputs could not be fetched.
	// SkipReason explains why; the rest of the fields stay zero.
	Skipped    bool
	SkipReason string

	// PlannedToTrakt and PlannedToIMDB count the operations the diff
	// produced per direction.
	PlannedToTrakt int
	PlannedToIMDB  int

	// Trakt and IMDB are the execution outcomes per destination. Zero in a
	// dry run.
	Trakt execute.Stats
	IMDB  execute.Stats

	// Reportables surfaced instead of executed.
	Conflicts  []diff.Conflict
	Overflow   map[diff.Direction]int
	Unresolved []media.Item
	Flagged    []snapshot.Flagged
}

// Summary is the run report.
type Summary struct {
	RunID     string
	Status    Status
	StartedAt time.Time
	Duration  time.Duration
	Phases    PhaseTimings

	Categories []CategoryResult

	// Resolution snapshots the resolver counters at run end.
	Resolution resolve.Stats
}

// Reportables reports whether anything needs the user's attention.
func (s *Summary) Reportables() bool {
	for _, c := range s.Categories {
		if c.Skipped || len(c.Conflicts) > 0 || len(c.Unresolved) > 0 || len(c.Flagged) > 0 {
			return true
		}
		for _, n := range c.Overflow {
			if n > 0 {
				return true
			}
		}
		if c.Trakt.Failed+c.Trakt.Skipped+c.IMDB.Failed+c.IMDB.Skipped > 0 {
			return true
		}
	}
	return false
}
