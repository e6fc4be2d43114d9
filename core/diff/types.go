package diff

import (
	"media-sync/core/media"
)

// Direction identifies the destination service of an operation.
type Direction string

const (
	// ToTrakt targets the Trakt write API (fast batched path).
	ToTrakt Direction = "to_trakt"
	// ToIMDB targets IMDb (fallback automation path).
	ToIMDB Direction = "to_imdb"
)

// Action is the kind of mutation an operation performs.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
	ActionUpdate Action = "update"
)

// Operation is one atomic unit of sync work targeting one destination.
type Operation struct {
	// Category is the list category the operation belongs to.
	Category media.Category
	// Direction is the destination service.
	Direction Direction
	// Action is add, remove or update.
	Action Action
	// Item is the target item, canonical ID always set.
	Item media.Item
	// Reason explains why this operation is needed.
	Reason string
}

// Conflict is a rating disagreement that cannot be resolved automatically
// and is reported for manual resolution instead of being overwritten.
type Conflict struct {
	// Item is the Trakt-side record (canonical ID identifies both).
	Item media.Item
	// TraktRating and IMDBRating are the disagreeing values.
	TraktRating int
	IMDBRating  int
	// Reason explains why no winner could be picked.
	Reason string
}

// Plan is the diff output for one category: the ordered operation lists per
// direction plus everything that must be reported rather than executed.
type Plan struct {
	Category media.Category

	// ToTrakt and ToIMDB are the ordered operations per destination.
	ToTrakt []Operation
	ToIMDB  []Operation

	// Conflicts are manual-resolution rating disagreements.
	Conflicts []Conflict

	// Overflow counts adds dropped by the capacity guard, per destination.
	Overflow map[Direction]int
}

// Empty reports whether the plan contains no operations.
func (p *Plan) Empty() bool {
	return len(p.ToTrakt) == 0 && len(p.ToIMDB) == 0
}

// Merge appends extra operations onto the plan's per-direction lists,
// preserving their order after the plan's own operations.
func (p *Plan) Merge(ops []Operation) {
	for _, op := range ops {
		switch op.Direction {
		case ToTrakt:
			p.ToTrakt = append(p.ToTrakt, op)
		case ToIMDB:
			p.ToIMDB = append(p.ToIMDB, op)
		}
	}
}

// Options control the optional diff behaviors.
type Options struct {
	// RemoveWatched enables the cleanup pass that removes watched items
	// from both watchlists.
	RemoveWatched bool

	// WatchedIDs is the union of canonical IDs present in either watch
	// history, consulted by the RemoveWatched pass.
	WatchedIDs map[string]struct{}

	// RemoveOlderThanDays removes watchlist items older than this many
	// days regardless of watched status. Zero disables the pass.
	RemoveOlderThanDays int

	// Headroom caps the number of add operations per destination. A
	// missing entry means unlimited.
	Headroom map[Direction]int
}
