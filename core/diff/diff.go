package diff

import (
	"fmt"
	"sort"
	"time"

	"media-sync/core/media"
	"media-sync/core/snapshot"
)

// Diff compares the two normalized sets of one category and produces the
// ordered operations required to make both sides consistent. Every item in
// both sets must already carry a canonical ID; unresolved items are routed
// through the resolver before diffing and never reach here.
func Diff(trakt, imdb *snapshot.Set, opts Options) *Plan {
	plan := &Plan{
		Category: trakt.Category,
		Overflow: make(map[Direction]int),
	}

	switch trakt.Category {
	case media.CategoryWatchlist:
		diffPresence(plan, trakt, imdb)
		applyCleanup(plan, trakt, imdb, opts)
	case media.CategoryHistory:
		diffPresence(plan, trakt, imdb)
		// Marking a show watched on Trakt marks every episode watched,
		// so shows never generate Trakt history adds.
		plan.ToTrakt = dropShows(plan.ToTrakt)
	case media.CategoryRatings:
		diffRatings(plan, trakt, imdb)
	case media.CategoryReviews:
		diffReviews(plan, trakt, imdb)
	}

	sortByDate(plan.ToTrakt)
	sortByDate(plan.ToIMDB)
	ApplyHeadroom(plan, opts.Headroom)
	return plan
}

// diffPresence emits an add for every ID present on exactly one side.
// Watchlist and history are monotonic: absence never implies removal.
func diffPresence(plan *Plan, trakt, imdb *snapshot.Set) {
	traktIdx := trakt.ByKey()
	imdbIdx := imdb.ByKey()

	for _, it := range trakt.Items {
		if _, ok := imdbIdx[it.IMDBID]; !ok {
			plan.ToIMDB = append(plan.ToIMDB, Operation{
				Category:  plan.Category,
				Direction: ToIMDB,
				Action:    ActionAdd,
				Item:      it,
				Reason:    "missing on imdb",
			})
		}
	}
	for _, it := range imdb.Items {
		if _, ok := traktIdx[it.IMDBID]; !ok {
			plan.ToTrakt = append(plan.ToTrakt, Operation{
				Category:  plan.Category,
				Direction: ToTrakt,
				Action:    ActionAdd,
				Item:      it,
				Reason:    "missing on trakt",
			})
		}
	}
}

// diffRatings adds missing ratings and updates stale ones. When both sides
// hold different values the more recently rated side wins, compared at
// calendar-day granularity: export dates carry no time-of-day, so a finer
// comparison would order same-day ratings arbitrarily. Same-day or missing
// timestamps give no ordering and the disagreement is reported as a
// conflict, never silently overwritten.
func diffRatings(plan *Plan, trakt, imdb *snapshot.Set) {
	traktIdx := trakt.ByKey()
	imdbIdx := imdb.ByKey()

	for _, tr := range trakt.Items {
		im, both := imdbIdx[tr.IMDBID]
		if !both {
			plan.ToIMDB = append(plan.ToIMDB, Operation{
				Category:  plan.Category,
				Direction: ToIMDB,
				Action:    ActionAdd,
				Item:      tr,
				Reason:    "not rated on imdb",
			})
			continue
		}
		if tr.Rating == im.Rating {
			continue
		}

		trDay, imDay := ratingDay(tr.RatedAt), ratingDay(im.RatedAt)
		switch {
		case !tr.RatedAt.IsZero() && !im.RatedAt.IsZero() && trDay.After(imDay):
			plan.ToIMDB = append(plan.ToIMDB, Operation{
				Category:  plan.Category,
				Direction: ToIMDB,
				Action:    ActionUpdate,
				Item:      tr,
				Reason:    fmt.Sprintf("stale rating %d, trakt has %d", im.Rating, tr.Rating),
			})
		case !tr.RatedAt.IsZero() && !im.RatedAt.IsZero() && imDay.After(trDay):
			plan.ToTrakt = append(plan.ToTrakt, Operation{
				Category:  plan.Category,
				Direction: ToTrakt,
				Action:    ActionUpdate,
				Item:      im,
				Reason:    fmt.Sprintf("stale rating %d, imdb has %d", tr.Rating, im.Rating),
			})
		default:
			// Same-day or missing timestamps give no ordering
			plan.Conflicts = append(plan.Conflicts, Conflict{
				Item:        tr,
				TraktRating: tr.Rating,
				IMDBRating:  im.Rating,
				Reason:      "no timestamp ordering between differing ratings",
			})
		}
	}

	for _, im := range imdb.Items {
		if _, both := traktIdx[im.IMDBID]; !both {
			plan.ToTrakt = append(plan.ToTrakt, Operation{
				Category:  plan.Category,
				Direction: ToTrakt,
				Action:    ActionAdd,
				Item:      im,
				Reason:    "not rated on trakt",
			})
		}
	}
}

// diffReviews cross-posts reviews present on one side only. Reviews are
// never updated or removed; length eligibility is enforced upstream by the
// normalizer and double-checked here.
func diffReviews(plan *Plan, trakt, imdb *snapshot.Set) {
	traktIdx := trakt.ByKey()
	imdbIdx := imdb.ByKey()

	for _, tr := range trakt.Items {
		if len(tr.Review) < snapshot.MinReviewLength {
			continue
		}
		if _, ok := imdbIdx[tr.IMDBID]; !ok {
			plan.ToIMDB = append(plan.ToIMDB, Operation{
				Category:  plan.Category,
				Direction: ToIMDB,
				Action:    ActionAdd,
				Item:      tr,
				Reason:    "review missing on imdb",
			})
		}
	}
	for _, im := range imdb.Items {
		if len(im.Review) < snapshot.MinReviewLength {
			continue
		}
		if _, ok := traktIdx[im.IMDBID]; !ok {
			plan.ToTrakt = append(plan.ToTrakt, Operation{
				Category:  plan.Category,
				Direction: ToTrakt,
				Action:    ActionAdd,
				Item:      im,
				Reason:    "review missing on trakt",
			})
		}
	}
}

// MarkRatedAsWatched generates history adds for rated movies absent from
// both watch histories. Shows are excluded entirely. The returned
// operations belong to the history category and are merged into its plan
// before the capacity guard runs.
func MarkRatedAsWatched(traktRatings, imdbRatings, traktHistory, imdbHistory *snapshot.Set) []Operation {
	inTrakt := traktHistory.ByKey()
	inIMDB := imdbHistory.ByKey()

	seen := make(map[string]struct{})
	var ops []Operation

	combined := make([]media.Item, 0, len(traktRatings.Items)+len(imdbRatings.Items))
	combined = append(combined, traktRatings.Items...)
	combined = append(combined, imdbRatings.Items...)

	for _, it := range combined {
		if it.Type == media.TypeShow {
			continue
		}
		if _, dup := seen[it.IMDBID]; dup {
			continue
		}
		seen[it.IMDBID] = struct{}{}

		_, watchedTrakt := inTrakt[it.IMDBID]
		_, watchedIMDB := inIMDB[it.IMDBID]
		if watchedTrakt || watchedIMDB {
			continue
		}

		watched := it
		if watched.WatchedAt.IsZero() {
			watched.WatchedAt = it.RatedAt
		}
		for _, dir := range []Direction{ToTrakt, ToIMDB} {
			ops = append(ops, Operation{
				Category:  media.CategoryHistory,
				Direction: dir,
				Action:    ActionAdd,
				Item:      watched,
				Reason:    "rated but not in watch history",
			})
		}
	}
	return ops
}

// applyCleanup runs the configuration-gated watchlist cleanup: removing
// watched items and aged items. Removal operations are emitted only for the
// side that actually lists the item.
func applyCleanup(plan *Plan, trakt, imdb *snapshot.Set, opts Options) {
	remove := make(map[string]string) // canonical ID -> reason

	if opts.RemoveWatched {
		for id := range opts.WatchedIDs {
			remove[id] = "watched"
		}
	}
	if opts.RemoveOlderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -opts.RemoveOlderThanDays)
		for _, it := range append(append([]media.Item{}, trakt.Items...), imdb.Items...) {
			if !it.AddedAt.IsZero() && it.AddedAt.Before(cutoff) {
				remove[it.IMDBID] = fmt.Sprintf("older than %d days", opts.RemoveOlderThanDays)
			}
		}
	}
	if len(remove) == 0 {
		return
	}

	// Items slated for removal must not be re-added by this same plan
	plan.ToTrakt = dropRemoved(plan.ToTrakt, remove)
	plan.ToIMDB = dropRemoved(plan.ToIMDB, remove)

	for _, it := range trakt.Items {
		if reason, ok := remove[it.IMDBID]; ok {
			plan.ToTrakt = append(plan.ToTrakt, Operation{
				Category:  plan.Category,
				Direction: ToTrakt,
				Action:    ActionRemove,
				Item:      it,
				Reason:    reason,
			})
		}
	}
	for _, it := range imdb.Items {
		if reason, ok := remove[it.IMDBID]; ok {
			plan.ToIMDB = append(plan.ToIMDB, Operation{
				Category:  plan.Category,
				Direction: ToIMDB,
				Action:    ActionRemove,
				Item:      it,
				Reason:    reason,
			})
		}
	}
}

// ApplyHeadroom caps adds at the destination's remaining capacity and
// records the overflow instead of silently truncating. Diff applies it
// automatically; callers merging extra operations into a plan re-apply it
// afterwards.
func ApplyHeadroom(plan *Plan, headroom map[Direction]int) {
	for dir, limit := range headroom {
		var ops *[]Operation
		switch dir {
		case ToTrakt:
			ops = &plan.ToTrakt
		case ToIMDB:
			ops = &plan.ToIMDB
		default:
			continue
		}

		kept := make([]Operation, 0, len(*ops))
		adds := 0
		for _, op := range *ops {
			if op.Action != ActionAdd {
				kept = append(kept, op)
				continue
			}
			if adds < limit {
				kept = append(kept, op)
				adds++
				continue
			}
			plan.Overflow[dir]++
		}
		*ops = kept
	}
}

// ratingDay reduces a rating timestamp to its UTC calendar day. One side's
// timestamps carry time-of-day and the other side's export dates do not, so
// ordering is only meaningful at day granularity.
func ratingDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dropShows(ops []Operation) []Operation {
	kept := ops[:0]
	for _, op := range ops {
		if op.Item.Type == media.TypeShow {
			continue
		}
		kept = append(kept, op)
	}
	return kept
}

func dropRemoved(ops []Operation, remove map[string]string) []Operation {
	kept := ops[:0]
	for _, op := range ops {
		if _, ok := remove[op.Item.IMDBID]; ok && op.Action == ActionAdd {
			continue
		}
		kept = append(kept, op)
	}
	return kept
}

// sortByDate orders operations oldest first by their list timestamp, so
// destination lists grow in roughly chronological order. The sort is stable
// to keep diff output deterministic.
func sortByDate(ops []Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return opDate(ops[i]).Before(opDate(ops[j]))
	})
}

func opDate(op Operation) time.Time {
	it := op.Item
	switch {
	case !it.AddedAt.IsZero():
		return it.AddedAt
	case !it.WatchedAt.IsZero():
		return it.WatchedAt
	case !it.RatedAt.IsZero():
		return it.RatedAt
	}
	return time.Time{}
}
