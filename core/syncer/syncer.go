package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"media-sync/core/diff"
	"media-sync/core/execute"
	"media-sync/core/logger"
	"media-sync/core/media"
	"media-sync/core/resolve"
	"media-sync/core/snapshot"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// categoryOrder fixes the processing order of enabled categories.
var categoryOrder = []media.Category{
	media.CategoryWatchlist,
	media.CategoryRatings,
	media.CategoryHistory,
	media.CategoryReviews,
}

// Reader fetches one raw list category from a service.
type Reader interface {
	FetchList(ctx context.Context, category media.Category) ([]media.Item, error)
}

// Deps are the wired collaborators of a run.
type Deps struct {
	// RunID tags log entries and recorded outcomes.
	RunID string

	Trakt    Reader
	IMDB     Reader
	Resolver *resolve.Resolver

	// TraktExec and IMDBExec apply planned operations per destination.
	TraktExec *execute.Executor
	IMDBExec  *execute.Executor

	// IMDBCapacity is the per-list item limit on the IMDb side.
	IMDBCapacity int
}

// Orchestrator drives one reconciliation run:
// fetch -> normalize -> resolve -> diff -> execute -> summary.
type Orchestrator struct {
	opts Options
	deps Deps
	log  *zap.Logger
}

// New creates an Orchestrator.
func New(opts Options, deps Deps, log *zap.Logger) *Orchestrator {
	if deps.IMDBCapacity <= 0 {
		deps.IMDBCapacity = 10000
	}
	if opts.ResolverWorkers <= 0 {
		opts.ResolverWorkers = 4
	}
	return &Orchestrator{opts: opts, deps: deps, log: logger.WithRun(log, deps.RunID)}
}

// pair holds both sides' normalized, resolved sets of one category.
type pair struct {
	trakt *snapshot.Set
	imdb  *snapshot.Set
}

// Run performs one full reconciliation and always returns a summary, even
// partial. An error is returned only for run-fatal conditions: auth
// failure, cancellation or a broken resolution phase.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: o.deps.RunID, StartedAt: start}
	defer func() {
		sum.Duration = time.Since(start)
		if o.deps.Resolver != nil {
			sum.Resolution = o.deps.Resolver.Stats()
		}
	}()

	active := o.activeCategories()
	o.log.Info("Sync run starting",
		zap.Any("categories", active), zap.Bool("dry_run", o.opts.DryRun))

	t0 := time.Now()
	rawTrakt, rawIMDB, skips, err := o.fetchAll(ctx, o.fetchCategories(active))
	sum.Phases.Fetch = time.Since(t0)
	if err != nil {
		sum.Status = StatusAborted
		return sum, err
	}

	t0 = time.Now()
	pairs, unresolved, flagged, err := o.resolveAll(ctx, rawTrakt, rawIMDB, skips)
	sum.Phases.Resolve = time.Since(t0)
	if err != nil {
		sum.Status = StatusAborted
		return sum, err
	}

	t0 = time.Now()
	plans := o.planAll(pairs, active)
	sum.Phases.Diff = time.Since(t0)

	t0 = time.Now()
	aborted := o.executeAll(ctx, sum, active, plans, skips, unresolved, flagged)
	sum.Phases.Execute = time.Since(t0)

	switch {
	case aborted || ctx.Err() != nil:
		sum.Status = StatusAborted
	case sum.Reportables():
		sum.Status = StatusPartial
	default:
		sum.Status = StatusComplete
	}
	o.log.Info("Sync run finished", zap.String("status", string(sum.Status)))
	return sum, nil
}

// activeCategories returns the categories this run works on, in fixed
// order. History becomes active through mark_rated_as_watched even when
// plain history sync is off.
func (o *Orchestrator) activeCategories() []media.Category {
	on := map[media.Category]bool{
		media.CategoryWatchlist: o.opts.SyncWatchlist,
		media.CategoryRatings:   o.opts.SyncRatings,
		media.CategoryHistory:   o.opts.SyncWatchHistory || o.opts.MarkRatedAsWatched,
		media.CategoryReviews:   o.opts.SyncReviews,
	}
	var cats []media.Category
	for _, cat := range categoryOrder {
		if on[cat] {
			cats = append(cats, cat)
		}
	}
	return cats
}

// fetchCategories adds the categories needed as diff inputs beyond the
// active ones: cleanup needs history, mark_rated_as_watched needs ratings.
func (o *Orchestrator) fetchCategories(active []media.Category) []media.Category {
	need := make(map[media.Category]bool, len(active))
	for _, cat := range active {
		need[cat] = true
	}
	if o.opts.RemoveWatchedFromWatchlists && need[media.CategoryWatchlist] {
		need[media.CategoryHistory] = true
	}
	if o.opts.MarkRatedAsWatched {
		need[media.CategoryRatings] = true
	}
	var cats []media.Category
	for _, cat := range categoryOrder {
		if need[cat] {
			cats = append(cats, cat)
		}
	}
	return cats
}

// fetchAll pulls every needed category from both services concurrently.
// A category whose fetch fails on either side is skipped with a reason;
// auth failures and cancellation abort the whole fetch.
func (o *Orchestrator) fetchAll(ctx context.Context, cats []media.Category) (rawTrakt, rawIMDB map[media.Category][]media.Item, skips map[media.Category]string, err error) {
	rawTrakt = make(map[media.Category][]media.Item, len(cats))
	rawIMDB = make(map[media.Category][]media.Item, len(cats))
	skips = make(map[media.Category]string)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(reader Reader, dst map[media.Category][]media.Item, side string) func() error {
		return func() error {
			for _, cat := range cats {
				items, ferr := reader.FetchList(gctx, cat)
				if ferr != nil {
					if errors.Is(ferr, execute.ErrAuth) || gctx.Err() != nil {
						return ferr
					}
					o.log.Warn("Category fetch failed, skipping category",
						zap.String("side", side),
						zap.String("category", string(cat)),
						zap.Error(ferr))
					mu.Lock()
					skips[cat] = side + ": " + ferr.Error()
					mu.Unlock()
					continue
				}
				mu.Lock()
				dst[cat] = items
				mu.Unlock()
			}
			return nil
		}
	}

	g.Go(fetch(o.deps.Trakt, rawTrakt, "trakt"))
	g.Go(fetch(o.deps.IMDB, rawIMDB, "imdb"))
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return rawTrakt, rawIMDB, skips, nil
}

// resolveAll normalizes both sides of every fetched category and assigns
// canonical IDs. Unresolvable items are collected for the summary, never
// fatal.
func (o *Orchestrator) resolveAll(ctx context.Context, rawTrakt, rawIMDB map[media.Category][]media.Item, skips map[media.Category]string) (map[media.Category]*pair, map[media.Category][]media.Item, map[media.Category][]snapshot.Flagged, error) {
	pairs := make(map[media.Category]*pair)
	unresolved := make(map[media.Category][]media.Item)
	flagged := make(map[media.Category][]snapshot.Flagged)

	for _, cat := range categoryOrder {
		if _, skip := skips[cat]; skip {
			continue
		}
		traktItems, okT := rawTrakt[cat]
		imdbItems, okI := rawIMDB[cat]
		if !okT && !okI {
			continue
		}

		ts := snapshot.Normalize(traktItems, media.SourceTrakt, cat)
		is := snapshot.Normalize(imdbItems, media.SourceIMDB, cat)
		flagged[cat] = append(append([]snapshot.Flagged{}, ts.Flagged...), is.Flagged...)

		for _, set := range []*snapshot.Set{ts, is} {
			resolved, unres, err := o.deps.Resolver.ResolveSet(ctx, set.Items, o.opts.ResolverWorkers)
			if err != nil {
				return nil, nil, nil, err
			}
			set.Items = resolved
			unresolved[cat] = append(unresolved[cat], unres...)
		}
		pairs[cat] = &pair{trakt: ts, imdb: is}
	}
	return pairs, unresolved, flagged, nil
}

// planAll diffs every active category.
func (o *Orchestrator) planAll(pairs map[media.Category]*pair, active []media.Category) map[media.Category]*diff.Plan {
	plans := make(map[media.Category]*diff.Plan, len(active))
	watched := o.watchedIDs(pairs)

	for _, cat := range active {
		p, ok := pairs[cat]
		if !ok {
			continue
		}

		switch cat {
		case media.CategoryHistory:
			plans[cat] = o.planHistory(p, pairs)
		case media.CategoryWatchlist:
			opts := diff.Options{
				RemoveWatched: o.opts.RemoveWatchedFromWatchlists,
				WatchedIDs:    watched,
				Headroom:      o.headroom(p),
			}
			if o.opts.RemoveWatchlistItemsOlderThanXDays {
				opts.RemoveOlderThanDays = o.opts.WatchlistDaysToRemove
			}
			plans[cat] = diff.Diff(p.trakt, p.imdb, opts)
		case media.CategoryReviews:
			plan := diff.Diff(p.trakt, p.imdb, diff.Options{})
			// Reviews travel toward the API side only; there is no review
			// write path on the other end.
			plan.ToIMDB = nil
			plans[cat] = plan
		default:
			plans[cat] = diff.Diff(p.trakt, p.imdb, diff.Options{})
		}
	}
	return plans
}

// planHistory builds the history plan, merging mark_rated_as_watched
// operations before the capacity guard runs.
func (o *Orchestrator) planHistory(p *pair, pairs map[media.Category]*pair) *diff.Plan {
	var plan *diff.Plan
	if o.opts.SyncWatchHistory {
		plan = diff.Diff(p.trakt, p.imdb, diff.Options{})
	} else {
		plan = &diff.Plan{Category: media.CategoryHistory, Overflow: make(map[diff.Direction]int)}
	}

	if o.opts.MarkRatedAsWatched {
		if ratings, ok := pairs[media.CategoryRatings]; ok {
			plan.Merge(diff.MarkRatedAsWatched(ratings.trakt, ratings.imdb, p.trakt, p.imdb))
		}
	}
	diff.ApplyHeadroom(plan, o.headroom(p))
	return plan
}

// watchedIDs unions the canonical IDs present in either watch history,
// for the remove-watched cleanup.
func (o *Orchestrator) watchedIDs(pairs map[media.Category]*pair) map[string]struct{} {
	if !o.opts.RemoveWatchedFromWatchlists {
		return nil
	}
	hist, ok := pairs[media.CategoryHistory]
	if !ok {
		return nil
	}
	ids := make(map[string]struct{}, len(hist.trakt.Items)+len(hist.imdb.Items))
	for _, it := range hist.trakt.Items {
		ids[it.IMDBID] = struct{}{}
	}
	for _, it := range hist.imdb.Items {
		ids[it.IMDBID] = struct{}{}
	}
	return ids
}

// headroom computes the remaining IMDb list capacity. Trakt lists are
// unbounded.
func (o *Orchestrator) headroom(p *pair) map[diff.Direction]int {
	room := o.deps.IMDBCapacity - len(p.imdb.Items)
	if room < 0 {
		room = 0
	}
	return map[diff.Direction]int{diff.ToIMDB: room}
}

// executeAll runs every planned category in order, both destinations
// concurrently. Returns true when the run must count as aborted.
func (o *Orchestrator) executeAll(ctx context.Context, sum *Summary, active []media.Category, plans map[media.Category]*diff.Plan, skips map[media.Category]string, unresolved map[media.Category][]media.Item, flagged map[media.Category][]snapshot.Flagged) bool {
	aborted := false
	for _, cat := range active {
		if reason, skip := skips[cat]; skip {
			sum.Categories = append(sum.Categories, CategoryResult{
				Category:   cat,
				Skipped:    true,
				SkipReason: reason,
			})
			continue
		}
		plan, ok := plans[cat]
		if !ok {
			continue
		}

		res := CategoryResult{
			Category:       cat,
			PlannedToTrakt: len(plan.ToTrakt),
			PlannedToIMDB:  len(plan.ToIMDB),
			Conflicts:      plan.Conflicts,
			Overflow:       plan.Overflow,
			Unresolved:     unresolved[cat],
			Flagged:        flagged[cat],
		}

		if !o.opts.DryRun && !aborted && !plan.Empty() {
			var traktTracked, imdbTracked []*execute.Tracked
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				res.Trakt, traktTracked = o.deps.TraktExec.ExecuteAll(ctx, plan.ToTrakt)
			}()
			go func() {
				defer wg.Done()
				res.IMDB, imdbTracked = o.deps.IMDBExec.ExecuteAll(ctx, plan.ToIMDB)
			}()
			wg.Wait()

			if authFailed(traktTracked) || authFailed(imdbTracked) {
				o.log.Error("Authentication failed, aborting run")
				aborted = true
			}
		}

		sum.Categories = append(sum.Categories, res)
		if ctx.Err() != nil {
			aborted = true
		}
	}
	return aborted
}

func authFailed(tracked []*execute.Tracked) bool {
	for _, t := range tracked {
		if t.Err != nil && errors.Is(t.Err, execute.ErrAuth) {
			return true
		}
	}
	return false
}
