package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"media-sync/core/media"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrUnresolvable is returned when neither resolution path can produce a
// canonical ID for an item. Callers must report the item as skipped, never
// treat this as fatal.
var ErrUnresolvable = errors.New("identifier unresolvable")

// ErrNotFound is returned by probers and fetchers when the candidate does
// not exist on the remote side.
var ErrNotFound = errors.New("title not found")

// Prober is the fast resolution path: lightweight identity checks that
// avoid full page loads.
type Prober interface {
	// ProbeID follows redirects from the candidate title URL for id and
	// returns the canonical ID it lands on.
	ProbeID(ctx context.Context, id string) (string, error)
	// ProbeTitle performs a lightweight title lookup and returns the
	// canonical ID of the single matching candidate.
	ProbeTitle(ctx context.Context, title string, year int, mediaType media.Type) (string, error)
}

// Fetcher is the authoritative resolution path: a full page fetch with
// deterministic extraction. Slower, consulted only when the fast path
// fails or is ambiguous.
type Fetcher interface {
	// FetchID loads the title page for id and extracts its canonical ID.
	FetchID(ctx context.Context, id string) (string, error)
	// FetchTitle loads the find page for the tuple and extracts the single
	// exact match.
	FetchTitle(ctx context.Context, title string, year int, mediaType media.Type) (string, error)
}

// Stats counts resolution outcomes across one run.
type Stats struct {
	CacheHits     int64
	Fast          int64
	Authoritative int64
	Refreshed     int64
	Unresolved    int64
}

// Resolver assigns canonical IDs to items that lack one and refreshes IDs
// that may have gone stale (redirected). Results are memoized in the shared
// cache; concurrent resolutions of the same key are collapsed through
// singleflight so the cache is populated at most once per key.
type Resolver struct {
	cache   *Cache
	prober  Prober
	fetcher Fetcher
	group   singleflight.Group
	log     *zap.Logger

	cacheHits     atomic.Int64
	fast          atomic.Int64
	authoritative atomic.Int64
	refreshed     atomic.Int64
	unresolved    atomic.Int64
}

// New creates a Resolver.
func New(cache *Cache, prober Prober, fetcher Fetcher, log *zap.Logger) *Resolver {
	return &Resolver{
		cache:   cache,
		prober:  prober,
		fetcher: fetcher,
		log:     log,
	}
}

// Resolve returns the canonical ID for item.
//
// Items whose source-local ID already lives in the canonical namespace are
// returned directly, bypassing the cache and the network: the source is the
// authority for its own IDs. Items carrying a canonical ID from elsewhere
// are refreshed through the redirect probe; a refresh failure keeps the
// known ID rather than failing the item. Items with no ID at all go through
// the fast title probe with authoritative fallback; when both paths fail
// the item is ErrUnresolvable.
func (r *Resolver) Resolve(ctx context.Context, item media.Item) (string, error) {
	if media.CanonicalID(item.SourceID) {
		return item.SourceID, nil
	}

	key := item.Key()
	if e, ok := r.cache.Get(key); ok {
		r.cacheHits.Add(1)
		return e.IMDBID, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// Double-check under singleflight: a concurrent caller may have
		// populated the cache between our Get and Do.
		if e, ok := r.cache.Get(key); ok {
			r.cacheHits.Add(1)
			return e.IMDBID, nil
		}
		if item.IMDBID != "" {
			return r.refresh(ctx, key, item)
		}
		return r.resolveTitle(ctx, key, item)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// refresh re-checks a known canonical ID for redirects. Failures are
// tolerated: the known ID stays valid.
func (r *Resolver) refresh(ctx context.Context, key string, item media.Item) (string, error) {
	id, err := r.prober.ProbeID(ctx, item.IMDBID)
	method := MethodFast
	if err != nil {
		id, err = r.fetcher.FetchID(ctx, item.IMDBID)
		method = MethodAuthoritative
	}
	if err != nil {
		r.log.Debug("ID refresh failed, keeping known ID",
			zap.String("imdb_id", item.IMDBID), zap.Error(err))
		return item.IMDBID, nil
	}
	if id != item.IMDBID {
		r.refreshed.Add(1)
		r.log.Debug("Outdated ID refreshed",
			zap.String("old", item.IMDBID), zap.String("new", id))
	}
	if err := r.cachePut(ctx, key, id, method); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Resolver) resolveTitle(ctx context.Context, key string, item media.Item) (string, error) {
	id, err := r.prober.ProbeTitle(ctx, item.Title, item.Year, item.Type)
	method := MethodFast
	if err != nil {
		id, err = r.fetcher.FetchTitle(ctx, item.Title, item.Year, item.Type)
		method = MethodAuthoritative
	}
	if err != nil {
		r.unresolved.Add(1)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", ErrUnresolvable
	}

	switch method {
	case MethodFast:
		r.fast.Add(1)
	case MethodAuthoritative:
		r.authoritative.Add(1)
	}
	if err := r.cachePut(ctx, key, id, method); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Resolver) cachePut(ctx context.Context, key, id string, method Method) error {
	if err := r.cache.Put(ctx, key, Entry{IMDBID: id, Method: method, ResolvedAt: time.Now()}); err != nil {
		// Persistence failure only loses the write-through, not the run
		r.log.Warn("Failed to persist cache entry", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Result pairs an item with its resolution outcome.
type Result struct {
	Item media.Item
	Err  error
}

// ResolveSet resolves every item of a set on a bounded worker pool.
// Resolved items come back with IMDBID assigned, in input order; items that
// remain unresolvable are returned separately.
func (r *Resolver) ResolveSet(ctx context.Context, items []media.Item, workers int) (resolved []media.Item, unresolvable []media.Item, err error) {
	if workers <= 0 {
		workers = 4
	}

	results := make([]Result, len(items))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, it := range items {
		g.Go(func() error {
			id, rerr := r.Resolve(gctx, it)
			mu.Lock()
			defer mu.Unlock()
			if rerr != nil {
				if errors.Is(rerr, ErrUnresolvable) {
					results[i] = Result{Item: it, Err: rerr}
					return nil
				}
				return rerr
			}
			it.IMDBID = id
			results[i] = Result{Item: it}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, res := range results {
		if res.Err != nil {
			unresolvable = append(unresolvable, res.Item)
			continue
		}
		resolved = append(resolved, res.Item)
	}
	return resolved, unresolvable, nil
}

// Stats returns a snapshot of the resolution counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		CacheHits:     r.cacheHits.Load(),
		Fast:          r.fast.Load(),
		Authoritative: r.authoritative.Load(),
		Refreshed:     r.refreshed.Load(),
		Unresolved:    r.unresolved.Load(),
	}
}
