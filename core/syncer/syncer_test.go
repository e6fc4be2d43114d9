package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"media-sync/core/diff"
	"media-sync/core/execute"
	"media-sync/core/media"
	"media-sync/core/resolve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// fakeReader serves canned lists per category.
type fakeReader struct {
	lists map[media.Category][]media.Item
	errs  map[media.Category]error
}

func (f *fakeReader) FetchList(_ context.Context, category media.Category) ([]media.Item, error) {
	if err, ok := f.errs[category]; ok {
		return nil, err
	}
	return f.lists[category], nil
}

// fakeWriter records applied operations; usable on both executor paths.
type fakeWriter struct {
	mu      sync.Mutex
	applied []media.Item
	err     error
}

func (f *fakeWriter) SupportsBatch(media.Category, diff.Action) bool { return true }

func (f *fakeWriter) WriteBatch(_ context.Context, _ media.Category, _ diff.Action, items []media.Item) ([]execute.ItemResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.applied = append(f.applied, items...)
	f.mu.Unlock()
	return nil, nil
}

func (f *fakeWriter) WriteOne(_ context.Context, _ media.Category, _ diff.Action, item media.Item) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.applied = append(f.applied, item)
	f.mu.Unlock()
	return nil
}

// identityEndpoints resolves every known ID to itself.
type identityEndpoints struct{}

func (identityEndpoints) ProbeID(_ context.Context, id string) (string, error) { return id, nil }
func (identityEndpoints) ProbeTitle(context.Context, string, int, media.Type) (string, error) {
	return "", resolve.ErrNotFound
}
func (identityEndpoints) FetchID(_ context.Context, id string) (string, error) { return id, nil }
func (identityEndpoints) FetchTitle(context.Context, string, int, media.Type) (string, error) {
	return "", resolve.ErrNotFound
}

type fixture struct {
	orch        *Orchestrator
	traktWriter *fakeWriter
	imdbWriter  *fakeWriter
}

func newFixture(t *testing.T, opts Options, trakt, imdb *fakeReader) *fixture {
	t.Helper()
	log := zap.NewNop()
	resolver := resolve.New(resolve.NewCache(nil), identityEndpoints{}, identityEndpoints{}, log)

	traktWriter := &fakeWriter{}
	imdbWriter := &fakeWriter{}
	execCfg := execute.Config{RunID: "run-test", Limit: rate.Inf}
	deps := Deps{
		RunID:     "run-test",
		Trakt:     trakt,
		IMDB:      imdb,
		Resolver:  resolver,
		TraktExec: execute.New(execCfg, traktWriter, traktWriter, nil, log),
		IMDBExec:  execute.New(execCfg, nil, imdbWriter, nil, log),
	}
	return &fixture{
		orch:        New(opts, deps, log),
		traktWriter: traktWriter,
		imdbWriter:  imdbWriter,
	}
}

func movie(id, title string) media.Item {
	return media.Item{IMDBID: id, SourceID: id, Title: title, Type: media.TypeMovie}
}

func category(t *testing.T, sum *Summary, cat media.Category) CategoryResult {
	t.Helper()
	for _, c := range sum.Categories {
		if c.Category == cat {
			return c
		}
	}
	t.Fatalf("category %s missing from summary", cat)
	return CategoryResult{}
}

func TestRun_Complete(t *testing.T) {
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {movie("tt0000001", "Only Trakt"), movie("tt0000002", "Both")},
		media.CategoryHistory:   {},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {movie("tt0000002", "Both"), movie("tt0000003", "Only IMDb")},
		media.CategoryHistory:   {},
	}}
	fx := newFixture(t, Options{SyncWatchlist: true, SyncWatchHistory: true}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusComplete, sum.Status)

	wl := category(t, sum, media.CategoryWatchlist)
	assert.Equal(t, 1, wl.PlannedToTrakt)
	assert.Equal(t, 1, wl.PlannedToIMDB)
	assert.Equal(t, 1, wl.Trakt.Succeeded)
	assert.Equal(t, 1, wl.IMDB.Succeeded)

	require.Len(t, fx.traktWriter.applied, 1)
	assert.Equal(t, "tt0000003", fx.traktWriter.applied[0].IMDBID)
	require.Len(t, fx.imdbWriter.applied, 1)
	assert.Equal(t, "tt0000001", fx.imdbWriter.applied[0].IMDBID)
}

func TestRun_DryRunExecutesNothing(t *testing.T) {
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {movie("tt0000001", "Only Trakt")},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{}}
	fx := newFixture(t, Options{SyncWatchlist: true, DryRun: true}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	wl := category(t, sum, media.CategoryWatchlist)
	assert.Equal(t, 1, wl.PlannedToIMDB)
	assert.Zero(t, wl.IMDB.Total())
	assert.Empty(t, fx.imdbWriter.applied)
}

func TestRun_FetchFailureSkipsOnlyThatCategory(t *testing.T) {
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {movie("tt0000001", "A")},
		media.CategoryRatings:   {},
	}}
	imdb := &fakeReader{
		lists: map[media.Category][]media.Item{
			media.CategoryWatchlist: {},
		},
		errs: map[media.Category]error{
			media.CategoryRatings: errors.New("export file not available in time"),
		},
	}
	fx := newFixture(t, Options{SyncWatchlist: true, SyncRatings: true}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusPartial, sum.Status)

	ratings := category(t, sum, media.CategoryRatings)
	assert.True(t, ratings.Skipped)
	assert.Contains(t, ratings.SkipReason, "export file not available")

	// The healthy category still synced
	wl := category(t, sum, media.CategoryWatchlist)
	assert.False(t, wl.Skipped)
	assert.Equal(t, 1, wl.IMDB.Succeeded)
}

func TestRun_AuthFailureAborts(t *testing.T) {
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {movie("tt0000001", "A")},
	}}
	fx := newFixture(t, Options{SyncWatchlist: true}, trakt, imdb)
	fx.traktWriter.err = fmt.Errorf("%w: token expired", execute.ErrAuth)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusAborted, sum.Status)
	wl := category(t, sum, media.CategoryWatchlist)
	assert.Equal(t, 1, wl.Trakt.Failed)
}

func TestRun_MarkRatedAsWatchedWithoutHistorySync(t *testing.T) {
	ratedMovie := movie("tt0000001", "Rated")
	ratedMovie.Rating = 8
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryRatings: {ratedMovie},
		media.CategoryHistory: {},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryRatings: {ratedMovie},
		media.CategoryHistory: {},
	}}
	fx := newFixture(t, Options{SyncRatings: true, MarkRatedAsWatched: true}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	hist := category(t, sum, media.CategoryHistory)
	assert.Equal(t, 1, hist.PlannedToTrakt)
	assert.Equal(t, 1, hist.PlannedToIMDB)

	// Plain history differences are not synced, only the rated movie is
	assert.Equal(t, StatusComplete, sum.Status)
}

func TestRun_UnresolvableItemsReportedNotFatal(t *testing.T) {
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {
			{Title: "No ID Anywhere", Year: 1900, Type: media.TypeMovie},
			movie("tt0000001", "Fine"),
		},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {},
	}}
	fx := newFixture(t, Options{SyncWatchlist: true}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusPartial, sum.Status)

	wl := category(t, sum, media.CategoryWatchlist)
	require.Len(t, wl.Unresolved, 1)
	assert.Equal(t, "No ID Anywhere", wl.Unresolved[0].Title)
	assert.Equal(t, 1, wl.PlannedToIMDB, "resolved items still sync")
}

func TestRun_RemoveWatchedCleanup(t *testing.T) {
	watched := movie("tt0000001", "Seen It")
	trakt := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {watched},
		media.CategoryHistory:   {watched},
	}}
	imdb := &fakeReader{lists: map[media.Category][]media.Item{
		media.CategoryWatchlist: {watched},
		media.CategoryHistory:   {},
	}}
	fx := newFixture(t, Options{
		SyncWatchlist:               true,
		SyncWatchHistory:            true,
		RemoveWatchedFromWatchlists: true,
	}, trakt, imdb)

	sum, err := fx.orch.Run(context.Background())

	require.NoError(t, err)
	wl := category(t, sum, media.CategoryWatchlist)
	assert.Equal(t, 1, wl.PlannedToTrakt, "watched item removed from trakt watchlist")
	assert.Equal(t, 1, wl.PlannedToIMDB, "watched item removed from imdb watchlist")
}
