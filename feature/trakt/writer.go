package trakt

import (
	"context"
	"fmt"
	"time"

	"media-sync/core/diff"
	"media-sync/core/execute"
	"media-sync/core/media"
)

// SupportsBatch reports which category/action combinations go through the
// /sync batch endpoints. Reviews have no batch API and fall back to
// one-at-a-time comment posts.
func (c *Client) SupportsBatch(category media.Category, action diff.Action) bool {
	switch category {
	case media.CategoryWatchlist, media.CategoryRatings, media.CategoryHistory:
		return true
	}
	return false
}

// WriteBatch applies one batch of same-action operations in a single
// round trip. Items the API reports as not found come back as per-item
// failures; the batch itself still counts as delivered.
func (c *Client) WriteBatch(ctx context.Context, category media.Category, action diff.Action, items []media.Item) ([]execute.ItemResult, error) {
	path, err := syncPath(category, action)
	if err != nil {
		return nil, err
	}

	payload := buildPayload(category, items)
	var resp syncResponse
	if err := c.do(ctx, "POST", path, payload, &resp); err != nil {
		return nil, err
	}
	return notFoundResults(items, resp), nil
}

// WriteOne posts a single review as a comment. Only reviews take this
// path; everything else belongs to WriteBatch.
func (c *Client) WriteOne(ctx context.Context, category media.Category, action diff.Action, item media.Item) error {
	if category != media.CategoryReviews || action != diff.ActionAdd {
		return fmt.Errorf("%w: no single-item endpoint for %s %s", execute.ErrNotFound, action, category)
	}

	payload := commentPayload{
		Comment: item.Review,
		Spoiler: item.Spoiler,
	}
	body := &title{IDs: ids{IMDB: item.IMDBID}}
	switch item.Type {
	case media.TypeShow:
		payload.Show = body
	case media.TypeEpisode:
		payload.Episode = &episodeTitle{
			Season: item.Season,
			Number: item.Episode,
			IDs:    ids{IMDB: item.IMDBID},
		}
	default:
		payload.Movie = body
	}
	return c.do(ctx, "POST", "/comments", payload, nil)
}

func syncPath(category media.Category, action diff.Action) (string, error) {
	var base string
	switch category {
	case media.CategoryWatchlist:
		base = "/sync/watchlist"
	case media.CategoryRatings:
		base = "/sync/ratings"
	case media.CategoryHistory:
		base = "/sync/history"
	default:
		return "", fmt.Errorf("%w: no batch endpoint for %s", execute.ErrNotFound, category)
	}
	switch action {
	case diff.ActionAdd, diff.ActionUpdate:
		return base, nil
	case diff.ActionRemove:
		return base + "/remove", nil
	}
	return "", fmt.Errorf("%w: unknown action %s", execute.ErrNotFound, action)
}

// buildPayload groups items by media type the way the /sync endpoints
// expect them.
func buildPayload(category media.Category, items []media.Item) syncPayload {
	var payload syncPayload
	for _, it := range items {
		si := syncItem{IDs: ids{IMDB: it.IMDBID}}
		if category == media.CategoryRatings {
			si.Rating = it.Rating
			if !it.RatedAt.IsZero() {
				si.RatedAt = it.RatedAt.UTC().Format(time.RFC3339)
			}
		}
		if category == media.CategoryHistory && !it.WatchedAt.IsZero() {
			si.WatchedAt = it.WatchedAt.UTC().Format(time.RFC3339)
		}
		switch it.Type {
		case media.TypeShow:
			payload.Shows = append(payload.Shows, si)
		case media.TypeEpisode:
			payload.Episodes = append(payload.Episodes, si)
		default:
			payload.Movies = append(payload.Movies, si)
		}
	}
	return payload
}

// notFoundResults maps the API's not_found lists back onto the submitted
// items as per-item failures.
func notFoundResults(items []media.Item, resp syncResponse) []execute.ItemResult {
	missing := make(map[string]struct{})
	for _, groups := range [][]syncItem{resp.NotFound.Movies, resp.NotFound.Shows, resp.NotFound.Episodes} {
		for _, si := range groups {
			if si.IDs.IMDB != "" {
				missing[si.IDs.IMDB] = struct{}{}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var results []execute.ItemResult
	for _, it := range items {
		if _, ok := missing[it.IMDBID]; ok {
			results = append(results, execute.ItemResult{
				Item: it,
				Err:  fmt.Errorf("%w: %s not known to the API", execute.ErrNotFound, it.IMDBID),
			})
		}
	}
	return results
}
