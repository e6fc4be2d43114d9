package trakt

import (
	"context"
	"fmt"
	"strconv"

	"media-sync/core/media"
)

// pageSize is the page length for paginated list endpoints.
const pageSize = 100

// FetchList retrieves one full list category from the user's account,
// normalized into item records in API order.
func (c *Client) FetchList(ctx context.Context, category media.Category) ([]media.Item, error) {
	switch category {
	case media.CategoryWatchlist:
		return c.fetchEntries(ctx, "/sync/watchlist")
	case media.CategoryRatings:
		return c.fetchEntries(ctx, "/sync/ratings")
	case media.CategoryHistory:
		return c.fetchPagedEntries(ctx, "/sync/history")
	case media.CategoryReviews:
		return c.fetchComments(ctx)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
}

func (c *Client) fetchEntries(ctx context.Context, path string) ([]media.Item, error) {
	var entries []listEntry
	if err := c.do(ctx, "GET", path, nil, &entries); err != nil {
		return nil, err
	}
	items := make([]media.Item, 0, len(entries))
	for _, e := range entries {
		if it, ok := entryItem(e); ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (c *Client) fetchPagedEntries(ctx context.Context, path string) ([]media.Item, error) {
	var items []media.Item
	for page := 1; ; page++ {
		var entries []listEntry
		paged := fmt.Sprintf("%s?page=%d&limit=%d", path, page, pageSize)
		if err := c.do(ctx, "GET", paged, nil, &entries); err != nil {
			return nil, err
		}
		for _, e := range entries {
			if it, ok := entryItem(e); ok {
				items = append(items, it)
			}
		}
		if len(entries) < pageSize {
			return items, nil
		}
	}
}

func (c *Client) fetchComments(ctx context.Context) ([]media.Item, error) {
	var items []media.Item
	for page := 1; ; page++ {
		var entries []commentEntry
		path := fmt.Sprintf("/users/%s/comments/all/all?include_replies=false&page=%d&limit=%d",
			c.cfg.Username, page, pageSize)
		if err := c.do(ctx, "GET", path, nil, &entries); err != nil {
			return nil, err
		}
		for _, e := range entries {
			if it, ok := commentItem(e); ok {
				items = append(items, it)
			}
		}
		if len(entries) < pageSize {
			return items, nil
		}
	}
}

// entryItem maps one list entry onto an item record. Entries of an
// unrecognized type are dropped here; type validation proper happens at
// normalization.
func entryItem(e listEntry) (media.Item, bool) {
	it := media.Item{
		Rating:    e.Rating,
		RatedAt:   e.RatedAt,
		WatchedAt: e.WatchedAt,
		AddedAt:   e.ListedAt,
	}
	switch e.Type {
	case "movie":
		if e.Movie == nil {
			return media.Item{}, false
		}
		fillTitle(&it, e.Movie, media.TypeMovie)
	case "show":
		if e.Show == nil {
			return media.Item{}, false
		}
		fillTitle(&it, e.Show, media.TypeShow)
	case "episode":
		if e.Episode == nil {
			return media.Item{}, false
		}
		fillEpisode(&it, e.Episode, e.Show)
	default:
		return media.Item{}, false
	}
	return it, true
}

func commentItem(e commentEntry) (media.Item, bool) {
	it := media.Item{
		Review:  e.Comment.Comment,
		Spoiler: e.Comment.Spoiler,
		AddedAt: e.Comment.CreatedAt,
	}
	switch e.Type {
	case "movie":
		if e.Movie == nil {
			return media.Item{}, false
		}
		fillTitle(&it, e.Movie, media.TypeMovie)
	case "show":
		if e.Show == nil {
			return media.Item{}, false
		}
		fillTitle(&it, e.Show, media.TypeShow)
	case "episode":
		if e.Episode == nil {
			return media.Item{}, false
		}
		fillEpisode(&it, e.Episode, e.Show)
	default:
		return media.Item{}, false
	}
	return it, true
}

func fillTitle(it *media.Item, t *title, typ media.Type) {
	it.IMDBID = t.IDs.IMDB
	it.Title = t.Title
	it.Year = t.Year
	it.Type = typ
	it.SourceID = strconv.Itoa(t.IDs.Trakt)
}

// fillEpisode uses the episode's own IMDb ID when present. Year comes
// from the show, since episode bodies rarely carry one.
func fillEpisode(it *media.Item, ep *episodeTitle, show *title) {
	it.IMDBID = ep.IDs.IMDB
	it.Type = media.TypeEpisode
	it.Season = ep.Season
	it.Episode = ep.Number
	it.SourceID = strconv.Itoa(ep.IDs.Trakt)
	it.Title = ep.Title
	if show != nil {
		it.Title = show.Title
		it.Year = show.Year
	}
}
