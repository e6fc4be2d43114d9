package imdb

import (
	"context"

	"media-sync/core/media"
)

// Reader unifies the two IMDb read paths behind one surface: CSV exports
// for list categories, scraped pages for reviews.
type Reader struct {
	exports *Exports
	client  *Client
}

// NewReader creates a Reader.
func NewReader(exports *Exports, client *Client) *Reader {
	return &Reader{exports: exports, client: client}
}

// FetchList retrieves one raw list category.
func (r *Reader) FetchList(ctx context.Context, category media.Category) ([]media.Item, error) {
	if category == media.CategoryReviews {
		return r.client.FetchReviews(ctx)
	}
	return r.exports.Load(ctx, category)
}
