package imdb

import (
	"context"
	"net/http"

	"media-sync/core/diff"

	"github.com/sony/gobreaker/v2"
)

// newWatchlistBreaker guards the AJAX watchlist fast path. After
// cfg.APIFailureLimit consecutive failures the breaker opens and every
// watchlist mutation falls through to the automation session for the rest
// of the run.
func newWatchlistBreaker(cfg Config) *gobreaker.CircuitBreaker[struct{}] {
	limit := cfg.APIFailureLimit
	if limit <= 0 {
		limit = 3
	}
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name: "imdb-watchlist-ajax",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(limit)
		},
	})
}

// ajaxWatchlist mutates the watchlist through the lightweight endpoint,
// skipping the full page load the session path needs.
func (c *Client) ajaxWatchlist(ctx context.Context, action diff.Action, imdbID string) error {
	method := http.MethodPost
	if action == diff.ActionRemove {
		method = http.MethodDelete
	}
	req, err := c.newRequest(ctx, method, c.cfg.BaseURL+"/watchlist/"+imdbID, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-imdb-client-name", "imdb-web-next")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return classify(resp)
}
