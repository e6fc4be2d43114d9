package imdb

import (
	"context"
	"errors"
	"fmt"

	"media-sync/core/diff"
	"media-sync/core/execute"
	"media-sync/core/media"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Locator tables per interaction, CSS variants first, XPath catch-all
// last. The site ships markup changes gradually, so older selectors stay
// in the list until they stop matching for everyone.
var (
	watchlistAddLocators = []Locator{
		{ByCSS, "button[data-testid='tm-box-wl-button']"},
		{ByCSS, "button.ipc-split-button__btn[aria-label*='Add to Watchlist']"},
		{ByXPath, "//button[contains(@aria-label, 'Add to Watchlist')]"},
	}
	watchlistRemoveLocators = []Locator{
		{ByCSS, "button[data-testid='tm-box-wl-button'][aria-pressed='true']"},
		{ByCSS, "button.ipc-split-button__btn[aria-label*='Remove from Watchlist']"},
		{ByXPath, "//button[contains(@aria-label, 'Remove from Watchlist')]"},
	}
	rateOpenLocators = []Locator{
		{ByCSS, "button[data-testid='hero-rating-bar__user-rating']"},
		{ByCSS, "div[data-testid='hero-rating-bar__user-rating'] button"},
		{ByXPath, "//button[.//span[text()='Rate']]"},
	}
	rateSubmitLocators = []Locator{
		{ByCSS, "button.ipc-rating-prompt__rate-button"},
		{ByXPath, "//button[text()='Rate']"},
	}
	rateRemoveLocators = []Locator{
		{ByCSS, "button.ipc-rating-prompt__undo-button"},
		{ByXPath, "//button[contains(text(), 'Remove rating')]"},
	}
	checkinLocators = []Locator{
		{ByCSS, "button[data-testid='tm-box-ch-button']"},
		{ByXPath, "//button[contains(@aria-label, 'Check in')]"},
	}
)

// Writer is the fallback write path: one operation at a time through the
// exclusive automation session, with the AJAX watchlist fast path tried
// first while its breaker stays closed.
type Writer struct {
	cfg     Config
	client  *Client
	session Session
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *zap.Logger
}

// NewWriter creates a Writer over an authenticated session. A nil session
// degrades to Disconnected: the AJAX fast path still works, everything
// else fails per operation.
func NewWriter(cfg Config, client *Client, session Session, log *zap.Logger) *Writer {
	if session == nil {
		session = Disconnected{}
	}
	return &Writer{
		cfg:     cfg,
		client:  client,
		session: session,
		breaker: newWatchlistBreaker(cfg),
		log:     log,
	}
}

// WriteOne applies one operation. Watchlist mutations try the AJAX fast
// path first; everything else drives the session directly.
func (w *Writer) WriteOne(ctx context.Context, category media.Category, action diff.Action, item media.Item) error {
	switch category {
	case media.CategoryWatchlist:
		return w.writeWatchlist(ctx, action, item)
	case media.CategoryRatings:
		return w.writeRating(ctx, action, item)
	case media.CategoryHistory:
		return w.writeHistory(ctx, action, item)
	}
	return fmt.Errorf("%w: %s is read-only on this side", execute.ErrNotFound, category)
}

func (w *Writer) writeWatchlist(ctx context.Context, action diff.Action, item media.Item) error {
	if action != diff.ActionAdd && action != diff.ActionRemove {
		return fmt.Errorf("%w: watchlist does not support %s", execute.ErrNotFound, action)
	}

	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.client.ajaxWatchlist(ctx, action, item.IMDBID)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		w.log.Debug("Watchlist fast path open, using session", zap.String("item", item.Label()))
	} else {
		w.log.Warn("Watchlist fast path failed, using session",
			zap.String("item", item.Label()), zap.Error(err))
	}

	locators := watchlistAddLocators
	if action == diff.ActionRemove {
		locators = watchlistRemoveLocators
	}
	if err := w.navigateTitle(ctx, item); err != nil {
		return err
	}
	return w.clickFirst(ctx, locators)
}

func (w *Writer) writeRating(ctx context.Context, action diff.Action, item media.Item) error {
	if err := w.navigateTitle(ctx, item); err != nil {
		return err
	}
	if err := w.clickFirst(ctx, rateOpenLocators); err != nil {
		return err
	}
	if action == diff.ActionRemove {
		return w.clickFirst(ctx, rateRemoveLocators)
	}
	if item.Rating < 1 || item.Rating > 10 {
		return fmt.Errorf("%w: rating %d out of range", execute.ErrNotFound, item.Rating)
	}
	if err := w.clickFirst(ctx, starLocators(item.Rating)); err != nil {
		return err
	}
	return w.clickFirst(ctx, rateSubmitLocators)
}

func (w *Writer) writeHistory(ctx context.Context, action diff.Action, item media.Item) error {
	if action != diff.ActionAdd {
		return fmt.Errorf("%w: history does not support %s", execute.ErrNotFound, action)
	}
	if err := w.navigateTitle(ctx, item); err != nil {
		return err
	}
	return w.clickFirst(ctx, checkinLocators)
}

func (w *Writer) navigateTitle(ctx context.Context, item media.Item) error {
	if item.IMDBID == "" {
		return fmt.Errorf("%w: %s has no canonical id", execute.ErrNotFound, item.Label())
	}
	return w.session.Navigate(ctx, w.cfg.BaseURL+"/title/"+item.IMDBID+"/")
}

// clickFirst tries the locators in order. A stale element retries the
// same locator up to cfg.StaleRetries times; a locator that matches
// nothing advances to the next one.
func (w *Writer) clickFirst(ctx context.Context, locators []Locator) error {
	staleRetries := w.cfg.StaleRetries
	if staleRetries <= 0 {
		staleRetries = 2
	}

	var lastErr error
	for _, loc := range locators {
		for try := 0; try <= staleRetries; try++ {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			el, err := w.session.Find(ctx, loc)
			if errors.Is(err, ErrNoElement) {
				lastErr = err
				break
			}
			if err != nil {
				return err
			}
			err = el.Click(ctx)
			if err == nil {
				return nil
			}
			if errors.Is(err, ErrStale) {
				lastErr = err
				continue
			}
			return err
		}
	}
	if lastErr == nil {
		lastErr = ErrNoElement
	}
	return fmt.Errorf("%w: %v", execute.ErrNotFound, lastErr)
}

func starLocators(rating int) []Locator {
	return []Locator{
		{ByCSS, fmt.Sprintf("button[aria-label='Rate %d']", rating)},
		{ByXPath, fmt.Sprintf("//button[@aria-label='Rate %d']", rating)},
	}
}
