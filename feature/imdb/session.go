package imdb

import (
	"context"
	"errors"
)

// ErrStale is returned by a Session when an element detached from the page
// between lookup and interaction. The writer retries the same locator a
// bounded number of times before advancing to the next one.
var ErrStale = errors.New("element went stale")

// ErrNoElement is returned when a locator matches nothing on the current
// page.
var ErrNoElement = errors.New("no element matched locator")

// Strategy selects how a Locator query is interpreted.
type Strategy string

const (
	ByCSS   Strategy = "css"
	ByXPath Strategy = "xpath"
)

// Locator is one way of finding a target element. Writers carry ordered
// locator lists, CSS variants first and an XPath catch-all last, so a site
// markup change degrades to the next strategy instead of failing the
// operation outright.
type Locator struct {
	Strategy Strategy
	Query    string
}

// Element is an interactable page element.
type Element interface {
	// Click activates the element.
	Click(ctx context.Context) error
	// Fill replaces the element's text content.
	Fill(ctx context.Context, text string) error
	// Text returns the element's visible text.
	Text(ctx context.Context) (string, error)
}

// Session is the automation boundary: a logged-in interactive browser
// session. The session is exclusive; callers never drive it concurrently.
type Session interface {
	// Navigate loads url and waits for the document to settle.
	Navigate(ctx context.Context, url string) error
	// Find locates the first element matching the locator on the current
	// page. Returns ErrNoElement when nothing matches.
	Find(ctx context.Context, loc Locator) (Element, error)
}

// ErrNoSession is returned by the disconnected session. Session startup
// and login happen outside this program; without an attached session only
// the AJAX fast path can write.
var ErrNoSession = errors.New("no automation session attached")

// Disconnected is the Session used when no automation session was
// attached. Every interaction fails with ErrNoSession, which the executor
// treats as terminal and the summary reports per operation.
type Disconnected struct{}

func (Disconnected) Navigate(context.Context, string) error { return ErrNoSession }

func (Disconnected) Find(context.Context, Locator) (Element, error) { return nil, ErrNoSession }
