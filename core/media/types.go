package media

import "time"

// Category identifies one of the synchronized list categories.
type Category string

const (
	// CategoryWatchlist is the to-watch list on both services.
	CategoryWatchlist Category = "watchlist"
	// CategoryRatings is the 1-10 star rating list.
	CategoryRatings Category = "ratings"
	// CategoryHistory is the watch history (check-ins / plays).
	CategoryHistory Category = "history"
	// CategoryReviews is the written review / comment list.
	CategoryReviews Category = "reviews"
)

// Type identifies the kind of title an item refers to.
type Type string

const (
	TypeMovie   Type = "movie"
	TypeShow    Type = "show"
	TypeEpisode Type = "episode"
)

// KnownType reports whether t is one of the recognized media types.
func KnownType(t Type) bool {
	switch t {
	case TypeMovie, TypeShow, TypeEpisode:
		return true
	}
	return false
}

// Source identifies which service an item record originated from.
type Source string

const (
	SourceTrakt Source = "trakt"
	SourceIMDB  Source = "imdb"
)

// Item is one entry in a list category, normalized across both services.
type Item struct {
	// IMDBID is the canonical cross-service identifier (tt-prefixed).
	// Empty until resolved for items that arrive without one.
	IMDBID string

	// Title is the display title, used for disambiguation when IMDBID is empty.
	Title string

	// Year is the release year; zero when unknown (common for Trakt episodes).
	Year int

	// Type is the media type (movie, show, episode).
	Type Type

	// SourceID is the identifier within the originating service
	// (Trakt numeric ID as a string, or the IMDb const for IMDb exports).
	SourceID string

	// Season and Episode are set for episode items only.
	Season  int
	Episode int

	// Rating is the 1-10 rating; zero means unrated. Ratings category only.
	Rating int

	// RatedAt is when the rating was given. Ratings category only.
	RatedAt time.Time

	// WatchedAt is when the item was watched. History category only.
	WatchedAt time.Time

	// AddedAt is when the item was added to its list (watchlist age cleanup).
	AddedAt time.Time

	// Review is the review text. Reviews category only.
	Review string

	// Spoiler marks a review as containing spoilers.
	Spoiler bool
}

// Key returns the identity key for the item: the canonical ID when known,
// otherwise the title/year/type disambiguation tuple.
func (it Item) Key() string {
	if it.IMDBID != "" {
		return it.IMDBID
	}
	return DisambiguationKey(it.Title, it.Year, it.Type)
}

// Resolved reports whether the item already carries a canonical ID.
func (it Item) Resolved() bool {
	return it.IMDBID != ""
}

// Label returns a human-readable description used in logs, e.g.
// "[S02E05] Some Show (2019)".
func (it Item) Label() string {
	label := it.Title
	if it.Season > 0 && it.Episode > 0 {
		label = episodePrefix(it.Season, it.Episode) + label
	}
	if it.Year > 0 {
		label += " (" + itoa(it.Year) + ")"
	}
	return label
}
