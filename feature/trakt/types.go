package trakt

import "time"

// ids carries the identifier set Trakt attaches to every title.
type ids struct {
	Trakt int    `json:"trakt,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// title is the movie/show/episode body shared by all list entries.
type title struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   ids    `json:"ids"`
}

type episodeTitle struct {
	Title  string `json:"title"`
	Season int    `json:"season"`
	Number int    `json:"number"`
	IDs    ids    `json:"ids"`
}

// listEntry is one element of a watchlist, ratings or history response.
type listEntry struct {
	Type      string        `json:"type"`
	ListedAt  time.Time     `json:"listed_at"`
	RatedAt   time.Time     `json:"rated_at"`
	WatchedAt time.Time     `json:"watched_at"`
	Rating    int           `json:"rating"`
	Movie     *title        `json:"movie"`
	Show      *title        `json:"show"`
	Episode   *episodeTitle `json:"episode"`
}

// comment is one element of a user comments response.
type comment struct {
	Comment   string    `json:"comment"`
	Spoiler   bool      `json:"spoiler"`
	CreatedAt time.Time `json:"created_at"`
}

// commentEntry pairs a comment with the title it belongs to.
type commentEntry struct {
	Type    string        `json:"type"`
	Comment comment       `json:"comment"`
	Movie   *title        `json:"movie"`
	Show    *title        `json:"show"`
	Episode *episodeTitle `json:"episode"`
}

// syncItem is one element of a batch write payload.
type syncItem struct {
	IDs       ids    `json:"ids"`
	Rating    int    `json:"rating,omitempty"`
	RatedAt   string `json:"rated_at,omitempty"`
	WatchedAt string `json:"watched_at,omitempty"`
}

// syncPayload is the batch write body, grouped by media type.
type syncPayload struct {
	Movies   []syncItem `json:"movies,omitempty"`
	Shows    []syncItem `json:"shows,omitempty"`
	Episodes []syncItem `json:"episodes,omitempty"`
}

// commentPayload posts one review.
type commentPayload struct {
	Movie   *title        `json:"movie,omitempty"`
	Show    *title        `json:"show,omitempty"`
	Episode *episodeTitle `json:"episode,omitempty"`
	Comment string        `json:"comment"`
	Spoiler bool          `json:"spoiler"`
}

// syncResponse reports per-type counts and the items the API refused.
type syncResponse struct {
	Added    map[string]int `json:"added"`
	Updated  map[string]int `json:"updated"`
	Deleted  map[string]int `json:"deleted"`
	NotFound struct {
		Movies   []syncItem `json:"movies"`
		Shows    []syncItem `json:"shows"`
		Episodes []syncItem `json:"episodes"`
	} `json:"not_found"`
}
