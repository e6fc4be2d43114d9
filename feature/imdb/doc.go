// Package imdb implements the IMDb side of the sync. Reads come from CSV
// list exports and scraped review pages; identity resolution uses a HEAD
// redirect probe with a find-page fallback; writes go one at a time
// through an automation session, with an AJAX watchlist fast path guarded
// by a circuit breaker.
package imdb
