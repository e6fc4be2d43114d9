// Package media defines the shared data model for list synchronization:
// categories, media types and the normalized Item record that both the
// Trakt and IMDb sides are converted into before diffing.
//
// The canonical cross-service identifier is the IMDb title ID. Items that
// arrive without one are matched by their title/year/type disambiguation
// key until the resolver assigns a canonical ID.
package media
