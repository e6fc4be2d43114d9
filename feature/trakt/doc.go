// Package trakt implements the Trakt side of the sync: list reads over
// the REST API and batched writes through the /sync endpoints, with
// review comments posted one at a time.
package trakt
