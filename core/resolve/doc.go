// Package resolve assigns canonical IMDb IDs to items that arrive without
// one and refreshes IDs that may have been redirected.
//
// Resolution is layered: a cache lookup (O(1), no network), then a fast
// probe (HEAD redirect check or suggestion lookup), then the authoritative
// full page fetch. Every successful resolution populates the shared cache
// exactly once; concurrent requests for the same key are collapsed through
// singleflight. The cache optionally writes through to the SQLite store so
// later runs skip resolution entirely.
package resolve
