// Package execute applies planned operations against a destination
// service.
//
// Each destination gets its own Executor. Destinations with a batch API
// (Trakt) take the fast path: same-action operations grouped into batches,
// one round trip each, dispatch rate bounded by a per-destination limiter.
// Destinations without one (IMDb) take the fallback path: one operation at
// a time through an exclusive automation session.
//
// Every operation carries an explicit state machine (pending -> in_flight
// -> succeeded / retry_wait / failed / skipped) with attempt count and
// next-eligible time as fields. Transient failures retry with exponential
// backoff; rate limits honor the advertised delay plus a cooldown;
// validation and not-found failures are terminal. All outcomes are
// recorded, and no failure short-circuits the remaining operations.
package execute
