// Package diff compares two normalized record sets of one category and
// produces the ordered operation lists needed to make both sides
// consistent.
//
// Watchlist and history diffs are monotonic: an item missing on one side is
// added there, never removed from the other. Removals exist only in the
// configuration-gated cleanup pass (watched items, aged items). Rating
// disagreements resolve toward the most recently rated side; disagreements
// without a timestamp ordering become reported conflicts. Reviews are
// cross-posted once and never touched again.
//
// The capacity guard caps add operations at the destination's remaining
// headroom and counts the overflow so nothing is truncated silently.
package diff
