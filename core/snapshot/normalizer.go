package snapshot

import (
	"fmt"

	"media-sync/core/media"
)

// MinReviewLength is the minimum review length eligible for cross-posting.
// Shorter reviews are flagged and excluded from diffing, never dropped
// silently.
const MinReviewLength = 600

// FlagReason explains why a record was excluded from a normalized set.
type FlagReason string

const (
	FlagUnknownType   FlagReason = "unknown_media_type"
	FlagInvalidRating FlagReason = "rating_out_of_range"
	FlagShortReview   FlagReason = "review_below_minimum_length"
)

// Flagged is a record excluded by a category validity rule, kept for
// reporting.
type Flagged struct {
	Item   media.Item
	Reason FlagReason
}

func (f Flagged) String() string {
	return fmt.Sprintf("%s: %s", f.Reason, f.Item.Label())
}

// Set is one normalized record set for a single source and category.
// Items appear in source-original order; duplicates are collapsed to the
// most recently seen entry.
type Set struct {
	Source   media.Source
	Category media.Category
	Items    []media.Item
	Flagged  []Flagged
}

// ByKey indexes the set's items by identity key.
func (s *Set) ByKey() map[string]media.Item {
	idx := make(map[string]media.Item, len(s.Items))
	for _, it := range s.Items {
		idx[it.Key()] = it
	}
	return idx
}

// Normalize converts a raw item slice into a normalized Set, applying
// deduplication and category validity rules.
func Normalize(items []media.Item, source media.Source, category media.Category) *Set {
	set := &Set{Source: source, Category: category}

	// Dedupe by identity key. The slot of the first occurrence is kept so
	// output order stays stable; the value is overwritten by later
	// occurrences so the most recently seen entry wins.
	slot := make(map[string]int, len(items))
	for _, it := range items {
		if reason, ok := validate(it, category); !ok {
			set.Flagged = append(set.Flagged, Flagged{Item: it, Reason: reason})
			continue
		}
		key := it.Key()
		if i, seen := slot[key]; seen {
			set.Items[i] = it
			continue
		}
		slot[key] = len(set.Items)
		set.Items = append(set.Items, it)
	}
	return set
}

func validate(it media.Item, category media.Category) (FlagReason, bool) {
	if !media.KnownType(it.Type) {
		return FlagUnknownType, false
	}
	switch category {
	case media.CategoryRatings:
		if it.Rating < 1 || it.Rating > 10 {
			return FlagInvalidRating, false
		}
	case media.CategoryReviews:
		if len(it.Review) < MinReviewLength {
			return FlagShortReview, false
		}
	}
	return "", true
}
