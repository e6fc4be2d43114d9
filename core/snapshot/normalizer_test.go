package snapshot

import (
	"strings"
	"testing"
	"time"

	"media-sync/core/media"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Dedupe(t *testing.T) {
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	items := []media.Item{
		{IMDBID: "tt0000001", Title: "First", Type: media.TypeMovie, AddedAt: older},
		{IMDBID: "tt0000002", Title: "Second", Type: media.TypeMovie},
		{IMDBID: "tt0000001", Title: "First Again", Type: media.TypeMovie, AddedAt: newer},
	}

	set := Normalize(items, media.SourceTrakt, media.CategoryWatchlist)

	assert.Len(t, set.Items, 2)
	// Slot of the first occurrence, value of the last
	assert.Equal(t, "tt0000001", set.Items[0].IMDBID)
	assert.Equal(t, "First Again", set.Items[0].Title)
	assert.Equal(t, newer, set.Items[0].AddedAt)
	assert.Equal(t, "tt0000002", set.Items[1].IMDBID)
}

func TestNormalize_DedupeByDisambiguationKey(t *testing.T) {
	items := []media.Item{
		{Title: "The Thing", Year: 1982, Type: media.TypeMovie},
		{Title: "the thing ", Year: 1982, Type: media.TypeMovie},
		{Title: "The Thing", Year: 2011, Type: media.TypeMovie},
	}

	set := Normalize(items, media.SourceIMDB, media.CategoryWatchlist)

	assert.Len(t, set.Items, 2)
}

func TestNormalize_Flags(t *testing.T) {
	tests := []struct {
		name     string
		category media.Category
		item     media.Item
		reason   FlagReason
	}{
		{
			name:     "unknown media type",
			category: media.CategoryWatchlist,
			item:     media.Item{IMDBID: "tt0000001", Title: "Odd", Type: "podcast"},
			reason:   FlagUnknownType,
		},
		{
			name:     "rating below range",
			category: media.CategoryRatings,
			item:     media.Item{IMDBID: "tt0000001", Title: "Zero", Type: media.TypeMovie, Rating: 0},
			reason:   FlagInvalidRating,
		},
		{
			name:     "rating above range",
			category: media.CategoryRatings,
			item:     media.Item{IMDBID: "tt0000001", Title: "Eleven", Type: media.TypeMovie, Rating: 11},
			reason:   FlagInvalidRating,
		},
		{
			name:     "short review",
			category: media.CategoryReviews,
			item:     media.Item{IMDBID: "tt0000001", Title: "Brief", Type: media.TypeMovie, Review: "nice movie"},
			reason:   FlagShortReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Normalize([]media.Item{tt.item}, media.SourceTrakt, tt.category)

			assert.Empty(t, set.Items)
			assert.Len(t, set.Flagged, 1)
			assert.Equal(t, tt.reason, set.Flagged[0].Reason)
		})
	}
}

func TestNormalize_ReviewAtMinimumLength(t *testing.T) {
	item := media.Item{
		IMDBID: "tt0000001",
		Title:  "Long Enough",
		Type:   media.TypeMovie,
		Review: strings.Repeat("x", MinReviewLength),
	}

	set := Normalize([]media.Item{item}, media.SourceIMDB, media.CategoryReviews)

	assert.Len(t, set.Items, 1)
	assert.Empty(t, set.Flagged)
}

func TestSet_ByKey(t *testing.T) {
	set := Normalize([]media.Item{
		{IMDBID: "tt0000001", Title: "A", Type: media.TypeMovie},
		{Title: "B", Year: 2000, Type: media.TypeShow},
	}, media.SourceTrakt, media.CategoryWatchlist)

	idx := set.ByKey()
	assert.Len(t, idx, 2)
	assert.Contains(t, idx, "tt0000001")
	assert.Contains(t, idx, media.DisambiguationKey("B", 2000, media.TypeShow))
}
