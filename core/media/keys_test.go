package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"tt0133093", true},
		{"tt12345678", true},
		{"tt123", false},
		{"nm0000001", false},
		{"tt00abc93", false},
		{"", false},
		{"0133093", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalID(tt.id))
		})
	}
}

func TestDisambiguationKey(t *testing.T) {
	assert.Equal(t, "the matrix|1999|movie", DisambiguationKey("The Matrix", 1999, TypeMovie))
	assert.Equal(t,
		DisambiguationKey("  Heat ", 1995, TypeMovie),
		DisambiguationKey("heat", 1995, TypeMovie))
	assert.NotEqual(t,
		DisambiguationKey("Heat", 1995, TypeMovie),
		DisambiguationKey("Heat", 1995, TypeShow))
}

func TestItem_Key(t *testing.T) {
	withID := Item{IMDBID: "tt0000001", Title: "Ignored", Year: 2001, Type: TypeMovie}
	assert.Equal(t, "tt0000001", withID.Key())

	withoutID := Item{Title: "Some Show", Year: 2010, Type: TypeShow}
	assert.Equal(t, DisambiguationKey("Some Show", 2010, TypeShow), withoutID.Key())
}

func TestItem_Label(t *testing.T) {
	movie := Item{Title: "Heat", Year: 1995, Type: TypeMovie}
	assert.Equal(t, "Heat (1995)", movie.Label())

	episode := Item{Title: "Some Show", Year: 2019, Type: TypeEpisode, Season: 2, Episode: 5}
	assert.Equal(t, "[S02E05] Some Show (2019)", episode.Label())

	noYear := Item{Title: "Untitled", Type: TypeMovie}
	assert.Equal(t, "Untitled", noYear.Label())
}
