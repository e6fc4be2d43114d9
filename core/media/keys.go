package media

import (
	"fmt"
	"strconv"
	"strings"
)

// DisambiguationKey derives a cache/match key for items lacking a canonical
// ID. Title matching is case-insensitive.
func DisambiguationKey(title string, year int, t Type) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strconv.Itoa(year) + "|" + string(t)
}

// CanonicalID reports whether id looks like an identifier in the canonical
// (IMDb) namespace.
func CanonicalID(id string) bool {
	if !strings.HasPrefix(id, "tt") || len(id) < 7 {
		return false
	}
	for _, r := range id[2:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func episodePrefix(season, episode int) string {
	return fmt.Sprintf("[S%02dE%02d] ", season, episode)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
