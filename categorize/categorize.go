// Package categorize assigns genre-like labels to tracks from keyword
// heuristics over their textual metadata.
package categorize

import (
	"sort"
	"strings"

	"tunecrate/models"
)

// Fallback is returned when no rule matches.
const Fallback = "Other"

type rule struct {
	label    string
	keywords []string
}

// Rule order is the tie-break: the first label whose keyword set hits the
// haystack wins, so a track mentioning both "rock" and "pop" is Rock.
var rules = []rule{
	{"Rock", []string{"rock", "metal", "punk", "alternative"}},
	{"Pop", []string{"pop", "dance", "electronic"}},
	{"Jazz", []string{"jazz", "blues", "swing"}},
	{"Classical", []string{"classical", "orchestral", "symphony"}},
	{"HipHop", []string{"hip hop", "rap", "r&b"}},
	{"Country", []string{"country", "folk", "bluegrass"}},
}

// Classify returns the first rule label whose keywords appear in the track's
// lowercased title, artist, or album. Pure function of those three fields.
func Classify(t models.Track) string {
	haystack := strings.ToLower(t.Title + " " + t.Artist + " " + t.Album)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(haystack, kw) {
				return r.label
			}
		}
	}
	return Fallback
}

// Categories returns the sorted distinct non-empty categories actually
// assigned to the given tracks, not the full rule set.
func Categories(tracks []models.Track) []string {
	seen := make(map[string]struct{})
	for _, t := range tracks {
		if t.Category != "" {
			seen[t.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FilterByCategory returns the tracks whose category equals label, preserving
// the input order.
func FilterByCategory(tracks []models.Track, label string) []models.Track {
	var out []models.Track
	for _, t := range tracks {
		if t.Category == label {
			out = append(out, t)
		}
	}
	return out
}
