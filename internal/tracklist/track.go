package tracklist

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Track is one reconciled entry in the final tracklist.
type Track struct {
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Confidence  float64 `json:"confidence"`
	FirstSeen   float64 `json:"first_seen_seconds"`
	LastSeen    float64 `json:"last_seen_seconds"`
	Provider    string  `json:"provider"`
	Occurrences int     `json:"occurrences"`
}

// String renders the track the way it appears in console output.
func (t Track) String() string {
	return fmt.Sprintf("%s - %s - %s (%.0f%%)",
		FormatTimestamp(t.FirstSeen), t.Artist, t.Title, t.Confidence*100)
}

// Tracklist is the finalized, time-ordered sequence of tracks.
type Tracklist struct {
	Tracks []Track `json:"tracks"`
}

// identity is the normalized (title, artist) pair used to decide whether
// two sightings refer to the same logical track.
type identity struct {
	title  string
	artist string
}

var foldCaser = cases.Fold()

func identityOf(title, artist string) identity {
	return identity{
		title:  normalizeName(title),
		artist: normalizeName(artist),
	}
}

// normalizeName case-folds and collapses interior whitespace.
func normalizeName(s string) string {
	return strings.Join(strings.Fields(foldCaser.String(s)), " ")
}

// FormatTimestamp renders an offset in seconds as HH:MM:SS.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
