// Package tracklist reconciles noisy per-segment identification results
// into the final ordered, deduplicated list of tracks for a mix.
//
// The Matcher consumes results strictly in segment order and applies the
// continuation/replay rules: a repeat sighting of the current track within
// the time threshold extends it, a sighting after a longer gap is a
// legitimate replay and gets its own entry (up to the duplicate bound),
// and anything else starts a new track. Matcher state is owned by the
// single delivery path and is not safe for concurrent use.
package tracklist
