package tracklist

import (
	"tracklist/internal/providers"
	"tracklist/internal/segment"
)

// MatcherOptions configure the reconciliation rules.
type MatcherOptions struct {
	// MinConfidence discards results below this threshold before they can
	// create or extend a track.
	MinConfidence float64
	// TimeThreshold is the maximum gap in seconds for a sighting to count
	// as a continuation of an existing track rather than a replay.
	TimeThreshold float64
	// MaxDuplicates bounds how many tracklist entries a single identity
	// may produce. Replays beyond the bound still update occurrence
	// counters but append no new entry.
	MaxDuplicates int
}

// identityState tracks per-identity bookkeeping across the whole mix.
type identityState struct {
	entries   int     // tracklist entries created for this identity
	lastIndex int     // index into tracks of the most recent entry
	lastSeen  float64 // offset of the most recent sighting
}

// Matcher consolidates per-segment results into a Tracklist. It must be
// fed segments in ascending index order and is not safe for concurrent use.
type Matcher struct {
	opts   MatcherOptions
	tracks []Track
	seen   map[identity]*identityState
}

// NewMatcher constructs a matcher with the given rules.
func NewMatcher(opts MatcherOptions) *Matcher {
	return &Matcher{
		opts: opts,
		seen: make(map[identity]*identityState),
	}
}

// Consume folds one segment's results into the matcher state. Only the top
// result is authoritative; lower-ranked results are discardable hints.
func (m *Matcher) Consume(seg segment.Segment, results []providers.Result) {
	if len(results) == 0 {
		return
	}
	top := results[0]
	if !top.Succeeded || top.Confidence < m.opts.MinConfidence {
		return
	}
	if top.Title == "" && top.Artist == "" {
		return
	}

	id := identityOf(top.Title, top.Artist)
	state, known := m.seen[id]

	if known && seg.Start-state.lastSeen <= m.opts.TimeThreshold {
		// Continuation: same track still playing (or re-sighted within the
		// threshold through an interleaved misidentification).
		track := &m.tracks[state.lastIndex]
		if seg.Start > track.LastSeen {
			track.LastSeen = seg.Start
		}
		track.Occurrences++
		if top.Confidence > track.Confidence {
			track.Confidence = top.Confidence
			track.Provider = top.Provider
		}
		state.lastSeen = seg.Start
		return
	}

	if known {
		// Genuine replay later in the mix.
		state.lastSeen = seg.Start
		if state.entries >= m.opts.MaxDuplicates {
			// Beyond the duplicate bound: keep counters current on the
			// latest entry but append nothing.
			m.tracks[state.lastIndex].Occurrences++
			return
		}
		m.append(seg, top, id, state)
		return
	}

	state = &identityState{}
	m.seen[id] = state
	m.append(seg, top, id, state)
}

func (m *Matcher) append(seg segment.Segment, top providers.Result, id identity, state *identityState) {
	m.tracks = append(m.tracks, Track{
		Title:       top.Title,
		Artist:      top.Artist,
		Confidence:  top.Confidence,
		FirstSeen:   seg.Start,
		LastSeen:    seg.Start,
		Provider:    top.Provider,
		Occurrences: 1,
	})
	state.entries++
	state.lastIndex = len(m.tracks) - 1
	state.lastSeen = seg.Start
}

// Finalize returns the accumulated tracklist. Entries are already ordered
// by first sighting because segments arrive in ascending time order.
func (m *Matcher) Finalize() Tracklist {
	tracks := make([]Track, len(m.tracks))
	copy(tracks, m.tracks)
	return Tracklist{Tracks: tracks}
}
