// Package pipeline drives a full identification run: it plans the segment
// schedule, fans segments out to a bounded worker pool, reorders completed
// results back into segment order, and feeds them to the track matcher.
//
// Ordering is the load-bearing invariant. Workers complete in arbitrary
// order, but the matcher's continuation and replay rules only hold when it
// sees segments by ascending index, so results pass through a reorder
// buffer before delivery. Cancellation is cooperative: a cancelled run
// still finalizes the tracklist from the contiguous prefix of segments
// that finished.
package pipeline
