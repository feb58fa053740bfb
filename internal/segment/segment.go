// Package segment computes the deterministic schedule of time-bounded
// slices submitted for identification. The schedule depends only on the
// source duration and the configured length/overlap, so re-running over the
// same audio yields identical segments (and identical cache fingerprints).
package segment

import (
	"fmt"
)

// Segment is one time-bounded slice of the source. Index is a dense
// 0-based sequence; Start strictly increases with Index.
type Segment struct {
	Index    int
	Start    float64
	Duration float64
}

// End returns the segment's end offset in seconds.
func (s Segment) End() float64 { return s.Start + s.Duration }

// Segmenter produces segment schedules for a fixed length/overlap pair.
type Segmenter struct {
	Length  float64
	Overlap float64
}

// New validates the parameters and returns a Segmenter.
func New(length, overlap float64) (Segmenter, error) {
	s := Segmenter{Length: length, Overlap: overlap}
	if err := s.validate(); err != nil {
		return Segmenter{}, err
	}
	return s, nil
}

func (s Segmenter) validate() error {
	if s.Length <= 0 {
		return fmt.Errorf("segment length must be positive, got %.3f", s.Length)
	}
	if s.Overlap < 0 {
		return fmt.Errorf("segment overlap must not be negative, got %.3f", s.Overlap)
	}
	if s.Overlap >= s.Length {
		return fmt.Errorf("segment overlap %.3f must be less than segment length %.3f", s.Overlap, s.Length)
	}
	return nil
}

// Plan returns the full segment schedule for a source of the given
// duration. Segment i starts at i*(length-overlap); the final segment is
// truncated to the remaining duration and kept whenever it is non-empty.
func (s Segmenter) Plan(totalSeconds float64) ([]Segment, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if totalSeconds <= 0 {
		return nil, nil
	}

	stride := s.Length - s.Overlap
	var plan []Segment
	for i := 0; ; i++ {
		start := float64(i) * stride
		if start >= totalSeconds {
			break
		}
		duration := s.Length
		if remaining := totalSeconds - start; remaining < duration {
			duration = remaining
		}
		plan = append(plan, Segment{Index: i, Start: start, Duration: duration})
	}
	return plan, nil
}
