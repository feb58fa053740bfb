package segment

import (
	"math"
	"testing"
)

func TestPlanCoversWholeDuration(t *testing.T) {
	s, err := New(60, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plan, err := s.Plan(600)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan) == 0 {
		t.Fatal("expected non-empty plan")
	}

	last := plan[len(plan)-1]
	if got, want := last.End(), 600.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("final segment ends at %.3f, want %.3f", got, want)
	}
	for i := 1; i < len(plan); i++ {
		if plan[i].Start >= plan[i-1].End() {
			t.Fatalf("gap between segment %d and %d", i-1, i)
		}
	}
}

func TestPlanStartsAndIndexes(t *testing.T) {
	s, err := New(60, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plan, err := s.Plan(180)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	for i, seg := range plan {
		if seg.Index != i {
			t.Errorf("segment %d has index %d", i, seg.Index)
		}
		if got, want := seg.Start, float64(i)*50; math.Abs(got-want) > 1e-9 {
			t.Errorf("segment %d starts at %.3f, want %.3f", i, got, want)
		}
	}
}

func TestPlanTruncatesFinalSegment(t *testing.T) {
	s, err := New(60, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plan, err := s.Plan(130)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	// Starts at 0, 50, 100; the last covers only the remaining 30 seconds.
	if got, want := len(plan), 3; got != want {
		t.Fatalf("got %d segments, want %d", got, want)
	}
	if got, want := plan[2].Duration, 30.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("final duration %.3f, want %.3f", got, want)
	}
}

func TestPlanShorterThanOneSegment(t *testing.T) {
	s, err := New(60, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plan, err := s.Plan(25)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if got, want := len(plan), 1; got != want {
		t.Fatalf("got %d segments, want %d", got, want)
	}
	if got, want := plan[0].Duration, 25.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("duration %.3f, want %.3f", got, want)
	}
}

func TestPlanEmptyDuration(t *testing.T) {
	s, err := New(60, 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	plan, err := s.Plan(0)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty plan, got %d segments", len(plan))
	}
}

func TestNewRejectsInvalidParameters(t *testing.T) {
	cases := []struct {
		name    string
		length  float64
		overlap float64
	}{
		{"zero length", 0, 0},
		{"negative length", -10, 0},
		{"negative overlap", 60, -1},
		{"overlap equals length", 60, 60},
		{"overlap exceeds length", 60, 90},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.length, tc.overlap); err == nil {
				t.Fatalf("New(%v, %v) succeeded, want error", tc.length, tc.overlap)
			}
		})
	}
}
