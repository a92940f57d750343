package timing

import (
	"testing"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
)

func durPtr(d time.Duration) *time.Duration {
	return &d
}

func completedSegment(pb, best time.Duration, start, end time.Duration, pbAbs time.Duration) *Segment {
	s := NewSegment(model.SegmentRecord{Name: "s", PB: durPtr(pb), Best: durPtr(best)})
	s.Construct(Some(pbAbs), true)
	s.Begin(start)
	s.Finish(end)
	return s
}

func TestSegmentLifecycle(t *testing.T) {
	s := NewSegment(model.SegmentRecord{Name: "Forsaken City"})
	s.Construct(None, false)
	if s.IsCompleted() {
		t.Fatalf("fresh segment should not be completed")
	}
	if s.RanBefore() {
		t.Fatalf("segment without best should not have run before")
	}
	s.Begin(5 * time.Second)
	s.Finish(12 * time.Second)
	if !s.IsCompleted() {
		t.Fatalf("expected completed segment")
	}
	if got := s.RelativeTime(); got != 7*time.Second {
		t.Fatalf("expected 7s, got %v", got)
	}
	if !s.IsBest() {
		t.Fatalf("first completion should be best")
	}
	s.UpdateBest()
	if best, ok := s.BestRel().Get(); !ok || best != 7*time.Second {
		t.Fatalf("expected best of 7s, got %v %v", best, ok)
	}
	s.UndoSplit()
	if s.IsCompleted() {
		t.Fatalf("undo should clear completion")
	}
}

func TestSegmentCompletedAtZero(t *testing.T) {
	s := NewSegment(model.SegmentRecord{Name: "instant"})
	s.Construct(None, false)
	s.Begin(0)
	s.Finish(0)
	if !s.IsCompleted() {
		t.Fatalf("a split at 0s still completes the segment")
	}
}

func TestUpdateBestSkipsIncompleteAndSlower(t *testing.T) {
	s := NewSegment(model.SegmentRecord{Name: "s", Best: durPtr(5 * time.Second)})
	s.Construct(None, true)
	s.Begin(0)
	s.UpdateBest()
	if best, _ := s.BestRel().Get(); best != 5*time.Second {
		t.Fatalf("incomplete segment must not change best, got %v", best)
	}
	s.Finish(6 * time.Second)
	s.UpdateBest()
	if best, _ := s.BestRel().Get(); best != 5*time.Second {
		t.Fatalf("slower segment must not change best, got %v", best)
	}
}

func TestPickColor(t *testing.T) {
	sec := time.Second
	tests := []struct {
		name string
		seg  *Segment
		want Pace
	}{
		// pb 10, best 8: ran 9s, finished at 19 against PB split 20.
		{"best", completedSegment(10*sec, 8*sec, 10*sec, 17*sec, 20*sec), PaceBest},
		{"ahead gaining", completedSegment(10*sec, 8*sec, 10*sec, 19*sec, 20*sec), PaceAheadGaining},
		{"ahead losing", completedSegment(10*sec, 8*sec, 8*sec, 19*sec, 20*sec), PaceAheadLosing},
		{"behind gaining", completedSegment(10*sec, 8*sec, 13*sec, 22*sec, 20*sec), PaceBehindGaining},
		{"behind losing", completedSegment(10*sec, 8*sec, 10*sec, 21*sec, 20*sec), PaceBehindLosing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.seg.PickColor(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPickColorNeverCompletedRun(t *testing.T) {
	timings := [][2]time.Duration{{0, 1}, {0, 100 * time.Second}, {5 * time.Second, 6 * time.Second}}
	for _, tm := range timings {
		s := NewSegment(model.SegmentRecord{Name: "s", PB: durPtr(time.Second), Best: durPtr(time.Second)})
		s.Construct(Some(time.Second), false)
		s.Begin(tm[0])
		s.Finish(tm[1])
		if got := s.PickColor(); got != PaceAheadGaining {
			t.Fatalf("expected ahead-gaining before any completed run, got %v", got)
		}
	}
}

func TestSegmentTexts(t *testing.T) {
	s := NewSegment(model.SegmentRecord{Name: "s", PB: durPtr(10 * time.Second), Best: durPtr(9 * time.Second)})
	s.Construct(Some(70*time.Second), true)
	if got := s.TimeText(); got != "01:10" {
		t.Fatalf("expected PB split text, got %q", got)
	}
	if got := s.DeltaText(); got != "" {
		t.Fatalf("expected empty delta before completion, got %q", got)
	}
	s.Begin(60 * time.Second)
	s.Finish(68500 * time.Millisecond)
	if got := s.TimeText(); got != "01:08" {
		t.Fatalf("expected completion text, got %q", got)
	}
	if got := s.DeltaText(); got != "-00:01.5" {
		t.Fatalf("expected ahead delta, got %q", got)
	}

	fresh := NewSegment(model.SegmentRecord{Name: "new"})
	fresh.Construct(None, false)
	if got := fresh.TimeText(); got != Placeholder {
		t.Fatalf("expected placeholder, got %q", got)
	}
	fresh.Finish(time.Second)
	if got := fresh.DeltaText(); got != "* " {
		t.Fatalf("expected star delta, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		detailed bool
		want     string
	}{
		{0, false, "00:00"},
		{9 * time.Second, false, "00:09"},
		{59*time.Second + 960*time.Millisecond, true, "01:00.0"},
		{59*time.Second + 960*time.Millisecond, false, "00:59"},
		{75*time.Minute + 3*time.Second + 250*time.Millisecond, true, "1:15:03.3"},
		{-12 * time.Second, true, "00:12.0"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.d, tc.detailed); got != tc.want {
			t.Fatalf("FormatDuration(%v, %v) = %q, want %q", tc.d, tc.detailed, got, tc.want)
		}
	}
}
