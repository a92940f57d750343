package stats

import (
	"testing"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/timing"
)

func newTimer(run model.RunRecord) *timing.Timer {
	return timing.New(run, nil, nil, timing.Options{})
}

func ranRun() model.RunRecord {
	return model.RunRecord{
		Game:     "Game",
		Category: "Any%",
		Segments: []model.SegmentRecord{
			{Name: "a", PB: dur(10 * time.Second), Best: dur(9 * time.Second), ResetCount: 2},
			{Name: "b", PB: dur(20 * time.Second), Best: dur(19 * time.Second), ResetCount: 3},
			{Name: "c", PB: dur(15 * time.Second), Best: dur(14 * time.Second)},
		},
		AttemptCount:       10,
		CompletedRunBefore: true,
		WorldRecord:        dur(40 * time.Second),
		WorldRecordOwner:   "fast",
	}
}

func TestStatsIdle(t *testing.T) {
	s := New(newTimer(ranRun()))
	tests := map[Kind]string{
		BestPossibleTime:  "00:42",
		CurrentPace:       "00:45",
		SumOfBest:         "00:42",
		RunsThatReachHere: ReachPlaceholder,
		PersonalBest:      "00:45",
		WorldRecord:       "00:40 by fast",
	}
	for kind, want := range tests {
		if got := s.Text(kind); got != want {
			t.Fatalf("%s: expected %q, got %q", kind.Key(), want, got)
		}
	}
}

func TestStatsDuringRun(t *testing.T) {
	tm := newTimer(ranRun())
	s := New(tm)
	tm.Split()
	if got := s.Text(RunsThatReachHere); got != "100%" {
		t.Fatalf("expected 100%% at first segment, got %q", got)
	}
	if err := tm.Update(12 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	tm.Split()
	if got := s.Text(CurrentPace); got != "00:47" {
		t.Fatalf("expected pace 00:47, got %q", got)
	}
	if got := s.Text(BestPossibleTime); got != "00:45" {
		t.Fatalf("expected best possible 00:45, got %q", got)
	}
	if got := s.Text(RunsThatReachHere); got != "80.0%" {
		t.Fatalf("expected reach rate 80.0%%, got %q", got)
	}
	if err := tm.Update(20 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	tm.Split()
	if got := s.Text(RunsThatReachHere); got != "50.0%" {
		t.Fatalf("expected reach rate 50.0%%, got %q", got)
	}
}

func TestStatsWithoutHistory(t *testing.T) {
	run := model.RunRecord{Segments: []model.SegmentRecord{{Name: "a"}, {Name: "b"}}}
	tm := newTimer(run)
	s := New(tm)
	for _, kind := range []Kind{BestPossibleTime, CurrentPace, SumOfBest, PersonalBest, WorldRecord} {
		if got := s.Text(kind); got != timing.Placeholder {
			t.Fatalf("%s: expected placeholder, got %q", kind.Key(), got)
		}
	}
	tm.Split()
	if err := tm.Update(3 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	tm.Split()
	if got := s.Text(BestPossibleTime); got != timing.Placeholder {
		t.Fatalf("unreached segment without best keeps the placeholder, got %q", got)
	}
	if err := tm.Update(4 * time.Second); err != nil {
		t.Fatalf("update: %v", err)
	}
	tm.Split()
	if got := s.Text(BestPossibleTime); got != "00:07" {
		t.Fatalf("expected 00:07 once every segment completed, got %q", got)
	}
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds([]string{"sum-of-best", " World-Record "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != SumOfBest || kinds[1] != WorldRecord {
		t.Fatalf("unexpected kinds: %v", kinds)
	}
	if _, err := ParseKind("luck"); err == nil {
		t.Fatalf("expected error for unknown stat")
	}
	for _, k := range Kinds {
		if k.Name() == "" || k.Key() == "" {
			t.Fatalf("kind %d has no label", k)
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if got := MovingAverage([]float64{5, 6}, 1); got[0] != 5 || got[1] != 6 {
		t.Fatalf("window 1 must copy values, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("expected extremes, got %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("expected flat line, got %q", got)
	}
}
