package timing

import (
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
)

// Segment is one leg of a run. Name, PB and best times and the reset count
// persist across attempts; the remaining fields are rebuilt every attempt.
type Segment struct {
	name       string
	pbRel      OptDuration
	bestRel    OptDuration
	resetCount int

	startedAt          time.Duration
	completedAt        time.Duration
	completed          bool
	pbCompletedAt      OptDuration
	completedRunBefore bool
}

// NewSegment builds a segment from its persisted record.
func NewSegment(rec model.SegmentRecord) *Segment {
	return &Segment{
		name:       rec.Name,
		pbRel:      FromPtr(rec.PB),
		bestRel:    FromPtr(rec.Best),
		resetCount: rec.ResetCount,
	}
}

// Record returns the persisted form of the segment.
func (s *Segment) Record() model.SegmentRecord {
	return model.SegmentRecord{
		Name:       s.name,
		PB:         s.pbRel.Ptr(),
		Best:       s.bestRel.Ptr(),
		ResetCount: s.resetCount,
	}
}

// Name returns the display label.
func (s *Segment) Name() string { return s.name }

// PBRel returns the segment duration in the personal best run.
func (s *Segment) PBRel() OptDuration { return s.pbRel }

// BestRel returns the fastest duration ever recorded for this segment.
func (s *Segment) BestRel() OptDuration { return s.bestRel }

// ResetCount returns how many attempts ended on this segment.
func (s *Segment) ResetCount() int { return s.resetCount }

// CompletedAt returns the absolute run time at which the segment finished.
func (s *Segment) CompletedAt() time.Duration { return s.completedAt }

// PBCompletedAt returns the cumulative PB time through this segment.
func (s *Segment) PBCompletedAt() OptDuration { return s.pbCompletedAt }

// Construct resets the per-attempt state.
func (s *Segment) Construct(pbCompletedAt OptDuration, completedRunBefore bool) {
	s.pbCompletedAt = pbCompletedAt
	s.completedRunBefore = completedRunBefore
	s.startedAt = 0
	s.completedAt = 0
	s.completed = false
}

// Begin records the absolute time the segment started.
func (s *Segment) Begin(now time.Duration) {
	s.startedAt = now
}

// Finish records the absolute time the segment finished.
func (s *Segment) Finish(now time.Duration) {
	s.completedAt = now
	s.completed = true
}

// UndoSplit marks the segment as in progress again.
func (s *Segment) UndoSplit() {
	s.completedAt = 0
	s.completed = false
}

// RelativeTime is the time spent in the segment. Only meaningful once completed.
func (s *Segment) RelativeTime() time.Duration {
	return s.completedAt - s.startedAt
}

// IsCompleted reports whether the segment finished in this attempt.
func (s *Segment) IsCompleted() bool {
	return s.completed
}

// RanBefore reports whether the segment has a best time.
func (s *Segment) RanBefore() bool {
	return s.bestRel.Valid()
}

// IsBest reports whether the current relative time matches or beats the best.
func (s *Segment) IsBest() bool {
	best, ok := s.bestRel.Get()
	return !ok || s.RelativeTime() <= best
}

// IsAhead reports whether timeAbs is earlier than the PB split for this segment.
func (s *Segment) IsAhead(timeAbs time.Duration) bool {
	pb, ok := s.pbCompletedAt.Get()
	return ok && timeAbs < pb
}

// UpdateBest stores the current relative time if it is a new best.
func (s *Segment) UpdateBest() {
	if s.completed && s.IsBest() {
		s.bestRel = Some(s.RelativeTime())
	}
}

// SetPersonalBest stores the current relative time as the PB segment time.
func (s *Segment) SetPersonalBest() {
	s.pbRel = Some(s.RelativeTime())
}

func (s *Segment) gainingRel() bool {
	pb, ok := s.pbRel.Get()
	return ok && s.RelativeTime() < pb
}

// PickColor classifies the finished segment for display.
func (s *Segment) PickColor() Pace {
	if !s.completedRunBefore {
		return PaceAheadGaining
	}
	if s.IsBest() {
		return PaceBest
	}
	if s.IsAhead(s.completedAt) {
		if s.gainingRel() {
			return PaceAheadGaining
		}
		return PaceAheadLosing
	}
	if s.gainingRel() {
		return PaceBehindGaining
	}
	return PaceBehindLosing
}

// TimeText is the right-hand column: completion time, PB split or placeholder.
func (s *Segment) TimeText() string {
	if s.completed {
		return FormatDuration(s.completedAt, false)
	}
	if !s.completedRunBefore {
		return Placeholder
	}
	return FormatOpt(s.pbCompletedAt, false)
}

// DeltaText is the signed difference to the PB split, empty until completed.
func (s *Segment) DeltaText() string {
	if !s.completed {
		return ""
	}
	if !s.completedRunBefore {
		return "* "
	}
	pb, ok := s.pbCompletedAt.Get()
	if !ok {
		return Placeholder
	}
	sign := "+"
	if s.IsAhead(s.completedAt) {
		sign = "-"
	}
	return sign + FormatDuration(s.completedAt-pb, true)
}
