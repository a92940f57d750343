package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/store"
	"github.com/verte-zerg/splitclock/internal/timing"
)

// Report contains precomputed data for history rendering.
type Report struct {
	Run      model.RunRecord
	Attempts []model.AttemptRecord
	Segments []*timing.Segment
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) (Report, error) {
	run, ok, err := st.LoadRun(ctx, cfg.Game, cfg.Category)
	if err != nil {
		return Report{}, err
	}
	if !ok {
		return Report{}, fmt.Errorf("no saved run for %s / %s", cfg.Game, cfg.Category)
	}
	attempts, err := st.ListAttempts(ctx, cfg.Game, cfg.Category, cfg.Last)
	if err != nil {
		return Report{}, err
	}
	segments := make([]*timing.Segment, len(run.Segments))
	for i, rec := range run.Segments {
		segments[i] = timing.NewSegment(rec)
	}
	return Report{Run: run, Attempts: attempts, Segments: segments}, nil
}

// PBTime sums the PB segment times. It returns false if any is missing.
func (r Report) PBTime() (time.Duration, bool) {
	if len(r.Run.Segments) == 0 {
		return 0, false
	}
	var total time.Duration
	for _, seg := range r.Run.Segments {
		if seg.PB == nil {
			return 0, false
		}
		total += *seg.PB
	}
	return total, true
}

// FinishTimes returns the finished attempt times in seconds, oldest first.
func (r Report) FinishTimes() []float64 {
	var out []float64
	for _, a := range r.Attempts {
		if a.Finished {
			out = append(out, a.Time.Seconds())
		}
	}
	return out
}

// FinishedCount returns the number of finished attempts in the report.
func (r Report) FinishedCount() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Finished {
			n++
		}
	}
	return n
}
