// Package stats contains run statistics and history reporting.
package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/splitclock/internal/timing"
)

// Kind is a statistic shown under the clock.
type Kind int

const (
	BestPossibleTime Kind = iota
	CurrentPace
	SumOfBest
	RunsThatReachHere
	PersonalBest
	WorldRecord
)

// Kinds lists every statistic in display order.
var Kinds = []Kind{BestPossibleTime, CurrentPace, SumOfBest, RunsThatReachHere, PersonalBest, WorldRecord}

// ReachPlaceholder is shown for the reach rate before a run starts.
const ReachPlaceholder = "****"

const sparkChars = " .:-=+*#%@"

// Key returns the config identifier of the statistic.
func (k Kind) Key() string {
	switch k {
	case BestPossibleTime:
		return "best-possible-time"
	case CurrentPace:
		return "current-pace"
	case SumOfBest:
		return "sum-of-best"
	case RunsThatReachHere:
		return "runs-that-reach-here"
	case PersonalBest:
		return "personal-best"
	case WorldRecord:
		return "world-record"
	default:
		return ""
	}
}

// Name returns the display label of the statistic.
func (k Kind) Name() string {
	switch k {
	case BestPossibleTime:
		return "Best possible time:"
	case CurrentPace:
		return "Current pace:"
	case SumOfBest:
		return "Sum of best:"
	case RunsThatReachHere:
		return "Sgmt. reach rate:"
	case PersonalBest:
		return "Personal best:"
	case WorldRecord:
		return "World record:"
	default:
		return ""
	}
}

// ParseKind resolves a config identifier such as "sum-of-best".
func ParseKind(key string) (Kind, error) {
	key = strings.TrimSpace(strings.ToLower(key))
	for _, k := range Kinds {
		if k.Key() == key {
			return k, nil
		}
	}
	valid := make([]string, len(Kinds))
	for i, k := range Kinds {
		valid[i] = k.Key()
	}
	return 0, fmt.Errorf("unknown stat %q (valid: %s)", key, strings.Join(valid, ", "))
}

// ParseKinds resolves a list of config identifiers.
func ParseKinds(keys []string) ([]Kind, error) {
	kinds := make([]Kind, 0, len(keys))
	for _, key := range keys {
		k, err := ParseKind(key)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// Source is the read-only timer state the statistics are computed from.
type Source interface {
	Segments() []*timing.Segment
	CurrentSegment() int
	HasStarted() bool
	PBTime() timing.OptDuration
	AttemptCount() int
	WorldRecord() (timing.OptDuration, string)
}

// Stats projects timer state into display strings. It never mutates the timer.
type Stats struct {
	src Source
}

// New returns statistics over src.
func New(src Source) *Stats {
	return &Stats{src: src}
}

// Text returns the formatted value of the statistic.
func (s *Stats) Text(kind Kind) string {
	switch kind {
	case BestPossibleTime:
		return s.bestPossibleTime()
	case CurrentPace:
		return s.currentPace()
	case SumOfBest:
		return s.sumOfBest()
	case RunsThatReachHere:
		return s.runsThatReachHere()
	case PersonalBest:
		return timing.FormatOpt(s.src.PBTime(), false)
	case WorldRecord:
		return s.worldRecord()
	default:
		return ""
	}
}

func (s *Stats) bestPossibleTime() string {
	var total time.Duration
	for _, seg := range s.src.Segments() {
		if seg.IsCompleted() {
			total += seg.RelativeTime()
			continue
		}
		best, ok := seg.BestRel().Get()
		if !ok {
			return timing.Placeholder
		}
		total += best
	}
	return timing.FormatDuration(total, false)
}

func (s *Stats) currentPace() string {
	pbTotal, ok := s.src.PBTime().Get()
	if !ok {
		return timing.Placeholder
	}
	var diff time.Duration
	for _, seg := range s.src.Segments() {
		if !seg.RanBefore() {
			return timing.Placeholder
		}
		if !seg.IsCompleted() {
			continue
		}
		pb, ok := seg.PBRel().Get()
		if !ok {
			return timing.Placeholder
		}
		diff += seg.RelativeTime() - pb
	}
	return timing.FormatDuration(pbTotal+diff, false)
}

func (s *Stats) sumOfBest() string {
	total, ok := SumOfBestTime(s.src.Segments())
	if !ok {
		return timing.Placeholder
	}
	return timing.FormatDuration(total, false)
}

func (s *Stats) runsThatReachHere() string {
	if !s.src.HasStarted() {
		return ReachPlaceholder
	}
	current := s.src.CurrentSegment()
	if current == 0 {
		return "100%"
	}
	return fmt.Sprintf("%04.1f%%", ReachRate(s.src.Segments(), s.src.AttemptCount(), current))
}

func (s *Stats) worldRecord() string {
	wr, owner := s.src.WorldRecord()
	if !wr.Valid() {
		return timing.Placeholder
	}
	return timing.FormatOpt(wr, false) + " by " + owner
}

// SumOfBestTime adds every segment's best time. It returns false if any
// segment has never been run.
func SumOfBestTime(segments []*timing.Segment) (time.Duration, bool) {
	var total time.Duration
	for _, seg := range segments {
		best, ok := seg.BestRel().Get()
		if !ok {
			return 0, false
		}
		total += best
	}
	return total, true
}

// ReachRate is the percentage of attempts that were not reset before segment idx.
func ReachRate(segments []*timing.Segment, attempts, idx int) float64 {
	resets := 0
	for i := 0; i < idx && i < len(segments); i++ {
		resets += segments[i].ResetCount()
	}
	return float64(attempts-resets) / float64(max(attempts, 1)) * 100.0
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if math.Abs(hi-lo) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(len(sparkChars)-1)))
		idx = min(max(idx, 0), len(sparkChars)-1)
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}
