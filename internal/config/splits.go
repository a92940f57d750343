package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/splitclock/internal/model"
)

// SplitsFile is the TOML form of a run. Times are in seconds.
type SplitsFile struct {
	Game               string         `toml:"game"`
	Category           string         `toml:"category"`
	Attempts           int            `toml:"attempts"`
	CompletedRunBefore bool           `toml:"completed-run-before"`
	WorldRecord        *float64       `toml:"world-record,omitempty"`
	WorldRecordOwner   string         `toml:"world-record-owner,omitempty"`
	Segments           []SplitSegment `toml:"segments"`
}

// SplitSegment is one segment of a splits file.
type SplitSegment struct {
	Name   string   `toml:"name"`
	PB     *float64 `toml:"pb,omitempty"`
	Best   *float64 `toml:"best,omitempty"`
	Resets int      `toml:"resets"`
}

// LoadSplits reads a splits file into a run record.
func LoadSplits(path string) (model.RunRecord, error) {
	var f SplitsFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return model.RunRecord{}, fmt.Errorf("failed to decode splits: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return model.RunRecord{}, fmt.Errorf("unknown splits key %q", undecoded[0].String())
	}
	if err := validateSplits(f); err != nil {
		return model.RunRecord{}, fmt.Errorf("invalid splits %s: %w", path, err)
	}
	run := model.RunRecord{
		Game:               f.Game,
		Category:           f.Category,
		AttemptCount:       f.Attempts,
		CompletedRunBefore: f.CompletedRunBefore,
		WorldRecord:        fromSeconds(f.WorldRecord),
		WorldRecordOwner:   f.WorldRecordOwner,
		Segments:           make([]model.SegmentRecord, len(f.Segments)),
	}
	for i, s := range f.Segments {
		run.Segments[i] = model.SegmentRecord{
			Name:       s.Name,
			PB:         fromSeconds(s.PB),
			Best:       fromSeconds(s.Best),
			ResetCount: s.Resets,
		}
	}
	return run, nil
}

// WriteSplits writes a run record as a splits file, replacing any existing one.
func WriteSplits(path string, run model.RunRecord) error {
	f := SplitsFile{
		Game:               run.Game,
		Category:           run.Category,
		Attempts:           run.AttemptCount,
		CompletedRunBefore: run.CompletedRunBefore,
		WorldRecord:        toSeconds(run.WorldRecord),
		WorldRecordOwner:   run.WorldRecordOwner,
		Segments:           make([]SplitSegment, len(run.Segments)),
	}
	for i, s := range run.Segments {
		f.Segments[i] = SplitSegment{
			Name:   s.Name,
			PB:     toSeconds(s.PB),
			Best:   toSeconds(s.Best),
			Resets: s.ResetCount,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create splits dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "splits-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp splits: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := toml.NewEncoder(tmp).Encode(f); err != nil {
		return fmt.Errorf("failed to encode splits: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close splits: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write splits: %w", err)
	}
	return nil
}

// NewSplits returns an empty run with the given segment names.
func NewSplits(game, category string, names []string) model.RunRecord {
	run := model.RunRecord{Game: game, Category: category}
	for _, name := range names {
		run.Segments = append(run.Segments, model.SegmentRecord{Name: name})
	}
	return run
}

func validateSplits(f SplitsFile) error {
	if strings.TrimSpace(f.Game) == "" {
		return fmt.Errorf("game must not be empty")
	}
	if strings.TrimSpace(f.Category) == "" {
		return fmt.Errorf("category must not be empty")
	}
	if len(f.Segments) == 0 {
		return fmt.Errorf("at least one segment is required")
	}
	if f.Attempts < 0 {
		return fmt.Errorf("attempts must be >= 0")
	}
	for i, s := range f.Segments {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("segment %d has no name", i+1)
		}
		if (s.PB != nil && *s.PB < 0) || (s.Best != nil && *s.Best < 0) {
			return fmt.Errorf("segment %q has a negative time", s.Name)
		}
		if s.Resets < 0 {
			return fmt.Errorf("segment %q has a negative reset count", s.Name)
		}
	}
	return nil
}

// fromSeconds converts seconds to a duration truncated to milliseconds.
func fromSeconds(s *float64) *time.Duration {
	if s == nil {
		return nil
	}
	d := time.Duration(math.Round(*s*1000)) * time.Millisecond
	return &d
}

func toSeconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := float64(d.Milliseconds()) / 1000
	return &s
}
